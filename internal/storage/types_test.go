package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseACL(t *testing.T) {
	acl, err := ParseACL("")
	require.NoError(t, err)
	assert.Equal(t, ACLPublicRead, acl)

	for _, want := range acls {
		got, err := ParseACL(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseACL("everyone")
	assert.ErrorIs(t, err, ErrUnknownACL)
}

func TestParseRegion(t *testing.T) {
	testdata := []struct {
		Scenario string
		Input    string
		Region   Region
		Host     string
		Err      error
	}{
		{"Default", "", RegionEUWest1, "s3-eu-west-1.amazonaws.com", nil},
		{"US East", "us-east-1", RegionUSEast1, "s3-us-east-1.amazonaws.com", nil},
		{"Sao Paulo", "sa-east-1", RegionSAEast1, "s3-sa-east-1.amazonaws.com", nil},
		{"Unknown", "mars-north-1", "", "", ErrUnknownRegion},
	}

	for _, tt := range testdata {
		t.Run(tt.Scenario, func(t *testing.T) {
			r, err := ParseRegion(tt.Input)
			if tt.Err != nil {
				assert.ErrorIs(t, err, tt.Err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.Region, r)
			assert.Equal(t, tt.Host, r.Host())
		})
	}
}

func TestParseURLStyle(t *testing.T) {
	s, err := ParseURLStyle("")
	require.NoError(t, err)
	assert.Equal(t, UrlStyleVirtualHosted, s)

	s, err = ParseURLStyle("path")
	require.NoError(t, err)
	assert.Equal(t, UrlStylePath, s)

	_, err = ParseURLStyle("dns")
	assert.Error(t, err)
}
