package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tModule = `package storage

default allow := false

allow if {
	input.action == "get"
}

allow if {
	input.action == "upload"
	startswith(input.mime, "image/")
	input.size <= 1024
	input.acl != "public-read-write"
}

allow if {
	input.action == "delete"
	startswith(input.path, "/tmp/")
}
`

func TestPolicy(t *testing.T) {
	p, err := New(t.Context(), tModule)
	require.NoError(t, err)

	testdata := []struct {
		Scenario string
		Input    Input
		Result   bool
	}{
		{"Get", Input{Action: ActionGet, Path: "/a.png"}, true},
		{"Upload Image", Input{Action: ActionUpload, Mime: "image/png", Size: 512, ACL: "public-read"}, true},
		{"Upload Too Large", Input{Action: ActionUpload, Mime: "image/png", Size: 2048, ACL: "public-read"}, false},
		{"Upload Wrong Type", Input{Action: ActionUpload, Mime: "application/pdf", Size: 10}, false},
		{"Upload Public Write", Input{Action: ActionUpload, Mime: "image/png", Size: 1, ACL: "public-read-write"}, false},
		{"Delete Temporary", Input{Action: ActionDelete, Path: "/tmp/x.png"}, true},
		{"Delete Other", Input{Action: ActionDelete, Path: "/images/x.png"}, false},
		{"Unknown Action", Input{Action: "list"}, false},
	}

	for _, tt := range testdata {
		t.Run(tt.Scenario, func(t *testing.T) {
			ok, err := p.Allow(t.Context(), tt.Input)
			require.NoError(t, err)
			assert.Equal(t, tt.Result, ok)
		})
	}
}

func TestPolicyUndefinedDenies(t *testing.T) {
	p, err := New(t.Context(), "package storage\n\nallow if {\n\tinput.action == \"get\"\n}\n")
	require.NoError(t, err)

	ok, err := p.Allow(t.Context(), Input{Action: ActionDelete})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPolicyInvalidModule(t *testing.T) {
	_, err := New(t.Context(), "package storage\n\nallow if {")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(file, []byte(tModule), 0o600))

	p, err := Load(t.Context(), file)
	require.NoError(t, err)

	ok, err := p.Allow(t.Context(), Input{Action: ActionGet})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Load(t.Context(), filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}
