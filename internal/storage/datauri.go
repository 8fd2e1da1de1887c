package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrInvalidScheme = errors.New("data uri must start with \"data:\"")
	ErrInvalidURI    = errors.New("malformed data uri")
)

// ParseDataURI decodes an RFC 2397 data URI of the form
// data:[<mediatype>][;base64],<data>. A missing media type defaults to
// text/plain;charset=US-ASCII.
func ParseDataURI(uri string) (data []byte, mediaType string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidScheme
	}

	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing ','", ErrInvalidURI)
	}

	typ, params, _ := strings.Cut(meta, ";")
	isBase64 := false
	var kept []string
	if params != "" {
		for p := range strings.SplitSeq(params, ";") {
			if p == "base64" {
				isBase64 = true
				continue
			}
			kept = append(kept, p)
		}
	}
	if typ == "" {
		typ = "text/plain"
		if len(kept) == 0 {
			kept = []string{"charset=US-ASCII"}
		}
	}
	mediaType = strings.Join(append([]string{typ}, kept...), ";")

	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	data = []byte(decoded)

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(decoded)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidURI, err)
		}
	}
	return data, mediaType, nil
}
