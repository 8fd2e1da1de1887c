// Package storage uploads, fetches and deletes files in S3 compatible object
// stores. Upload paths are rendered from a template per file.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrNoPublicURL = errors.New("no cdn url configured and the driver has no public url")

// Storage is the entry point applications use. It holds no state besides its
// driver and CDN base URL.
type Storage struct {
	driver     Driver
	cdnBaseURL string
}

func New(driver Driver, cdnBaseURL string) *Storage {
	return &Storage{driver: driver, cdnBaseURL: cdnBaseURL}
}

// Upload stores entity and returns the path it was stored at. The entity is
// completed in place (split file name, mime type, extension).
func (s *Storage) Upload(ctx context.Context, entity *FileEntity, acl ACL) (string, error) {
	if s == nil || s.driver == nil {
		return "", ErrMissingDriver
	}
	return s.driver.Upload(ctx, entity, acl)
}

// UploadBytes uploads data described by meta. meta.Bytes is ignored.
func (s *Storage) UploadBytes(ctx context.Context, data []byte, meta FileEntity, acl ACL) (string, error) {
	meta.Bytes = data
	return s.Upload(ctx, &meta, acl)
}

// UploadBase64 uploads the standard base64 encoded data.
func (s *Storage) UploadBase64(ctx context.Context, encoded string, meta FileEntity, acl ACL) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return s.UploadBytes(ctx, data, meta, acl)
}

// UploadDataURI uploads the payload of a data URI. Its media type is used
// when meta has none.
func (s *Storage) UploadDataURI(ctx context.Context, uri string, meta FileEntity, acl ACL) (string, error) {
	data, mediaType, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	if meta.Mime == "" {
		meta.Mime, _, _ = strings.Cut(mediaType, ";")
	}
	return s.UploadBytes(ctx, data, meta, acl)
}

func (s *Storage) Get(ctx context.Context, path string) ([]byte, error) {
	if s == nil || s.driver == nil {
		return nil, ErrMissingDriver
	}
	return s.driver.Get(ctx, path)
}

func (s *Storage) Delete(ctx context.Context, path string) error {
	if s == nil || s.driver == nil {
		return ErrMissingDriver
	}
	return s.driver.Delete(ctx, path)
}

// URL returns where path can be downloaded from, preferring the CDN.
func (s *Storage) URL(path string) (string, error) {
	if s == nil || s.driver == nil {
		return "", ErrMissingDriver
	}
	if s.cdnBaseURL != "" {
		return strings.TrimSuffix(s.cdnBaseURL, "/") + path, nil
	}
	if u, ok := s.driver.(URLer); ok {
		if url := u.URL(path); url != "" {
			return url, nil
		}
	}
	return "", ErrNoPublicURL
}
