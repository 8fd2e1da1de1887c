// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/s3eon/s3store/internal/sigv4"
	"github.com/s3eon/s3store/internal/template"
)

var _ Driver = &S3Driver{}

// S3Driver talks to an S3 compatible endpoint over plain HTTP, signing every
// request itself.
type S3Driver struct {
	bucket    string
	scheme    string
	host      string
	urlStyle  URLStyle
	masterKey string

	signer  *sigv4.Signer
	builder *template.PathBuilder
	client  *http.Client
	logger  *slog.Logger
}

func NewS3Driver(bucket string, cred aws.Credentials, opts ...OptFunc) (*S3Driver, error) {
	if err := validateBucket(bucket, cred); err != nil {
		return nil, err
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	builder, err := o.pathBuilder()
	if err != nil {
		return nil, err
	}

	scheme, host := o.endpoint(bucket)
	signer, err := sigv4.NewSigner(
		sigv4.WithCredentials(cred.AccessKeyID, cred.SecretAccessKey),
		sigv4.WithHost(host),
		sigv4.WithRegion(o.region.String()),
		sigv4.WithClock(o.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	return &S3Driver{
		bucket:    bucket,
		scheme:    scheme,
		host:      host,
		urlStyle:  o.urlStyle,
		masterKey: o.masterKey,
		signer:    signer,
		builder:   builder,
		client:    o.client,
		logger:    o.logger,
	}, nil
}

func (d *S3Driver) Upload(ctx context.Context, entity *FileEntity, acl ACL) (string, error) {
	path, err := prepareUpload(entity, d.builder, d.logger)
	if err != nil {
		return "", err
	}

	headers := map[string]string{"x-amz-acl": acl.String()}
	_, err = d.do(ctx, sigv4.Request{
		Method:      http.MethodPut,
		Path:        path,
		ContentType: entity.Mime,
		Payload:     sigv4.BytesPayload(entity.Bytes),
		Headers:     headers,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", path, err)
	}

	d.logger.Debug("uploaded object", "bucket", d.bucket, "path", path, "size", len(entity.Bytes))
	return path, nil
}

func (d *S3Driver) Get(ctx context.Context, path string) ([]byte, error) {
	body, err := d.do(ctx, sigv4.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", path, err)
	}
	return body, nil
}

func (d *S3Driver) Delete(ctx context.Context, path string) error {
	if _, err := d.do(ctx, sigv4.Request{Method: http.MethodDelete, Path: path}); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

// URL is the unsigned address of path, usable when the object is public.
func (d *S3Driver) URL(path string) string {
	return d.scheme + "://" + d.host + sigv4.EncodePath(d.requestPath(path))
}

func (d *S3Driver) requestPath(path string) string {
	if d.urlStyle == UrlStylePath {
		return "/" + d.bucket + path
	}
	return path
}

// do signs and sends req. Its Path is the object path, the bucket prefix of
// path-style endpoints is added here.
func (d *S3Driver) do(ctx context.Context, req sigv4.Request) ([]byte, error) {
	if !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("%w: %q", ErrPathMissingForwardSlash, req.Path)
	}
	objectPath := req.Path
	req.Path = d.requestPath(req.Path)

	if d.masterKey != "" {
		key, err := createSSECKey(d.masterKey, d.scheme+"://"+d.host, d.bucket, strings.TrimPrefix(objectPath, "/"))
		if err != nil {
			return nil, err
		}
		if req.Headers == nil {
			req.Headers = map[string]string{}
		}
		for k, v := range key.headers() {
			req.Headers[k] = v
		}
	}

	signed, err := d.signer.Sign(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if b := req.Payload.Bytes(); b != nil {
		body = bytes.NewReader(b)
	}
	r, err := http.NewRequestWithContext(ctx, req.Method, d.scheme+"://"+d.host+sigv4.EncodePath(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range signed {
		if k == sigv4.HeaderHost {
			r.Host = v
			continue
		}
		r.Header.Set(k, v)
	}

	res, err := d.client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, newResponseError(res.StatusCode, b)
	}
	return b, nil
}
