// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/minio/minio-go/v7"
	mcredentials "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"
	"github.com/s3eon/s3store/internal/sigv4"
	"github.com/s3eon/s3store/internal/template"
)

var _ Driver = &MinioDriver{}

// MinioDriver uses the minio client as transport.
type MinioDriver struct {
	bucket    string
	endpoint  string
	urlStyle  URLStyle
	masterKey string

	client  *minio.Client
	builder *template.PathBuilder
	logger  *slog.Logger
}

func NewMinioDriver(bucket string, cred aws.Credentials, opts ...OptFunc) (*MinioDriver, error) {
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

	lookup := minio.BucketLookupDNS
	if o.urlStyle == UrlStylePath {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(o.host, &minio.Options{
		Creds:        mcredentials.NewStaticV4(cred.AccessKeyID, cred.SecretAccessKey, ""),
		Secure:       o.scheme == "https",
		Region:       o.region.String(),
		BucketLookup: lookup,
		Transport:    o.client.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	scheme, host := o.endpoint(bucket)
	return &MinioDriver{
		bucket:    bucket,
		endpoint:  scheme + "://" + host,
		urlStyle:  o.urlStyle,
		masterKey: o.masterKey,
		client:    client,
		builder:   builder,
		logger:    o.logger,
	}, nil
}

func (d *MinioDriver) Upload(ctx context.Context, entity *FileEntity, acl ACL) (string, error) {
	path, err := prepareUpload(entity, d.builder, d.logger)
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(path, "/")

	sse, err := d.sse(key)
	if err != nil {
		return "", err
	}

	_, err = d.client.PutObject(ctx, d.bucket, key,
		bytes.NewReader(entity.Bytes), int64(len(entity.Bytes)),
		minio.PutObjectOptions{
			ContentType:          entity.Mime,
			UserMetadata:         map[string]string{"x-amz-acl": acl.String()},
			ServerSideEncryption: sse,
		})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", path, minioError(err))
	}
	return path, nil
}

func (d *MinioDriver) Get(ctx context.Context, path string) ([]byte, error) {
	key, err := objectKey(path)
	if err != nil {
		return nil, err
	}
	sse, err := d.sse(key)
	if err != nil {
		return nil, err
	}

	obj, err := d.client.GetObject(ctx, d.bucket, key, minio.GetObjectOptions{ServerSideEncryption: sse})
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", path, minioError(err))
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", path, minioError(err))
	}
	return b, nil
}

func (d *MinioDriver) Delete(ctx context.Context, path string) error {
	key, err := objectKey(path)
	if err != nil {
		return err
	}
	if err := d.client.RemoveObject(ctx, d.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, minioError(err))
	}
	return nil
}

func (d *MinioDriver) URL(path string) string {
	if d.urlStyle == UrlStylePath {
		path = "/" + d.bucket + path
	}
	return d.endpoint + sigv4.EncodePath(path)
}

func (d *MinioDriver) sse(key string) (encrypt.ServerSide, error) {
	if d.masterKey == "" {
		return nil, nil
	}
	k, err := createSSECKey(d.masterKey, d.endpoint, d.bucket, key)
	if err != nil {
		return nil, err
	}
	return encrypt.NewSSEC(k.raw)
}

func minioError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == 0 && resp.Code == "" {
		return err
	}
	return &ResponseError{
		StatusCode: resp.StatusCode,
		Code:       resp.Code,
		Message:    resp.Message,
		Err:        err,
	}
}

func objectKey(path string) (string, error) {
	key, ok := strings.CutPrefix(path, "/")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %q", ErrPathMissingForwardSlash, path)
	}
	return key, nil
}
