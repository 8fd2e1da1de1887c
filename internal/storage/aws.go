// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/s3eon/s3store/internal/sigv4"
	"github.com/s3eon/s3store/internal/template"
)

var _ Driver = &AWSDriver{}

// AWSDriver uses the AWS SDK as transport.
type AWSDriver struct {
	bucket    string
	endpoint  string
	urlStyle  URLStyle
	masterKey string

	client  *s3.Client
	builder *template.PathBuilder
	logger  *slog.Logger
}

func NewAWSDriver(ctx context.Context, bucket string, cred aws.Credentials, opts ...OptFunc) (*AWSDriver, error) {
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

	// AWS_CA_BUNDLE is only applied to clients the SDK can rebuild.
	var httpClient awsconfig.HTTPClient = o.client
	if o.ownClient {
		httpClient = awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			if o.rootCAs == nil {
				return
			}
			if tr.TLSClientConfig == nil {
				tr.TLSClientConfig = &tls.Config{}
			}
			tr.TLSClientConfig.RootCAs = o.rootCAs
		})
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(o.region.String()),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cred.AccessKeyID, cred.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		so.UsePathStyle = o.urlStyle == UrlStylePath
		if o.host != DefaultHost {
			so.BaseEndpoint = aws.String(o.scheme + "://" + o.host)
		}
	})

	scheme, host := o.endpoint(bucket)
	return &AWSDriver{
		bucket:    bucket,
		endpoint:  scheme + "://" + host,
		urlStyle:  o.urlStyle,
		masterKey: o.masterKey,
		client:    client,
		builder:   builder,
		logger:    o.logger,
	}, nil
}

func (d *AWSDriver) Upload(ctx context.Context, entity *FileEntity, acl ACL) (string, error) {
	path, err := prepareUpload(entity, d.builder, d.logger)
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(path, "/")

	in := &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(entity.Bytes),
		ContentLength: aws.Int64(int64(len(entity.Bytes))),
		ContentType:   aws.String(entity.Mime),
		ACL:           types.ObjectCannedACL(acl),
	}
	if d.masterKey != "" {
		k, err := createSSECKey(d.masterKey, d.endpoint, d.bucket, key)
		if err != nil {
			return "", err
		}
		in.SSECustomerAlgorithm = aws.String("AES256")
		in.SSECustomerKey = aws.String(k.b64)
		in.SSECustomerKeyMD5 = aws.String(k.md5)
	}

	if _, err := d.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", path, awsError(err))
	}
	return path, nil
}

func (d *AWSDriver) Get(ctx context.Context, path string) ([]byte, error) {
	key, err := objectKey(path)
	if err != nil {
		return nil, err
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}
	if d.masterKey != "" {
		k, err := createSSECKey(d.masterKey, d.endpoint, d.bucket, key)
		if err != nil {
			return nil, err
		}
		in.SSECustomerAlgorithm = aws.String("AES256")
		in.SSECustomerKey = aws.String(k.b64)
		in.SSECustomerKeyMD5 = aws.String(k.md5)
	}

	out, err := d.client.GetObject(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", path, awsError(err))
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return b, nil
}

func (d *AWSDriver) Delete(ctx context.Context, path string) error {
	key, err := objectKey(path)
	if err != nil {
		return err
	}
	_, err = d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, awsError(err))
	}
	return nil
}

func (d *AWSDriver) URL(path string) string {
	if d.urlStyle == UrlStylePath {
		path = "/" + d.bucket + path
	}
	return d.endpoint + sigv4.EncodePath(path)
}

func awsError(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return &ResponseError{StatusCode: http.StatusNotFound, Code: "NoSuchKey", Message: noSuchKey.ErrorMessage(), Err: err}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e := &ResponseError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Err: err}
		if e.Code == "NotFound" {
			e.StatusCode = http.StatusNotFound
		}
		return e
	}
	return err
}
