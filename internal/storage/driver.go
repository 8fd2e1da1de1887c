package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/s3eon/s3store/internal/config"
	"github.com/s3eon/s3store/internal/template"
)

// Driver moves file bytes to and from an object store. Paths are the ones
// returned by Upload and always begin with '/'.
type Driver interface {
	Upload(ctx context.Context, entity *FileEntity, acl ACL) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// URLer is implemented by drivers that can tell the public URL of a path.
type URLer interface {
	URL(path string) string
}

const (
	DriverS3    = "s3"
	DriverMinio = "minio"
	DriverAWS   = "aws"
)

// NewDriver builds the driver named by cfg. opts are applied after the ones
// derived from cfg.
func NewDriver(ctx context.Context, cfg *config.Storage, opts ...OptFunc) (Driver, error) {
	region, err := ParseRegion(cfg.Region.Value)
	if err != nil {
		return nil, err
	}
	style, err := ParseURLStyle(cfg.URLStyle.Value)
	if err != nil {
		return nil, err
	}

	base := []OptFunc{
		WithRegion(region),
		WithURLStyle(style),
	}
	if cfg.Host.Value != "" {
		base = append(base, WithHost(cfg.Host.Value))
	}
	if cfg.Template.Value != "" {
		base = append(base, WithPathTemplate(cfg.Template.Value))
	}
	if cfg.EndpointScheme.Value != "" {
		base = append(base, WithScheme(cfg.EndpointScheme.Value))
	}
	if cfg.SSEMasterKey.Value != "" {
		base = append(base, WithSSECMasterKey(cfg.SSEMasterKey.Value))
	}
	if cfg.CAFile.Value != "" {
		base = append(base, WithAdditionalCACert(cfg.CAFile.Value))
	}
	opts = append(base, opts...)

	cred := aws.Credentials{
		AccessKeyID:     cfg.AccessKey.Value,
		SecretAccessKey: cfg.SecretKey.Value,
	}

	switch driver := cfg.Driver.Value; driver {
	case DriverS3, "":
		return NewS3Driver(cfg.Bucket.Value, cred, opts...)
	case DriverMinio:
		return NewMinioDriver(cfg.Bucket.Value, cred, opts...)
	case DriverAWS:
		return NewAWSDriver(ctx, cfg.Bucket.Value, cred, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// prepareUpload completes the entity metadata and renders its path.
func prepareUpload(entity *FileEntity, builder *template.PathBuilder, logger *slog.Logger) (string, error) {
	if entity == nil || entity.Bytes == nil {
		return "", ErrNilFileUpload
	}

	entity.Sanitize()
	if entity.FileExtension == "" && !entity.LoadFileExtensionFromMime() {
		return "", ErrMissingFileExtensionAndType
	}
	if entity.Mime == "" {
		entity.LoadMimeFromFileExtension()
	}
	if entity.Mime == "" {
		return "", ErrMissingFileExtensionAndType
	}

	path, err := builder.Build(entity.Attributes())
	if err != nil {
		return "", fmt.Errorf("failed to build upload path: %w", err)
	}

	if !strings.HasPrefix(path, "/") {
		logger.Error("upload path must begin with '/', check the storage template", "template", builder.Template().String(), "path", path)
		return "", ErrPathMissingForwardSlash
	}
	return path, nil
}

func validateBucket(bucket string, cred aws.Credentials) error {
	switch {
	case bucket == "":
		return config.ErrMissingBucket
	case cred.AccessKeyID == "":
		return config.ErrMissingAccessKey
	case cred.SecretAccessKey == "":
		return config.ErrMissingSecretKey
	}
	return nil
}
