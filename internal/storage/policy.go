package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/s3eon/s3store/internal/policy"
)

var ErrPolicyDenied = errors.New("denied by policy")

// Authorizer is satisfied by *policy.Policy.
type Authorizer interface {
	Allow(ctx context.Context, in policy.Input) (bool, error)
}

// PolicyDriver asks an Authorizer before every operation of the driver it
// wraps. Uploads are checked with the entity as given by the caller, the
// rendered path is not known yet.
type PolicyDriver struct {
	inner Driver
	authz Authorizer
}

var (
	_ Driver = &PolicyDriver{}
	_ URLer  = &PolicyDriver{}
)

func NewPolicyDriver(inner Driver, authz Authorizer) *PolicyDriver {
	return &PolicyDriver{inner: inner, authz: authz}
}

func (p *PolicyDriver) check(ctx context.Context, in policy.Input) error {
	ok, err := p.authz.Allow(ctx, in)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrPolicyDenied, in.Action, in.Path)
	}
	return nil
}

func (p *PolicyDriver) Upload(ctx context.Context, entity *FileEntity, acl ACL) (string, error) {
	if entity == nil {
		return "", ErrNilFileUpload
	}

	err := p.check(ctx, policy.Input{
		Action:        policy.ActionUpload,
		FileName:      entity.FileName,
		FileExtension: entity.FileExtension,
		Folder:        entity.Folder,
		Mime:          entity.Mime,
		Size:          len(entity.Bytes),
		ACL:           acl.String(),
	})
	if err != nil {
		return "", err
	}
	return p.inner.Upload(ctx, entity, acl)
}

func (p *PolicyDriver) Get(ctx context.Context, path string) ([]byte, error) {
	if err := p.check(ctx, policy.Input{Action: policy.ActionGet, Path: path}); err != nil {
		return nil, err
	}
	return p.inner.Get(ctx, path)
}

func (p *PolicyDriver) Delete(ctx context.Context, path string) error {
	if err := p.check(ctx, policy.Input{Action: policy.ActionDelete, Path: path}); err != nil {
		return err
	}
	return p.inner.Delete(ctx, path)
}

func (p *PolicyDriver) URL(path string) string {
	if u, ok := p.inner.(URLer); ok {
		return u.URL(path)
	}
	return ""
}
