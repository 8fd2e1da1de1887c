// Package policy decides with a rego module whether a storage operation may
// proceed.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Query is the rule every module has to define.
const Query = "data.storage.allow"

// Input is the document a module sees as input.
type Input struct {
	Action        string `json:"action"`
	Path          string `json:"path,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	FileExtension string `json:"fileExtension,omitempty"`
	Folder        string `json:"folder,omitempty"`
	Mime          string `json:"mime,omitempty"`
	Size          int    `json:"size"`
	ACL           string `json:"acl,omitempty"`
}

const (
	ActionUpload = "upload"
	ActionGet    = "get"
	ActionDelete = "delete"
)

type Policy struct {
	query rego.PreparedEvalQuery
}

// New compiles module, which must define storage.allow.
func New(ctx context.Context, module string) (*Policy, error) {
	query, err := rego.New(
		rego.Query(Query),
		rego.Module("storage.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile policy: %w", err)
	}
	return &Policy{query: query}, nil
}

func Load(ctx context.Context, file string) (*Policy, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}
	return New(ctx, string(b))
}

// Allow reports whether the module grants in. An undefined result denies.
func (p *Policy) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	return rs.Allowed(), nil
}
