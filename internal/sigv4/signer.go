// Package sigv4 signs S3 requests with AWS Signature Version 4 and verifies
// signatures on incoming ones.
package sigv4

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderHost          = "Host"
	HeaderAmzDate       = "x-amz-date"
	HeaderContentSHA256 = "x-amz-content-sha256"

	// DefaultContentType is sent when a Request has no ContentType.
	DefaultContentType = "application/x-www-form-urlencoded; charset=utf-8"

	amzDateFormat   = "20060102T150405Z"
	dateStampFormat = "20060102"
)

var (
	ErrUnsupportedMethod = errors.New("unsupported method")
	ErrMalformedPath     = errors.New("malformed path")
	ErrMalformedQuery    = errors.New("malformed query")
	ErrMissingCredential = errors.New("missing access key or secret key")
	ErrMissingHost       = errors.New("missing host")
	ErrMissingRegion     = errors.New("missing region")
)

// SignError reports why a request could not be signed. It never carries key
// material.
type SignError struct {
	Method string
	Path   string
	Err    error
}

func (e *SignError) Error() string {
	return fmt.Sprintf("failed to sign %s %q: %v", e.Method, e.Path, e.Err)
}

func (e *SignError) Unwrap() error {
	return e.Err
}

// Signer holds the immutable signing context. It is safe for concurrent use.
type Signer struct {
	service   string
	host      string
	region    string
	accessKey string
	secretKey string
	now       func() time.Time
}

type SignerOptFunc func(*Signer) error

func WithCredentials(accessKey, secretKey string) SignerOptFunc {
	return func(s *Signer) error {
		if accessKey == "" || secretKey == "" {
			return ErrMissingCredential
		}
		s.accessKey = accessKey
		s.secretKey = secretKey
		return nil
	}
}

func WithHost(host string) SignerOptFunc {
	return func(s *Signer) error {
		s.host = host
		return nil
	}
}

func WithRegion(region string) SignerOptFunc {
	return func(s *Signer) error {
		s.region = region
		return nil
	}
}

// WithService overrides the default "s3" service name.
func WithService(service string) SignerOptFunc {
	return func(s *Signer) error {
		s.service = service
		return nil
	}
}

func WithClock(now func() time.Time) SignerOptFunc {
	return func(s *Signer) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		s.now = now
		return nil
	}
}

func NewSigner(opts ...SignerOptFunc) (*Signer, error) {
	s := &Signer{
		service: "s3",
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply signer option: %w", err)
		}
	}

	switch {
	case s.accessKey == "" || s.secretKey == "":
		return nil, ErrMissingCredential
	case s.host == "":
		return nil, ErrMissingHost
	case s.region == "":
		return nil, ErrMissingRegion
	}
	return s, nil
}

func (s *Signer) Host() string      { return s.host }
func (s *Signer) Region() string    { return s.region }
func (s *Signer) AccessKey() string { return s.accessKey }

// LogValue keeps the secret key out of structured logs.
func (s *Signer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("service", s.service),
		slog.String("host", s.host),
		slog.String("region", s.region),
		slog.String("accessKey", s.accessKey),
		slog.String("secretKey", "REDACTED"),
	)
}

// Request is the input of Sign. Path is the unencoded object path and Query
// the raw query string.
type Request struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Payload     Payload
	Headers     map[string]string
}

func validate(req Request) error {
	switch req.Method {
	case http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodHead:
	default:
		return ErrUnsupportedMethod
	}
	if req.Path == "" || req.Path[0] != '/' || !utf8.ValidString(req.Path) {
		return ErrMalformedPath
	}
	if !utf8.ValidString(req.Query) {
		return ErrMalformedQuery
	}
	return nil
}

// Sign returns the header set to attach to the outbound request. Host,
// x-amz-date and x-amz-content-sha256 always take the signer's values, caller
// headers with the same name are replaced before the signature is computed.
// Content-Type and x-amz-content-sha256 are always returned, the latter is
// signed only when the payload is.
func (s *Signer) Sign(req Request) (map[string]string, error) {
	if err := validate(req); err != nil {
		return nil, &SignError{Method: req.Method, Path: req.Path, Err: err}
	}

	now := s.now().UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)
	payloadHash := req.Payload.Hash()

	signed := make(map[string]string, len(req.Headers)+3)
	for _, h := range sortedHeaders(req.Headers) {
		switch h.lower {
		case "host", HeaderAmzDate, HeaderContentSHA256:
			continue
		}
		// first spelling of a name wins, sortedHeaders orders them
		if _, ok := lookup(signed, h.lower); ok {
			continue
		}
		signed[h.name] = h.value
	}
	signed[HeaderHost] = s.host
	signed[HeaderAmzDate] = amzDate
	if !req.Payload.Unsigned() {
		signed[HeaderContentSHA256] = payloadHash
	}

	canonical := CanonicalRequest(req.Method, req.Path, req.Query, signed, payloadHash)
	scope := CredentialScope(dateStamp, s.region, s.service)
	signature := Signature(StringToSign(amzDate, scope, canonical), s.secretKey, dateStamp, s.region, s.service)
	_, signedHeaders := CanonicalHeaders(signed)

	out := map[string]string{
		HeaderAmzDate:       amzDate,
		HeaderAuthorization: Authorization{
			AccessKey:     s.accessKey,
			Scope:         scope,
			SignedHeaders: strings.Split(signedHeaders, ";"),
			Signature:     signature,
		}.String(),
		HeaderHost: s.host,
	}
	out[HeaderContentType] = cmp.Or(req.ContentType, DefaultContentType)
	// sent for unsigned payloads too, it is just not part of the signature
	out[HeaderContentSHA256] = payloadHash
	for k, v := range signed {
		out[k] = v
	}
	return out, nil
}

func lookup(headers map[string]string, lower string) (string, bool) {
	for k, v := range headers {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return "", false
}
