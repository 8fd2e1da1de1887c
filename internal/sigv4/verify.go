package sigv4

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMissingAuthorization   = errors.New("no Authorization header present")
	ErrMalformedAuthorization = errors.New("malformed Authorization header")
	ErrUnknownAccessKey       = errors.New("AccessKeyId mismatch")
	ErrSignatureMismatch      = errors.New("signature mismatch")
	ErrPayloadHashMismatch    = errors.New("payload hash mismatch")
)

// Authorization is the parsed value of an Authorization header.
type Authorization struct {
	AccessKey     string
	Scope         string
	SignedHeaders []string
	Signature     string
}

func (a Authorization) String() string {
	return Algorithm + " Credential=" + a.AccessKey + "/" + a.Scope +
		", SignedHeaders=" + strings.Join(a.SignedHeaders, ";") +
		", Signature=" + a.Signature
}

// DateStamp, Region and Service split the credential scope
// <date>/<region>/<service>/aws4_request.
func (a Authorization) DateStamp() string { return a.scopePart(0) }
func (a Authorization) Region() string    { return a.scopePart(1) }
func (a Authorization) Service() string   { return a.scopePart(2) }

func (a Authorization) scopePart(i int) string {
	parts := strings.Split(a.Scope, "/")
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

func ParseAuthorization(authz string) (a Authorization, err error) {
	rest, ok := strings.CutPrefix(authz, Algorithm+" ")
	if !ok || rest == "" {
		return a, fmt.Errorf("%w: unsupported algorithm", ErrMalformedAuthorization)
	}

	var credential string
	for part := range strings.SplitSeq(rest, ",") {
		part = strings.TrimSpace(part)
		if after, ok := strings.CutPrefix(part, "Credential="); ok {
			credential = after
			continue
		}
		if after, ok := strings.CutPrefix(part, "SignedHeaders="); ok {
			a.SignedHeaders = strings.Split(after, ";")
			continue
		}
		if after, ok := strings.CutPrefix(part, "Signature="); ok {
			a.Signature = after
			continue
		}
	}

	// Credential format: <accessKeyId>/<date>/<region>/<service>/aws4_request
	credParts := strings.SplitN(credential, "/", 2)
	if len(credParts) != 2 || strings.Count(credParts[1], "/") != 3 || !strings.HasSuffix(credParts[1], "/"+scopeTerminator) {
		return a, fmt.Errorf("%w: malformed Credential: %s", ErrMalformedAuthorization, credential)
	}
	if len(a.SignedHeaders) == 0 || a.Signature == "" {
		return a, fmt.Errorf("%w: missing SignedHeaders or Signature", ErrMalformedAuthorization)
	}

	a.AccessKey = credParts[0]
	a.Scope = credParts[1]
	return a, nil
}

func parseAmzDate(amzDate string) (time.Time, error) {
	t, err := time.Parse(amzDateFormat, amzDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid X-Amz-Date format: %w", err)
	}
	return t, nil
}

// Verify recomputes the signature of an incoming request and compares it with
// the one in its Authorization header. secretFor resolves an access key to its
// secret. A signed payload hash is checked against the body, which is left
// readable for the caller.
func Verify(r *http.Request, secretFor func(accessKey string) (string, bool)) (Authorization, error) {
	hAuthz := r.Header.Get(HeaderAuthorization)
	if hAuthz == "" {
		return Authorization{}, ErrMissingAuthorization
	}
	authz, err := ParseAuthorization(hAuthz)
	if err != nil {
		return authz, err
	}

	secret, ok := secretFor(authz.AccessKey)
	if !ok {
		return authz, ErrUnknownAccessKey
	}

	t, err := parseAmzDate(r.Header.Get(HeaderAmzDate))
	if err != nil {
		return authz, fmt.Errorf("failed to parse date header: %w", err)
	}
	if t.Format(dateStampFormat) != authz.DateStamp() {
		return authz, fmt.Errorf("%w: date does not match credential scope", ErrSignatureMismatch)
	}

	payloadHash := r.Header.Get(HeaderContentSHA256)
	if payloadHash == "" {
		payloadHash = UnsignedPayloadHash
	}
	if payloadHash != UnsignedPayloadHash {
		if err := checkBody(r, payloadHash); err != nil {
			return authz, err
		}
	}

	headers := make(map[string]string, len(authz.SignedHeaders))
	for _, h := range authz.SignedHeaders {
		if strings.EqualFold(h, HeaderHost) {
			headers[h] = r.Host
			continue
		}
		headers[h] = r.Header.Get(h)
	}

	query, err := url.PathUnescape(r.URL.RawQuery)
	if err != nil {
		return authz, fmt.Errorf("%w: %w", ErrMalformedQuery, err)
	}

	canonical := CanonicalRequest(r.Method, r.URL.Path, query, headers, payloadHash)
	expected := Signature(
		StringToSign(r.Header.Get(HeaderAmzDate), authz.Scope, canonical),
		secret, authz.DateStamp(), authz.Region(), authz.Service(),
	)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(authz.Signature)) == 0 {
		return authz, ErrSignatureMismatch
	}
	return authz, nil
}

func checkBody(r *http.Request, payloadHash string) error {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		_ = r.Body.Close()
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if hashSHA256(body) != payloadHash {
		return ErrPayloadHashMismatch
	}
	return nil
}
