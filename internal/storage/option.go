package storage

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/s3eon/s3store/internal/template"
)

type URLStyle int

const (
	UrlStylePath URLStyle = iota
	UrlStyleVirtualHosted
)

// ParseURLStyle accepts "path" and "virtual". An empty string yields the
// virtual-hosted style.
func ParseURLStyle(s string) (URLStyle, error) {
	switch s {
	case "", "virtual":
		return UrlStyleVirtualHosted, nil
	case "path":
		return UrlStylePath, nil
	default:
		return 0, fmt.Errorf("unknown url style %q", s)
	}
}

const (
	DefaultHost     = "s3.amazonaws.com"
	DefaultTemplate = "/#file"
	DefaultScheme   = "https"
)

type options struct {
	host      string
	region    Region
	scheme    string
	urlStyle  URLStyle
	template  string
	masterKey string
	rootCAs   *x509.CertPool
	client    *http.Client
	// ownClient is set when client was built here rather than passed in.
	ownClient bool
	logger    *slog.Logger
	clock     template.Clock
	ids       template.IDGenerator
}

func newOptions(opts []OptFunc) (*options, error) {
	o := &options{
		host:     DefaultHost,
		region:   DefaultRegion,
		scheme:   DefaultScheme,
		urlStyle: UrlStyleVirtualHosted,
		template: DefaultTemplate,
		logger:   slog.Default(),
		clock:    template.SystemClock,
		ids:      template.UUIDGenerator,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if o.client == nil {
		o.ownClient = true
		o.client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					RootCAs: o.rootCAs,
				},
			},
		}
	}
	return o, nil
}

func (o *options) pathBuilder() (*template.PathBuilder, error) {
	return template.NewPathBuilder(o.template, template.WithClock(o.clock), template.WithIDGenerator(o.ids))
}

// endpoint is the scheme and host requests for bucket are sent to.
func (o *options) endpoint(bucket string) (scheme, host string) {
	if o.urlStyle == UrlStyleVirtualHosted {
		return o.scheme, bucket + "." + o.host
	}
	return o.scheme, o.host
}

type OptFunc func(*options) error

func WithHost(host string) OptFunc {
	return func(o *options) error {
		if host == "" {
			return fmt.Errorf("host must not be empty")
		}
		o.host = host
		return nil
	}
}

func WithRegion(region Region) OptFunc {
	return func(o *options) error {
		o.region = region
		return nil
	}
}

// WithScheme selects "http" or "https" for the endpoint.
func WithScheme(scheme string) OptFunc {
	return func(o *options) error {
		switch scheme {
		case "http", "https":
			o.scheme = scheme
			return nil
		default:
			return fmt.Errorf("unsupported scheme %q", scheme)
		}
	}
}

func WithURLStyle(style URLStyle) OptFunc {
	return func(o *options) error {
		o.urlStyle = style
		return nil
	}
}

func WithPathTemplate(tmpl string) OptFunc {
	return func(o *options) error {
		o.template = tmpl
		return nil
	}
}

// WithSSECMasterKey derives a per-object SSE-C key from masterKey for every
// request.
func WithSSECMasterKey(masterKey string) OptFunc {
	return func(o *options) error {
		o.masterKey = masterKey
		return nil
	}
}

func WithAdditionalCACert(caCert string) OptFunc {
	return func(o *options) (err error) {
		b, err := os.ReadFile(caCert)
		if err != nil {
			return fmt.Errorf("failed to read CA cert: %w", err)
		}
		o.rootCAs, err = x509.SystemCertPool()
		if err != nil {
			o.rootCAs = x509.NewCertPool()
		}
		o.rootCAs.AppendCertsFromPEM(b)
		return nil
	}
}

func WithHTTPClient(client *http.Client) OptFunc {
	return func(o *options) error {
		o.client = client
		return nil
	}
}

func WithLogger(logger *slog.Logger) OptFunc {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

func WithClock(clock template.Clock) OptFunc {
	return func(o *options) error {
		o.clock = clock
		return nil
	}
}

func WithIDGenerator(ids template.IDGenerator) OptFunc {
	return func(o *options) error {
		o.ids = ids
		return nil
	}
}
