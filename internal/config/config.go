package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingStorageSection = errors.New("missing storage section")
	ErrMissingAccessKey      = errors.New("missing access key")
	ErrMissingSecretKey      = errors.New("missing secret key")
	ErrMissingBucket         = errors.New("missing bucket")
)

type File struct {
	Storage *Storage `yaml:"storage"`
}

// Storage configures the storage driver. Every value may reference
// ${env://NAME} or ${file://path}.
type Storage struct {
	Driver          Interpolated[string] `yaml:"driver"`
	Template        Interpolated[string] `yaml:"template"`
	AccessKey       Interpolated[string] `yaml:"accessKey"`
	SecretKey       Interpolated[string] `yaml:"secretKey"`
	Bucket          Interpolated[string] `yaml:"bucket"`
	Host            Interpolated[string] `yaml:"host"`
	Region          Interpolated[string] `yaml:"region"`
	CDNURL          Interpolated[string] `yaml:"cdnUrl"`
	EndpointScheme  Interpolated[string] `yaml:"endpointScheme"`
	URLStyle        Interpolated[string] `yaml:"urlStyle"`
	ACL             Interpolated[string] `yaml:"acl"`
	SSEMasterKey    Interpolated[string] `yaml:"sseMasterKey"`
	CAFile          Interpolated[string] `yaml:"caFile"`
	Policy          Interpolated[string] `yaml:"policy"`
	MetricsTextfile Interpolated[string] `yaml:"metricsTextfile"`
}

func Load(file string) (*Storage, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes the storage section of a YAML document, fills defaults and
// validates the result.
func Parse(b []byte) (*Storage, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if f.Storage == nil {
		return nil, ErrMissingStorageSection
	}

	f.Storage.SetDefaults()
	if err := f.Storage.Validate(); err != nil {
		return nil, err
	}
	return f.Storage, nil
}

func (s *Storage) SetDefaults() {
	setDefault(&s.Driver, "s3")
	setDefault(&s.Template, "/#file")
	setDefault(&s.Host, "s3.amazonaws.com")
	setDefault(&s.Region, "eu-west-1")
	setDefault(&s.EndpointScheme, "https")
	setDefault(&s.URLStyle, "virtual")
	setDefault(&s.ACL, "public-read")
}

func setDefault(v *Interpolated[string], def string) {
	if v.Value == "" {
		v.Value = def
	}
}

func (s *Storage) Validate() error {
	switch {
	case s.AccessKey.Value == "":
		return ErrMissingAccessKey
	case s.SecretKey.Value == "":
		return ErrMissingSecretKey
	case s.Bucket.Value == "":
		return ErrMissingBucket
	}
	return nil
}
