package template

import "fmt"

type PathBuilderOptFunc func(*PathBuilder) error

func WithClock(clock Clock) PathBuilderOptFunc {
	return func(b *PathBuilder) error {
		if clock == nil {
			return fmt.Errorf("clock must not be nil")
		}
		b.clock = clock
		return nil
	}
}

func WithIDGenerator(ids IDGenerator) PathBuilderOptFunc {
	return func(b *PathBuilder) error {
		if ids == nil {
			return fmt.Errorf("id generator must not be nil")
		}
		b.ids = ids
		return nil
	}
}

// PathBuilder compiles its template once and renders it for every upload.
type PathBuilder struct {
	template *Template
	clock    Clock
	ids      IDGenerator
}

func NewPathBuilder(template string, opts ...PathBuilderOptFunc) (*PathBuilder, error) {
	t, err := Compile(template)
	if err != nil {
		return nil, fmt.Errorf("failed to compile path template: %w", err)
	}

	b := &PathBuilder{
		template: t,
		clock:    SystemClock,
		ids:      UUIDGenerator,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return b, nil
}

func (b *PathBuilder) Build(attrs Attributes) (string, error) {
	return b.template.Render(attrs, b.clock, b.ids)
}

func (b *PathBuilder) Template() *Template {
	return b.template
}
