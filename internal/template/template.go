// Package template compiles storage path templates such as
// "/#folder/#mimeFolder/#file" and renders them for a single upload.
package template

import (
	"errors"
	"fmt"
)

var ErrInvalidAlias = errors.New("invalid alias")

// InvalidAliasError is returned by Compile when a marker is not followed by a
// known alias. Text holds the template text from the marker up to, but not
// including, the first byte that could not be matched.
type InvalidAliasError struct {
	Text string
}

func (e *InvalidAliasError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidAlias, e.Text)
}

func (e *InvalidAliasError) Is(target error) bool {
	return target == ErrInvalidAlias
}

type PartKind int

const (
	PartLiteral PartKind = iota
	PartAlias
)

// Part is either a literal run of template bytes or an alias.
type Part struct {
	Kind    PartKind
	Literal string
	Alias   Alias
}

func LiteralPart(s string) Part {
	return Part{Kind: PartLiteral, Literal: s}
}

func AliasPart(a Alias) Part {
	return Part{Kind: PartAlias, Alias: a}
}

func (p Part) String() string {
	if p.Kind == PartAlias {
		return p.Alias.String()
	}
	return p.Literal
}

// Template is a compiled path template. It is immutable and may be rendered
// concurrently.
type Template struct {
	source string
	parts  []Part
}

// Compile compiles s against the default alias dictionary.
func Compile(s string) (*Template, error) {
	return DefaultDictionary().Compile(s)
}

// Compile scans s left to right and splits it into literal and alias parts.
func (d *Dictionary) Compile(s string) (*Template, error) {
	src := []byte(s)
	t := &Template{source: s}

	for pos := 0; pos < len(src); {
		part, next, err := d.extractPart(src, pos)
		if err != nil {
			return nil, err
		}
		t.parts = append(t.parts, part)
		pos = next
	}
	return t, nil
}

func (t *Template) String() string {
	return t.source
}

// Parts returns a copy of the compiled parts in render order.
func (t *Template) Parts() []Part {
	parts := make([]Part, len(t.parts))
	copy(parts, t.parts)
	return parts
}

func (d *Dictionary) extractPart(src []byte, pos int) (Part, int, error) {
	if src[pos] == Marker {
		return d.extractAlias(src, pos)
	}
	return extractLiteral(src, pos)
}

// extractAlias walks the trie from the marker at pos. A terminal node only
// ends the alias when the following byte cannot continue a longer one, so
// "#fileName" is never cut short at "#file". If the walk dead-ends after
// passing a terminal, the last terminal wins and scanning resumes after it.
func (d *Dictionary) extractAlias(src []byte, pos int) (Part, int, error) {
	var (
		last    Alias
		lastEnd int
	)

	cur, i := root, pos
	for i < len(src) {
		next, ok := d.child(cur, src[i])
		if !ok {
			break
		}
		cur = next
		i++

		v := d.nodes[cur].value
		if v == 0 {
			continue
		}
		if i < len(src) {
			if _, longer := d.child(cur, src[i]); longer {
				last, lastEnd = v, i
				continue
			}
		}
		return AliasPart(v), i, nil
	}

	if last != 0 {
		return AliasPart(last), lastEnd, nil
	}

	return Part{}, pos, &InvalidAliasError{Text: string(src[pos:max(i, pos+1)])}
}

func extractLiteral(src []byte, pos int) (Part, int, error) {
	end := pos
	for end < len(src) && src[end] != Marker {
		end++
	}
	return LiteralPart(string(src[pos:end])), end, nil
}
