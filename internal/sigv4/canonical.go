package sigv4

import (
	"cmp"
	"slices"
	"strings"
)

const upperhex = "0123456789ABCDEF"

var (
	pathAllowed  = allowList("/")
	queryAllowed = allowList("=&~")
)

func allowList(extra string) (table [256]bool) {
	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		table[c] = true
	}
	for _, c := range []byte("-._~" + extra) {
		table[c] = true
	}
	return
}

func percentEncode(s string, allowed *[256]bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !allowed[s[i]] {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed[c] {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// EncodePath percent-encodes every byte of path outside the unreserved set
// and '/'.
func EncodePath(path string) string {
	return percentEncode(path, &pathAllowed)
}

// EncodeQuery percent-encodes every byte of query outside the unreserved set,
// '=', '&' and '~'.
func EncodeQuery(query string) string {
	return percentEncode(query, &queryAllowed)
}

type header struct {
	name  string
	lower string
	value string
}

func sortedHeaders(headers map[string]string) []header {
	hs := make([]header, 0, len(headers))
	for k, v := range headers {
		hs = append(hs, header{name: k, lower: strings.ToLower(k), value: v})
	}
	slices.SortFunc(hs, func(a, b header) int {
		return cmp.Or(strings.Compare(a.lower, b.lower), strings.Compare(a.name, b.name))
	})
	return hs
}

// CanonicalHeaders returns the "name:value" block and the ';' separated list
// of signed header names, both ordered by lower-cased name.
func CanonicalHeaders(headers map[string]string) (canonical, signed string) {
	hs := sortedHeaders(headers)

	var c, s strings.Builder
	for i, h := range hs {
		if i > 0 {
			c.WriteByte('\n')
			s.WriteByte(';')
		}
		c.WriteString(h.lower)
		c.WriteByte(':')
		c.WriteString(h.value)
		s.WriteString(h.lower)
	}
	return c.String(), s.String()
}

// CanonicalRequest builds the string whose hash is signed:
//
//	METHOD
//	PATH
//	QUERY
//	CANONICAL_HEADERS
//
//	SIGNED_HEADERS
//	PAYLOAD_HASH
func CanonicalRequest(method, path, query string, headers map[string]string, payloadHash string) string {
	canonical, signed := CanonicalHeaders(headers)
	return strings.Join([]string{
		method,
		EncodePath(path),
		EncodeQuery(query),
		canonical,
		"",
		signed,
		payloadHash,
	}, "\n")
}
