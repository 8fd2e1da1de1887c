package template

import "sync"

// Marker introduces an alias inside a template string.
const Marker = '#'

type Alias int

const (
	AliasFile Alias = iota + 1
	AliasFileName
	AliasFileExtension
	AliasFolder
	AliasMime
	AliasMimeFolder
	AliasDay
	AliasMonth
	AliasYear
	AliasTimestamp
	AliasUUID
)

var spellings = []struct {
	alias    Alias
	spelling string
}{
	{AliasFile, "#file"},
	{AliasFileName, "#fileName"},
	{AliasFileExtension, "#fileExtension"},
	{AliasFolder, "#folder"},
	{AliasMime, "#mime"},
	{AliasMimeFolder, "#mimeFolder"},
	{AliasDay, "#day"},
	{AliasMonth, "#month"},
	{AliasYear, "#year"},
	{AliasTimestamp, "#timestamp"},
	{AliasUUID, "#uuid"},
}

// String returns the template spelling of the alias, e.g. "#fileName".
func (a Alias) String() string {
	for _, s := range spellings {
		if s.alias == a {
			return s.spelling
		}
	}
	return "#invalid"
}

const root int32 = 0

type node struct {
	key      byte
	value    Alias
	children []int32
}

// Dictionary is a byte trie over alias spellings. Nodes live in a single
// arena and refer to each other by index; once built it is never mutated and
// may be shared by concurrent compiles.
type Dictionary struct {
	nodes []node
}

var defaultDictionary = sync.OnceValue(func() *Dictionary {
	d := &Dictionary{nodes: []node{{}}}
	for _, s := range spellings {
		d.insert(s.spelling, s.alias)
	}
	return d
})

// DefaultDictionary returns the dictionary holding the full alias vocabulary.
func DefaultDictionary() *Dictionary {
	return defaultDictionary()
}

func (d *Dictionary) insert(spelling string, a Alias) {
	cur := root
	for i := 0; i < len(spelling); i++ {
		next, ok := d.child(cur, spelling[i])
		if !ok {
			next = d.addChild(cur, spelling[i])
		}
		cur = next
	}

	// first insert wins
	if d.nodes[cur].value == 0 {
		d.nodes[cur].value = a
	}
}

// addChild keeps the children of a node ordered by key.
func (d *Dictionary) addChild(parent int32, b byte) int32 {
	id := int32(len(d.nodes))
	d.nodes = append(d.nodes, node{key: b})

	children := d.nodes[parent].children
	at := len(children)
	for i, c := range children {
		if d.nodes[c].key > b {
			at = i
			break
		}
	}
	children = append(children, 0)
	copy(children[at+1:], children[at:])
	children[at] = id
	d.nodes[parent].children = children
	return id
}

func (d *Dictionary) child(parent int32, b byte) (int32, bool) {
	for _, c := range d.nodes[parent].children {
		k := d.nodes[c].key
		if k == b {
			return c, true
		}
		if k > b {
			break
		}
	}
	return 0, false
}

// Lookup reports the alias spelled exactly by s.
func (d *Dictionary) Lookup(s string) (Alias, bool) {
	cur := root
	for i := 0; i < len(s); i++ {
		next, ok := d.child(cur, s[i])
		if !ok {
			return 0, false
		}
		cur = next
	}
	v := d.nodes[cur].value
	return v, v != 0
}
