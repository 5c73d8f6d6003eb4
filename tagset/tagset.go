// Package tagset holds the per-namespace table of Tag descriptors the
// tree builders (htmlparse, xmlparse) and serializer consult to decide
// how an element behaves: whether it's a block, void, RCDATA/RAWTEXT
// container, preserves whitespace, or participates in form submission.
package tagset

import (
	"sync"

	"golang.org/x/net/html/atom"
)

// Option is a bitset of the categorizations a Tag can carry.
type Option uint16

const (
	Known Option = 1 << iota
	Void
	Block
	InlineContainer
	SelfClose
	SeenSelfClose
	PreserveWhitespace
	RcData
	Data
	FormSubmittable
)

// Has reports whether all bits in mask are set in o.
func (o Option) Has(mask Option) bool { return o&mask == mask }

// Namespace identifies which element vocabulary a Tag belongs to.
type Namespace string

const (
	HTML  Namespace = ""
	MathML Namespace = "math"
	SVG   Namespace = "svg"
)

// Tag is the descriptor for one element type within a namespace.
type Tag struct {
	Name      string
	Namespace Namespace
	Options   Option

	// atomHint caches the golang.org/x/net/html/atom lookup for Name, a
	// fast path the teacher's fork leans on heavily in its own switch
	// statements over DataAtom. Zero (atom.Atom(0)) for custom tags.
	atomHint atom.Atom
}

func (t *Tag) clone() *Tag {
	c := *t
	return &c
}

func (t *Tag) Is(o Option) bool { return t.Options.Has(o) }

// key is the (namespace, name) map key.
type key struct {
	ns   Namespace
	name string
}

// TagSet maps (namespace, name) to a shared Tag record. Two elements that
// resolve to the same key via the same TagSet share the same *Tag.
type TagSet struct {
	mu   sync.Mutex
	tags map[key]*Tag

	onNewTag []func(*Tag)

	// source, if non-nil, is the TagSet this one derives from: get() falls
	// through to it (and clones what it finds) before creating a fresh
	// unknown Tag.
	source *TagSet
}

// New returns a TagSet seeded with the built-in HTML, MathML, and SVG
// tables.
func New() *TagSet {
	ts := &TagSet{tags: make(map[key]*Tag, len(builtinHTML)+len(builtinSVG)+len(builtinMathML))}
	seed(ts, HTML, builtinHTML)
	seed(ts, SVG, builtinSVG)
	seed(ts, MathML, builtinMathML)
	return ts
}

func seed(ts *TagSet, ns Namespace, table map[string]Option) {
	for name, opts := range table {
		t := &Tag{Name: name, Namespace: ns, Options: opts | Known, atomHint: atom.Lookup([]byte(name))}
		ts.tags[key{ns, name}] = t
	}
}

// Clone returns a derivative TagSet holding its own copy of every Tag in ts;
// a lookup that misses the copy falls through to ts (cloning what it finds)
// before materializing a new unknown Tag. Used by
// Parser.NewInstance to give each parse its own mutable copy without
// re-seeding the built-in tables from scratch.
func (ts *TagSet) Clone() *TagSet {
	c := &TagSet{tags: make(map[key]*Tag, len(ts.tags)), source: ts}
	ts.mu.Lock()
	for k, v := range ts.tags {
		c.tags[k] = v.clone()
	}
	ts.mu.Unlock()
	return c
}

// OnNewTag registers a callback invoked whenever Get/ValueOf materializes a
// brand-new Tag (not found in this set or its source chain), used to apply
// per-parse customization such as "all unknown tags self-close".
func (ts *TagSet) OnNewTag(fn func(*Tag)) {
	ts.mu.Lock()
	ts.onNewTag = append(ts.onNewTag, fn)
	ts.mu.Unlock()
}

// Get performs an exact lookup, falling through to a source TagSet
// (cloning what it finds) without creating anything new.
func (ts *TagSet) Get(name string, ns Namespace) *Tag {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.getLocked(name, ns)
}

func (ts *TagSet) getLocked(name string, ns Namespace) *Tag {
	if t, ok := ts.tags[key{ns, name}]; ok {
		return t
	}
	if ts.source != nil {
		if t := ts.source.Get(name, ns); t != nil {
			c := t.clone()
			ts.tags[key{ns, name}] = c
			return c
		}
	}
	return nil
}

// ValueOf is the lookup-or-insert interface: if name isn't known under ns,
// a new Tag is created (not marked Known) and onNewTag fires. When
// preserveCase is true and the match was found by normalName rather than
// name verbatim, the returned Tag is a clone with Name rewritten to the
// case-preserving variant (the shared original, and any other element
// still pointing at it, is untouched).
func (ts *TagSet) ValueOf(name, normalName string, ns Namespace, preserveCase bool) *Tag {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t := ts.getLocked(name, ns); t != nil {
		return t
	}
	if normalName != "" && normalName != name {
		if t := ts.getLocked(normalName, ns); t != nil {
			if !preserveCase {
				return t
			}
			c := t.clone()
			c.Name = name
			ts.tags[key{ns, name}] = c
			return c
		}
	}
	nm := name
	if !preserveCase {
		nm = normalName
		if nm == "" {
			nm = name
		}
	}
	t := &Tag{Name: nm, Namespace: ns, atomHint: atom.Lookup([]byte(normalName))}
	ts.tags[key{ns, nm}] = t
	for _, fn := range ts.onNewTag {
		fn(t)
	}
	return t
}
