// Package dom implements the node tree (C5), attribute bag (C6), and
// position tracking (C10): Document/Element/leaf node storage, structural
// mutation, sibling-index caching, deep/shallow cloning, and a
// mutation-tolerant tree iterator.
package dom

import (
	"strings"

	"github.com/dpotapov/htmlkit/tagset"
)

// NodeType discriminates which concrete node kind Node represents.
type NodeType uint8

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CDataNode
	DataNode
	CommentNode
	DoctypeNode
	XmlDeclNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "#document"
	case ElementNode:
		return "#element"
	case TextNode:
		return "#text"
	case CDataNode:
		return "#cdata-section"
	case DataNode:
		return "#data"
	case CommentNode:
		return "#comment"
	case DoctypeNode:
		return "#doctype"
	case XmlDeclNode:
		return "#xml-declaration"
	default:
		return "#unknown"
	}
}

// QuirksMode is a Document's DOCTYPE-derived rendering mode.
type QuirksMode uint8

const (
	NoQuirks QuirksMode = iota
	Quirks
	LimitedQuirks
)

// Syntax selects HTML or XML output conventions.
type Syntax uint8

const (
	HTMLSyntax Syntax = iota
	XMLSyntax
)

// EscapeMode selects which named-entity set Serializer output escaping
// draws from.
type EscapeMode uint8

const (
	EscapeXHTML EscapeMode = iota
	EscapeBase
	EscapeExtended
)

// OutputSettings configures serialization for a Document.
type OutputSettings struct {
	Syntax          Syntax
	EscapeMode      EscapeMode
	Charset         string
	PrettyPrint     bool
	Outline         bool
	IndentAmount    int
	MaxPaddingWidth int
}

// DefaultOutputSettings matches jsoup/the common defaults: pretty HTML
// output, base entity escaping, UTF-8, one-space indent, padding capped
// at 30 columns.
func DefaultOutputSettings() *OutputSettings {
	return &OutputSettings{
		Syntax:          HTMLSyntax,
		EscapeMode:      EscapeBase,
		Charset:         "UTF-8",
		PrettyPrint:     true,
		IndentAmount:    1,
		MaxPaddingWidth: 30,
	}
}

// Node is the tagged-union tree node: every concrete variant the spec
// names (Document, Element, TextNode, CDataNode, DataNode, Comment,
// DocumentType, XmlDeclaration, FormElement, PseudoTextElement) is this
// same struct with Type (plus, for the Element-derived variants, IsForm /
// IsPseudoText) selecting which fields are meaningful — the same
// reusable-tagged-value shape token.Token uses for tokens, and the shape
// golang.org/x/net/html.Node uses for nodes.
type Node struct {
	Type      NodeType
	Name      string // tag name for Element; node name (e.g. "#text") otherwise
	Namespace tagset.Namespace
	Tag       *tagset.Tag // nil for non-Element nodes

	BaseURI string

	// Element-only.
	attrs *Attributes

	// LeafNode compression: leaf variants (Text/CData/Data/Comment/Doctype/
	// XmlDecl) store their one core value as a bare string until a second,
	// non-core attribute is set, at which point they inflate to attrs.
	coreValue string

	// FormElement: an Element (Name == "form") additionally tracking
	// submittable controls associated with it (weak references, pruned on
	// enumeration).
	IsForm    bool
	LinkedEls []*Node

	// PseudoTextElement: an Element standing in for a text node in
	// contexts that require Element semantics (jsoup's device for e.g.
	// textarea placeholder content).
	IsPseudoText bool

	// Document-only.
	OutputSettings *OutputSettings
	QuirksMode     QuirksMode
	Parser         any // opaque *htmlkit.Parser reference, to avoid an import cycle

	// Position tracking (C10).
	Range    Range
	EndRange Range

	parent   *Node
	children []*Node

	idx        int
	idxValid   bool
	childrenDirty bool
}

// NewDocument returns a fresh, empty #document root.
func NewDocument() *Node {
	return &Node{
		Type:           DocumentNode,
		Name:           "#root",
		OutputSettings: DefaultOutputSettings(),
	}
}

// NewElement returns a detached Element for tag within ns.
func NewElement(tag *tagset.Tag, ns tagset.Namespace) *Node {
	return &Node{Type: ElementNode, Name: tag.Name, Tag: tag, Namespace: ns, attrs: NewAttributes()}
}

// NewText returns a detached text node.
func NewText(data string) *Node { return &Node{Type: TextNode, Name: "#text", coreValue: data} }

// NewComment returns a detached comment node.
func NewComment(data string) *Node {
	return &Node{Type: CommentNode, Name: "#comment", coreValue: data}
}

// NewCData returns a detached CDATA section node.
func NewCData(data string) *Node {
	return &Node{Type: CDataNode, Name: "#cdata-section", coreValue: data}
}

// NewDoctype returns a detached DOCTYPE node. The name/publicId/systemId
// are packed into the core value as "name\x00public\x00system" — callers
// should use the Doctype accessor rather than reading coreValue directly.
func NewDoctype(name, publicID, systemID string) *Node {
	n := &Node{Type: DoctypeNode, Name: "#doctype"}
	n.SetDoctype(name, publicID, systemID)
	return n
}

// NewXmlDecl returns a detached XML declaration / processing-instruction
// node (e.g. the `<?xml version="1.0"?>` prolog, or a `<?xml-stylesheet?>`
// PI). Its attributes (version/encoding/standalone, or the PI's pseudo-attrs)
// are stored the same way an Element's are.
func NewXmlDecl(name string) *Node {
	return &Node{Type: XmlDeclNode, Name: name}
}

const doctypeSep = "\x01"

// SetDoctype packs the three DOCTYPE fields into the node's core value.
func (n *Node) SetDoctype(name, publicID, systemID string) {
	n.coreValue = name + doctypeSep + publicID + doctypeSep + systemID
}

// Doctype unpacks the DOCTYPE fields packed by SetDoctype.
func (n *Node) Doctype() (name, publicID, systemID string) {
	parts := strings.SplitN(n.coreValue, doctypeSep, 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// IsElement, IsText, IsLeaf are convenience predicates.
func (n *Node) IsElement() bool { return n.Type == ElementNode }
func (n *Node) IsText() bool    { return n.Type == TextNode }
func (n *Node) IsLeaf() bool    { return n.Type != ElementNode && n.Type != DocumentNode }

// NodeName returns the node's name (tag name for elements, "#text" etc
// otherwise).
func (n *Node) NodeName() string { return n.Name }

// CoreValue returns a leaf node's compressed value: the scalar if not yet
// inflated, or the attribute keyed by NodeName() once it has been.
func (n *Node) CoreValue() string {
	if n.attrs == nil {
		return n.coreValue
	}
	if v, ok := n.attrs.Get(n.Name); ok {
		return v
	}
	return ""
}

// SetCoreValue sets a leaf node's scalar value, as long as it hasn't
// inflated to a full Attributes bag yet (if it has, this sets the
// name-keyed attribute instead, keeping both views consistent).
func (n *Node) SetCoreValue(v string) {
	if n.attrs == nil {
		n.coreValue = v
		return
	}
	n.attrs.Set(n.Name, v)
}

// inflate promotes a leaf node's scalar core value into a full Attributes
// bag, copying the scalar under the node's own name as its first entry.
func (n *Node) inflate() *Attributes {
	if n.attrs == nil {
		n.attrs = NewAttributes()
		if n.coreValue != "" {
			n.attrs.Set(n.Name, n.coreValue)
		}
	}
	return n.attrs
}

// Attr returns the named attribute's value (empty string if absent).
func (n *Node) Attr(key string) string {
	if n.attrs == nil {
		return ""
	}
	v, _ := n.attrs.Get(key)
	return v
}

// HasAttr reports whether key is present.
func (n *Node) HasAttr(key string) bool {
	if n.attrs == nil {
		return false
	}
	return n.attrs.Has(key)
}

// SetAttr sets key to val, inflating a leaf node's compressed storage if
// this is the first non-core attribute.
func (n *Node) SetAttr(key, val string) { n.inflate().Set(key, val) }

// RemoveAttr deletes key if present.
func (n *Node) RemoveAttr(key string) {
	if n.attrs != nil {
		n.attrs.Remove(key)
	}
}

// Attributes exposes the node's attribute bag directly (inflating a leaf
// node on first access), for bulk iteration (serialization, cloning).
func (n *Node) Attributes() *Attributes { return n.inflate() }

// AbsURL resolves key's value against the node's BaseURI (walking up to
// the owning document if BaseURI is unset locally).
func (n *Node) AbsURL(key string) string {
	v := n.Attr(key)
	if v == "" {
		return ""
	}
	base := n.effectiveBaseURI()
	return resolveURL(base, v)
}

func (n *Node) effectiveBaseURI() string {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.BaseURI != "" {
			return cur.BaseURI
		}
	}
	return ""
}
