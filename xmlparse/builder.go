// Package xmlparse implements the XML tree builder (C8): straight tree
// construction driven by a namespace-scope stack, with none of htmlparse's
// insertion modes, adoption agency, or foster parenting.
package xmlparse

import (
	"log/slog"
	"strings"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/dpotapov/htmlkit/token"
)

// xmlNamespaceURI is the fixed URI the "xml" prefix always resolves to.
const xmlNamespaceURI = "http://www.w3.org/XML/1998/namespace"

// attrNSSlot is the internal per-element raw attribute holding the
// key -> resolved-namespace-URI map for this element's prefixed attributes.
const attrNSSlot = "\x00xmlattrns"

// scope maps a namespace prefix ("" for the default namespace) to the URI
// it resolves to for an element and its descendants.
type scope map[string]string

func (s scope) clone() scope {
	c := make(scope, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// defaultScope seeds the root scope: "xml" is always bound to the XML
// namespace, and so is the default (unprefixed) binding until a start tag's
// own xmlns attribute overrides it.
func defaultScope() scope {
	return scope{"xml": xmlNamespaceURI, "": xmlNamespaceURI}
}

// builder drives the namespace-scope-stack tree construction algorithm.
// stack holds the open elements (stack[0] outermost); scopes runs one
// longer than stack, with scopes[i] the namespace scope visible while
// stack[i-1] is current (scopes[0] is the pre-root scope).
type builder struct {
	tags   *tagset.TagSet
	tok    *token.Tokenizer
	doc    *dom.Node
	stack  []*dom.Node
	scopes []scope

	trackPosition bool
	errs          *[]ParseError

	logger *slog.Logger
}

func newBuilder(tags *tagset.TagSet, tok *token.Tokenizer, errs *[]ParseError) *builder {
	doc := dom.NewDocument()
	doc.OutputSettings.Syntax = dom.XMLSyntax
	return &builder{
		tags:   tags,
		tok:    tok,
		doc:    doc,
		scopes: []scope{defaultScope()},
		errs:   errs,
	}
}

func (b *builder) top() *dom.Node {
	if len(b.stack) == 0 {
		return b.doc
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) currentScope() scope {
	return b.scopes[len(b.scopes)-1]
}

func (b *builder) errorAt(pos int, msg string) {
	*b.errs = append(*b.errs, ParseError{Offset: pos, Message: msg})
}

// splitPrefix separates a qualified name "prefix:local" into its parts;
// local equals name when there's no prefix.
func splitPrefix(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func (b *builder) run() {
	for {
		t := b.tok.Next()
		if b.logger != nil {
			b.logger.Debug("xml token", "type", t.Type.String(), "depth", len(b.stack))
		}
		switch t.Type {
		case token.StartTagTok:
			b.startTag(t.StartTag)
		case token.EndTagTok:
			b.endTag(t.EndTag)
		case token.CharacterTok:
			b.character(t.Character)
		case token.CommentTok:
			b.comment(t.Comment)
		case token.DoctypeTok:
			b.doctype(t.Doctype)
		case token.XmlDeclTok:
			b.xmlDecl(t.XmlDecl)
		case token.ErrorTok:
			return
		}
	}
}

func (b *builder) startTag(st *token.StartTagType) {
	next := b.currentScope().clone()
	for _, a := range st.Attr {
		switch {
		case a.Key == "xmlns":
			next[""] = a.Val
		case strings.HasPrefix(a.Key, "xmlns:"):
			next[a.Key[len("xmlns:"):]] = a.Val
		}
	}

	prefix, local := splitPrefix(st.TagName)
	ns := next[prefix]
	tag := b.tags.ValueOf(local, local, tagset.Namespace(ns), true)
	el := dom.NewElement(tag, tagset.Namespace(ns))
	el.Name = st.TagName

	var attrNS map[string]string
	for _, a := range st.Attr {
		if a.Key == "xmlns" || strings.HasPrefix(a.Key, "xmlns:") {
			continue
		}
		el.SetAttr(a.Key, a.Val)
		if p, _ := splitPrefix(a.Key); p != "" {
			if uri, ok := next[p]; ok {
				if attrNS == nil {
					attrNS = make(map[string]string)
				}
				attrNS[a.Key] = uri
			}
		}
	}
	if attrNS != nil {
		el.Attributes().SetRaw(attrNSSlot, attrNS)
	}

	if b.trackPosition {
		el.Range = dom.Range{Start: dom.NewPosition(st.StartPos, 0, 0), End: dom.NewPosition(st.EndPos, 0, 0)}
	}

	b.top().AppendChild(el)

	if st.SelfClosing {
		if b.trackPosition {
			el.EndRange = el.Range
		}
		return
	}
	b.stack = append(b.stack, el)
	b.scopes = append(b.scopes, next)
}

// AttrNamespace returns the namespace URI resolved for a prefixed attribute
// key on el, or "" if the attribute has no prefix or wasn't resolved.
func AttrNamespace(el *dom.Node, key string) string {
	raw, ok := el.Attributes().GetRaw(attrNSSlot)
	if !ok {
		return ""
	}
	m, _ := raw.(map[string]string)
	return m[key]
}

func (b *builder) endTag(et *token.EndTagType) {
	idx := -1
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].Name == et.TagName {
			idx = i
			break
		}
	}
	if idx == -1 {
		b.errorAt(et.StartPos, "unmatched end tag: "+et.TagName)
		return
	}
	if b.trackPosition {
		b.stack[idx].EndRange = dom.Range{Start: dom.NewPosition(et.StartPos, 0, 0), End: dom.NewPosition(et.EndPos, 0, 0)}
	}
	b.stack = b.stack[:idx]
	b.scopes = b.scopes[:idx+1]
}

func (b *builder) character(c *token.CharacterType) {
	if c.IsCData {
		b.top().AppendChild(dom.NewCData(c.Data))
		return
	}
	b.top().AppendChild(dom.NewText(c.Data))
}

func (b *builder) comment(c *token.CommentType) {
	b.top().AppendChild(dom.NewComment(c.Data))
}

func (b *builder) doctype(d *token.Doctype) {
	b.top().AppendChild(dom.NewDoctype(d.Name, d.PublicID, d.SystemID))
}

func (b *builder) xmlDecl(x *token.XmlDeclType) {
	n := dom.NewXmlDecl(x.Name)
	for _, a := range x.Attr {
		n.SetAttr(a.Key, a.Val)
	}
	b.top().AppendChild(n)
}
