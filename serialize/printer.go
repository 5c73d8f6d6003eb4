package serialize

import (
	"bufio"
	"io"
	"strings"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/tagset"
)

// serializer walks a node tree once, accumulating bytes written and the
// first write error encountered (subsequent writes become no-ops, matching
// the teacher's "detach on first error" Writer discipline).
type serializer struct {
	w             *bufio.Writer
	n             int64
	err           error
	settings      *dom.OutputSettings
	preserveDepth int
}

func (s *serializer) writeString(str string) {
	if s.err != nil || str == "" {
		return
	}
	n, err := s.w.WriteString(str)
	s.n += int64(n)
	if err != nil {
		s.err = err
	}
}

// Serialize writes n (and its descendants) to w under settings, selecting
// the raw/pretty/outline printer per settings.PrettyPrint/Outline. A nil
// settings falls back to n's own OutputSettings (if n is a Document) or to
// dom.DefaultOutputSettings.
func Serialize(w io.Writer, n *dom.Node, settings *dom.OutputSettings) (int64, error) {
	if settings == nil {
		if n.Type == dom.DocumentNode && n.OutputSettings != nil {
			settings = n.OutputSettings
		} else {
			settings = dom.DefaultOutputSettings()
		}
	}
	bw := bufio.NewWriter(w)
	s := &serializer{w: bw, settings: settings}
	s.visit(n, 0)
	if s.err == nil {
		s.err = bw.Flush()
	}
	return s.n, s.err
}

// ToString is Serialize into a string, for callers that don't need
// streaming output (tests, small fragments).
func ToString(n *dom.Node, settings *dom.OutputSettings) (string, error) {
	var sb strings.Builder
	_, err := Serialize(&sb, n, settings)
	return sb.String(), err
}

func (s *serializer) visit(n *dom.Node, depth int) {
	switch n.Type {
	case dom.DocumentNode:
		for _, c := range n.Children() {
			s.visit(c, depth)
		}
	case dom.DoctypeNode:
		s.writeDoctype(n)
	case dom.XmlDeclNode:
		s.writeXmlDecl(n)
	case dom.CommentNode:
		s.maybeIndent(n, depth, true)
		s.writeString("<!--")
		s.writeString(n.CoreValue())
		s.writeString("-->")
	case dom.CDataNode:
		s.writeString("<![CDATA[")
		s.writeString(n.CoreValue())
		s.writeString("]]>")
	case dom.TextNode:
		s.writeText(n, depth)
	case dom.ElementNode:
		s.writeElement(n, depth)
	}
}

func isBlock(n *dom.Node) bool {
	return n != nil && n.Tag != nil && n.Tag.Is(tagset.Block)
}

func isInlineContainer(n *dom.Node) bool {
	return n != nil && n.Tag != nil && n.Tag.Is(tagset.InlineContainer)
}

func isVoid(n *dom.Node) bool {
	return n != nil && n.Tag != nil && (n.Tag.Is(tagset.Void) || n.Tag.Is(tagset.SelfClose))
}

func isPreserveWhitespace(n *dom.Node) bool {
	return n != nil && n.Tag != nil && n.Tag.Is(tagset.PreserveWhitespace)
}

// maybeIndent inserts a newline + indentation before n if pretty-printing
// is active, n isn't nested inside a preserve-whitespace ancestor, n reads
// as block-level content (or outline forces every node to), and the
// preceding sibling (if any) isn't non-blank inline text running into it.
func (s *serializer) maybeIndent(n *dom.Node, depth int, alwaysBlockLike bool) {
	if !s.settings.PrettyPrint || s.preserveDepth > 0 {
		return
	}
	block := s.settings.Outline || alwaysBlockLike || isBlock(n)
	if !block {
		return
	}
	prev := n.PreviousSibling()
	if prev == nil {
		if n.Parent() == nil || n.Parent().Type == dom.DocumentNode {
			return
		}
	}
	if prev != nil && prev.Type == dom.TextNode && strings.TrimSpace(prev.Text()) != "" && isInlineContainer(n.Parent()) {
		return
	}
	s.indent(depth)
}

func (s *serializer) indent(depth int) {
	s.writeString("\n")
	pad := depth * s.settings.IndentAmount
	if s.settings.MaxPaddingWidth >= 0 && pad > s.settings.MaxPaddingWidth {
		pad = s.settings.MaxPaddingWidth
	}
	if pad > 0 {
		s.writeString(strings.Repeat(" ", pad))
	}
}

func (s *serializer) writeElement(n *dom.Node, depth int) {
	block := s.settings.Outline || isBlock(n)
	preserve := isPreserveWhitespace(n)

	s.maybeIndent(n, depth, false)

	s.writeString("<")
	s.writeString(n.Name)
	n.Attributes().Each(func(key, val string) {
		s.writeString(" ")
		s.writeString(key)
		s.writeString(`="`)
		s.writeString(Escape(val, s.settings.EscapeMode, s.settings.Charset, ForAttribute))
		s.writeString(`"`)
	})

	if isVoid(n) {
		if s.settings.Syntax == dom.XMLSyntax {
			s.writeString(" />")
		} else {
			s.writeString(">")
		}
		return
	}
	s.writeString(">")

	if preserve {
		s.preserveDepth++
	}
	kids := n.Children()
	for _, c := range kids {
		s.visit(c, depth+1)
	}
	if preserve {
		s.preserveDepth--
	}

	if block && s.settings.PrettyPrint && s.preserveDepth == 0 && len(kids) > 0 {
		last := kids[len(kids)-1]
		if last.Type != dom.TextNode {
			s.indent(depth)
		}
	}
	s.writeString("</")
	s.writeString(n.Name)
	s.writeString(">")
}

func (s *serializer) writeText(n *dom.Node, depth int) {
	data := n.CoreValue()
	if s.preserveDepth > 0 || !s.settings.PrettyPrint {
		s.writeString(Escape(data, s.settings.EscapeMode, s.settings.Charset, ForText))
		return
	}

	trimLeading, trimTrailing := true, true
	parent := n.Parent()
	if parent != nil && isInlineContainer(parent) {
		prev := n.PreviousSibling()
		next := n.NextSibling()
		trimLeading = prev == nil || isBlock(prev)
		trimTrailing = next == nil || isBlock(next)
	}

	opts := ForText | Normalise
	if trimLeading {
		opts |= TrimLeading
	}
	if trimTrailing {
		opts |= TrimTrailing
	}
	out := Escape(data, s.settings.EscapeMode, s.settings.Charset, opts)
	if out == "" {
		return
	}
	if prev := n.PreviousSibling(); prev != nil && prev.Type == dom.ElementNode && isBlock(prev) {
		s.indent(depth)
	}
	s.writeString(out)
}

func (s *serializer) writeDoctype(n *dom.Node) {
	name, pub, sys := n.Doctype()
	s.writeString("<!doctype ")
	s.writeString(name)
	switch {
	case pub != "":
		s.writeString(` PUBLIC "`)
		s.writeString(pub)
		s.writeString(`"`)
		if sys != "" {
			s.writeString(` "`)
			s.writeString(sys)
			s.writeString(`"`)
		}
	case sys != "":
		s.writeString(` SYSTEM "`)
		s.writeString(sys)
		s.writeString(`"`)
	}
	s.writeString(">")
	if s.settings.PrettyPrint {
		s.writeString("\n")
	}
}

func (s *serializer) writeXmlDecl(n *dom.Node) {
	s.writeString("<?")
	s.writeString(n.Name)
	n.Attributes().Each(func(key, val string) {
		s.writeString(" ")
		s.writeString(key)
		s.writeString(`="`)
		s.writeString(val)
		s.writeString(`"`)
	})
	s.writeString("?>")
	if s.settings.PrettyPrint {
		s.writeString("\n")
	}
}
