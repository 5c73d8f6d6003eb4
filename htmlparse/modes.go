package htmlparse

import (
	"reflect"
	"strings"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/dpotapov/htmlkit/token"
)

// modeIs compares insertion-mode function values by underlying code
// pointer: func values in Go aren't comparable with ==, so the table-like
// "is the current mode one of these" checks the tree-construction
// algorithm needs (e.g. picking InSelect vs InSelectInTable) go through
// this helper instead.
func modeIs(fn insertionMode, candidates ...insertionMode) bool {
	p := reflect.ValueOf(fn).Pointer()
	for _, c := range candidates {
		if reflect.ValueOf(c).Pointer() == p {
			return true
		}
	}
	return false
}

func isAllWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\f', '\r':
		default:
			return false
		}
	}
	return true
}

// splitLeadingWhitespace returns the leading run of ASCII whitespace and
// the remainder of s.
func splitLeadingWhitespace(s string) (ws, rest string) {
	i := 0
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\f', '\r':
			i++
			continue
		}
		break
	}
	return s[:i], s[i:]
}

// acknowledgeSelfClosingTag clears the tokenizer's pending self-closing
// flag for st. The tokenizer records no error for a flag left
// unacknowledged, so this does not change the collected errors.
func (b *builder) acknowledgeSelfClosingTag(st *token.StartTagType) {
	if st.SelfClosing {
		b.tok.AcknowledgeSelfClosing()
	}
}

// --- Initial ---

func initialIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		ws, rest := splitLeadingWhitespace(t.Character.Data)
		_ = ws
		if rest == "" {
			return true
		}
	case token.CommentTok:
		b.doc.AppendChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		d := t.Doctype
		n := dom.NewDoctype(d.Name, d.PublicID, d.SystemID)
		b.doc.AppendChild(n)
		if d.ForceQuirks || quirksFromDoctype(d) {
			b.doc.QuirksMode = dom.Quirks
		}
		b.im = beforeHtmlIM
		return true
	}
	b.im = beforeHtmlIM
	return false
}

func quirksFromDoctype(d *token.Doctype) bool {
	if !strings.EqualFold(d.Name, "html") {
		return true
	}
	return false
}

// --- BeforeHtml ---

func beforeHtmlIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.DoctypeTok:
		return true
	case token.CommentTok:
		b.doc.AppendChild(dom.NewComment(t.Comment.Data))
		return true
	case token.CharacterTok:
		ws, rest := splitLeadingWhitespace(t.Character.Data)
		_ = ws
		if rest == "" {
			return true
		}
	case token.StartTagTok:
		if t.StartTag.NormalName == "html" {
			n := b.addElement(t.StartTag, tagset.HTML)
			b.html = n
			b.im = beforeHeadIM
			return true
		}
	case token.EndTagTok:
		switch t.EndTag.NormalName {
		case "head", "body", "html", "br":
		default:
			return true
		}
	}
	n := dom.NewElement(b.tags.ValueOf("html", "html", tagset.HTML, false), tagset.HTML)
	b.doc.AppendChild(n)
	b.html = n
	b.push(n)
	b.im = beforeHeadIM
	return false
}

// --- BeforeHead ---

func beforeHeadIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		ws, rest := splitLeadingWhitespace(t.Character.Data)
		_ = ws
		if rest == "" {
			return true
		}
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		switch t.StartTag.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "head":
			n := b.addElement(t.StartTag, tagset.HTML)
			b.head = n
			b.im = inHeadIM
			return true
		}
	case token.EndTagTok:
		switch t.EndTag.NormalName {
		case "head", "body", "html", "br":
		default:
			return true
		}
	}
	n := b.addElement(syntheticStart("head"), tagset.HTML)
	b.head = n
	b.im = inHeadIM
	return false
}

// syntheticStart fabricates a bare StartTagType for implied-element
// insertion (e.g. an implied <head>/<html>/<tbody> with no source tag).
func syntheticStart(name string) *token.StartTagType {
	return &token.StartTagType{TagName: name, NormalName: name}
}

// --- InHead ---

func inHeadIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		ws, rest := splitLeadingWhitespace(t.Character.Data)
		if ws != "" {
			b.addText(ws)
		}
		if rest == "" {
			return true
		}
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		st := t.StartTag
		switch st.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "base", "basefont", "bgsound", "link", "meta":
			b.addElement(st, tagset.HTML)
			b.pop()
			b.acknowledgeSelfClosingTag(st)
			return true
		case "title":
			b.addElement(st, tagset.HTML)
			b.tok.SetContentModel(token.RCDataState, "title")
			b.originalIM = b.im
			b.im = textIM
			return true
		case "noscript":
			if !b.scriptingFlag {
				b.addElement(st, tagset.HTML)
				b.im = inHeadNoscriptIM
				return true
			}
			fallthrough
		case "noframes", "style":
			b.addElement(st, tagset.HTML)
			b.tok.SetContentModel(token.RawTextState, st.NormalName)
			b.originalIM = b.im
			b.im = textIM
			return true
		case "script":
			b.addElement(st, tagset.HTML)
			b.tok.SetContentModel(token.ScriptDataState, "script")
			b.originalIM = b.im
			b.im = textIM
			return true
		case "template":
			b.addElement(st, tagset.HTML)
			b.afePushMarker()
			b.framesetOK = false
			b.im = inTemplateIM
			b.templateModes = append(b.templateModes, inTemplateIM)
			return true
		case "head":
			return true
		}
	case token.EndTagTok:
		switch t.EndTag.NormalName {
		case "head":
			b.pop()
			b.im = afterHeadIM
			return true
		case "body", "html", "br":
		case "template":
			return endTemplate(b)
		default:
			return true
		}
	}
	b.pop()
	b.im = afterHeadIM
	return false
}

func endTemplate(b *builder) bool {
	if b.indexOfName("template") == -1 {
		return true
	}
	b.generateImpliedEndTagsThoroughly()
	b.popUntilName("template")
	b.clearActiveFormattingElements()
	if len(b.templateModes) > 0 {
		b.templateModes = b.templateModes[:len(b.templateModes)-1]
	}
	b.im = b.resetInsertionMode()
	return true
}

func (b *builder) indexOfName(name string) int {
	for i := len(b.oe) - 1; i >= 0; i-- {
		if b.oe[i].Name == name {
			return i
		}
	}
	return -1
}

// --- InHeadNoscript ---

func inHeadNoscriptIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		switch t.StartTag.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "basefont", "bgsound", "link", "meta", "noframes", "style":
			return inHeadIM(b, t)
		case "head", "noscript":
			return true
		}
	case token.EndTagTok:
		switch t.EndTag.NormalName {
		case "noscript":
			b.pop()
			b.im = inHeadIM
			return true
		case "br":
		default:
			return true
		}
	case token.CharacterTok:
		ws, rest := splitLeadingWhitespace(t.Character.Data)
		if rest == "" {
			if ws != "" {
				return inHeadIM(b, t)
			}
			return true
		}
	case token.CommentTok:
		return inHeadIM(b, t)
	}
	b.pop()
	b.im = inHeadIM
	return false
}

// --- AfterHead ---

func afterHeadIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		ws, rest := splitLeadingWhitespace(t.Character.Data)
		if ws != "" {
			b.addText(ws)
		}
		if rest == "" {
			return true
		}
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		st := t.StartTag
		switch st.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "body":
			b.addElement(st, tagset.HTML)
			b.framesetOK = false
			b.im = inBodyIM
			return true
		case "frameset":
			b.addElement(st, tagset.HTML)
			b.im = inFramesetIM
			return true
		case "base", "basefont", "bgsound", "link", "meta", "noframes", "script", "style", "template", "title":
			b.push(b.head)
			inHeadIM(b, t)
			b.removeFromStack(b.head)
			return true
		case "head":
			return true
		}
	case token.EndTagTok:
		switch t.EndTag.NormalName {
		case "template":
			return inHeadIM(b, t)
		case "body", "html", "br":
		default:
			return true
		}
	}
	n := b.addElement(syntheticStart("body"), tagset.HTML)
	_ = n
	b.framesetOK = true
	b.im = inBodyIM
	return false
}

// --- InBody ---

func inBodyIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		d := t.Character.Data
		if strings.ContainsRune(d, '\x00') {
			d = strings.ReplaceAll(d, "\x00", "")
		}
		if d == "" {
			return true
		}
		b.reconstructActiveFormattingElements()
		b.addText(d)
		if !isAllWhitespace(d) {
			b.framesetOK = false
		}
		return true
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		return inBodyStartTag(b, t.StartTag)
	case token.EndTagTok:
		return inBodyEndTag(b, t.EndTag)
	}
	// EOF: stop parsing (open templates would be an error, omitted).
	return true
}

func inBodyStartTag(b *builder, st *token.StartTagType) bool {
	switch st.NormalName {
	case "html":
		if b.html != nil {
			mergeAttrs(b.html, st)
		}
		return true
	case "base", "basefont", "bgsound", "link", "meta", "noframes", "script", "style", "template", "title":
		return inHeadIM(b, token.Token{Type: token.StartTagTok, StartTag: st})
	case "body":
		if len(b.oe) > 1 {
			if top := b.oe2(2); top != nil && top.Name == "body" {
				mergeAttrs(top, st)
				b.framesetOK = false
			}
		}
		return true
	case "frameset":
		return true
	case "address", "article", "aside", "blockquote", "center", "details", "dialog",
		"dir", "div", "dl", "fieldset", "figcaption", "figure", "footer", "header",
		"hgroup", "main", "menu", "nav", "ol", "p", "section", "summary", "ul":
		if b.inButtonScope("p") {
			b.closeP()
		}
		b.addElement(st, tagset.HTML)
		return true
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if b.inButtonScope("p") {
			b.closeP()
		}
		if top := b.top(); top != nil {
			switch top.Name {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				b.pop()
			}
		}
		b.addElement(st, tagset.HTML)
		return true
	case "pre", "listing":
		if b.inButtonScope("p") {
			b.closeP()
		}
		b.addElement(st, tagset.HTML)
		b.framesetOK = false
		return true
	case "form":
		if b.form != nil && b.indexOfName("template") == -1 {
			return true
		}
		if b.inButtonScope("p") {
			b.closeP()
		}
		n := b.addElement(st, tagset.HTML)
		if b.indexOfName("template") == -1 {
			b.form = n
		}
		return true
	case "li":
		b.framesetOK = false
		for i := len(b.oe) - 1; i >= 0; i-- {
			n := b.oe[i]
			if n.Name == "li" {
				b.generateImpliedEndTags("li")
				b.popUntilName("li")
				break
			}
			if isSpecialElement(n) && n.Name != "address" && n.Name != "div" && n.Name != "p" {
				break
			}
		}
		if b.inButtonScope("p") {
			b.closeP()
		}
		b.addElement(st, tagset.HTML)
		return true
	case "dd", "dt":
		b.framesetOK = false
		for i := len(b.oe) - 1; i >= 0; i-- {
			n := b.oe[i]
			if n.Name == "dd" || n.Name == "dt" {
				b.generateImpliedEndTags(n.Name)
				b.popUntilName(n.Name)
				break
			}
			if isSpecialElement(n) && n.Name != "address" && n.Name != "div" && n.Name != "p" {
				break
			}
		}
		if b.inButtonScope("p") {
			b.closeP()
		}
		b.addElement(st, tagset.HTML)
		return true
	case "plaintext":
		if b.inButtonScope("p") {
			b.closeP()
		}
		b.addElement(st, tagset.HTML)
		b.tok.SetPlaintext()
		return true
	case "button":
		if b.inScope("button") {
			b.generateImpliedEndTags("")
			b.popUntilName("button")
		}
		b.reconstructActiveFormattingElements()
		b.addElement(st, tagset.HTML)
		b.framesetOK = false
		return true
	case "a":
		for i := len(b.afe) - 1; i >= 0; i-- {
			if b.afe[i].marker {
				break
			}
			if b.afe[i].node.Name == "a" {
				a := b.afe[i].node
				b.adoptionAgency("a")
				b.afeRemove(a)
				b.removeFromStack(a)
				break
			}
		}
		b.reconstructActiveFormattingElements()
		n := b.addElement(st, tagset.HTML)
		b.addFormattingElement(n)
		return true
	case "b", "big", "code", "em", "font", "i", "s", "small", "strike", "strong", "tt", "u":
		b.reconstructActiveFormattingElements()
		n := b.addElement(st, tagset.HTML)
		b.addFormattingElement(n)
		return true
	case "nobr":
		b.reconstructActiveFormattingElements()
		if b.inScope("nobr") {
			b.adoptionAgency("nobr")
			b.reconstructActiveFormattingElements()
		}
		n := b.addElement(st, tagset.HTML)
		b.addFormattingElement(n)
		return true
	case "applet", "marquee", "object":
		b.reconstructActiveFormattingElements()
		b.addElement(st, tagset.HTML)
		b.afePushMarker()
		b.framesetOK = false
		return true
	case "table":
		if b.doc.QuirksMode != dom.Quirks && b.inButtonScope("p") {
			b.closeP()
		}
		b.addElement(st, tagset.HTML)
		b.framesetOK = false
		b.im = inTableIM
		return true
	case "area", "br", "embed", "img", "keygen", "wbr":
		b.reconstructActiveFormattingElements()
		b.addElement(st, tagset.HTML)
		b.pop()
		b.acknowledgeSelfClosingTag(st)
		b.framesetOK = false
		return true
	case "input":
		b.reconstructActiveFormattingElements()
		b.addElement(st, tagset.HTML)
		b.pop()
		b.acknowledgeSelfClosingTag(st)
		if !hasAttr(st, "type", "hidden") {
			b.framesetOK = false
		}
		return true
	case "param", "source", "track":
		b.addElement(st, tagset.HTML)
		b.pop()
		b.acknowledgeSelfClosingTag(st)
		return true
	case "hr":
		if b.inButtonScope("p") {
			b.closeP()
		}
		b.addElement(st, tagset.HTML)
		b.pop()
		b.acknowledgeSelfClosingTag(st)
		b.framesetOK = false
		return true
	case "image":
		st.TagName, st.NormalName = "img", "img"
		return inBodyStartTag(b, st)
	case "textarea":
		b.addElement(st, tagset.HTML)
		b.tok.SetContentModel(token.RCDataState, "textarea")
		b.framesetOK = false
		b.originalIM = b.im
		b.im = textIM
		return true
	case "xmp":
		if b.inButtonScope("p") {
			b.closeP()
		}
		b.reconstructActiveFormattingElements()
		b.framesetOK = false
		b.addElement(st, tagset.HTML)
		b.tok.SetContentModel(token.RawTextState, "xmp")
		b.originalIM = b.im
		b.im = textIM
		return true
	case "iframe":
		b.framesetOK = false
		b.addElement(st, tagset.HTML)
		b.tok.SetContentModel(token.RawTextState, "iframe")
		b.originalIM = b.im
		b.im = textIM
		return true
	case "noembed":
		b.addElement(st, tagset.HTML)
		b.tok.SetContentModel(token.RawTextState, "noembed")
		b.originalIM = b.im
		b.im = textIM
		return true
	case "select":
		b.reconstructActiveFormattingElements()
		b.addElement(st, tagset.HTML)
		b.framesetOK = false
		if modeIs(b.im, inTableIM, inCaptionIM, inTableBodyIM, inRowIM, inCellIM) {
			b.im = inSelectInTableIM
		} else {
			b.im = inSelectIM
		}
		return true
	case "optgroup", "option":
		if b.top() != nil && b.top().Name == "option" {
			b.pop()
		}
		b.reconstructActiveFormattingElements()
		b.addElement(st, tagset.HTML)
		return true
	case "rb", "rtc":
		if b.inScope("ruby") {
			b.generateImpliedEndTags("")
		}
		b.addElement(st, tagset.HTML)
		return true
	case "rp", "rt":
		if b.inScope("ruby") {
			b.generateImpliedEndTags("rtc")
		}
		b.addElement(st, tagset.HTML)
		return true
	case "math":
		b.reconstructActiveFormattingElements()
		n := b.addElement(st, tagset.MathML)
		n.Namespace = tagset.MathML
		b.tok.NextIsNotRawText()
		if st.SelfClosing {
			b.pop()
			b.acknowledgeSelfClosingTag(st)
		}
		return true
	case "svg":
		b.reconstructActiveFormattingElements()
		n := b.addElement(st, tagset.SVG)
		n.Namespace = tagset.SVG
		b.tok.NextIsNotRawText()
		if st.SelfClosing {
			b.pop()
			b.acknowledgeSelfClosingTag(st)
		}
		return true
	case "caption", "col", "colgroup", "frame", "head", "tbody", "td", "tfoot", "th", "thead", "tr":
		return true
	default:
		b.reconstructActiveFormattingElements()
		b.addElement(st, tagset.HTML)
		return true
	}
}

// oe2 returns the open-elements-stack entry at depth-from-bottom i
// (1-based, matching the teacher's p.oe[1] "second element" idiom for
// detecting a solitary <body>).
func (b *builder) oe2(i int) *dom.Node {
	if i-1 < 0 || i-1 >= len(b.oe) {
		return nil
	}
	return b.oe[i-1]
}

func (b *builder) closeP() {
	b.generateImpliedEndTags("p")
	b.popUntilName("p")
}

func mergeAttrs(n *dom.Node, st *token.StartTagType) {
	for _, a := range st.Attr {
		if !n.HasAttr(a.Key) {
			n.SetAttr(a.Key, a.Val)
		}
	}
}

func hasAttr(st *token.StartTagType, key, val string) bool {
	for _, a := range st.Attr {
		if a.Key == key {
			return strings.EqualFold(a.Val, val)
		}
	}
	return false
}

func inBodyEndTag(b *builder, et *token.EndTagType) bool {
	switch et.NormalName {
	case "template":
		return endTemplate(b)
	case "body":
		if b.inScope("body") {
			b.im = afterBodyIM
		}
		return true
	case "html":
		if b.inScope("body") {
			b.im = afterBodyIM
			return false
		}
		return true
	case "address", "article", "aside", "blockquote", "button", "center", "details",
		"dialog", "dir", "div", "dl", "fieldset", "figcaption", "figure", "footer",
		"header", "hgroup", "listing", "main", "menu", "nav", "ol", "pre", "section",
		"summary", "ul":
		if b.inScope(et.NormalName) {
			b.generateImpliedEndTags("")
			b.popUntilName(et.NormalName)
		} else {
			b.errorAt("unexpected end tag "+et.NormalName, et.StartPos)
		}
		return true
	case "form":
		if b.indexOfName("template") == -1 {
			form := b.form
			b.form = nil
			if form == nil || !b.hasElementInScope(form) {
				return true
			}
			b.generateImpliedEndTags("")
			b.removeFromStack(form)
			return true
		}
		if !b.inScope("form") {
			return true
		}
		b.generateImpliedEndTags("")
		b.popUntilName("form")
		return true
	case "p":
		if !b.inButtonScope("p") {
			b.addElement(syntheticStart("p"), tagset.HTML)
		}
		b.closeP()
		return true
	case "li":
		if b.inListItemScope("li") {
			b.generateImpliedEndTags("li")
			b.popUntilName("li")
		}
		return true
	case "dd", "dt":
		if b.inScope(et.NormalName) {
			b.generateImpliedEndTags(et.NormalName)
			b.popUntilName(et.NormalName)
		}
		return true
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if b.inScope("h1", "h2", "h3", "h4", "h5", "h6") {
			b.generateImpliedEndTags("")
			b.popUntilName("h1", "h2", "h3", "h4", "h5", "h6")
		}
		return true
	case "a", "b", "big", "code", "em", "font", "i", "nobr", "s", "small",
		"strike", "strong", "tt", "u":
		b.adoptionAgency(et.NormalName)
		return true
	case "applet", "marquee", "object":
		if b.inScope(et.NormalName) {
			b.generateImpliedEndTags("")
			b.popUntilName(et.NormalName)
			b.clearActiveFormattingElements()
		}
		return true
	case "br":
		b.reconstructActiveFormattingElements()
		b.addElement(syntheticStart("br"), tagset.HTML)
		b.pop()
		b.framesetOK = false
		return true
	default:
		b.inBodyEndTagOther(et.NormalName)
		return true
	}
}

// --- Text ---

func textIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.ErrorTok:
		b.pop()
	case token.CharacterTok:
		d := t.Character.Data
		if top := b.top(); top != nil && top.Name == "textarea" && top.FirstChild() == nil {
			if strings.HasPrefix(d, "\r") {
				d = d[1:]
			}
			if strings.HasPrefix(d, "\n") {
				d = d[1:]
			}
		}
		if d == "" {
			return true
		}
		b.addText(d)
		return true
	case token.EndTagTok:
		b.pop()
	}
	b.im = b.originalIM
	b.originalIM = nil
	return t.Type == token.EndTagTok
}

// --- Table family ---

func clearStackBackToTableContext(b *builder, names ...string) {
	for {
		top := b.top()
		if top == nil || containsName(names, top.Name) {
			return
		}
		b.pop()
	}
}

func inTableIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		b.pendingTableChars = nil
		b.pendingTableNonSpace = false
		b.originalIM = b.im
		b.im = inTableTextIM
		return false
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		st := t.StartTag
		switch st.NormalName {
		case "caption":
			clearStackBackToTableContext(b, "table", "template", "html")
			b.afePushMarker()
			b.addElement(st, tagset.HTML)
			b.im = inCaptionIM
			return true
		case "colgroup":
			clearStackBackToTableContext(b, "table", "template", "html")
			b.addElement(st, tagset.HTML)
			b.im = inColumnGroupIM
			return true
		case "col":
			clearStackBackToTableContext(b, "table", "template", "html")
			b.addElement(syntheticStart("colgroup"), tagset.HTML)
			b.im = inColumnGroupIM
			return false
		case "tbody", "tfoot", "thead":
			clearStackBackToTableContext(b, "table", "template", "html")
			b.addElement(st, tagset.HTML)
			b.im = inTableBodyIM
			return true
		case "td", "th", "tr":
			clearStackBackToTableContext(b, "table", "template", "html")
			b.addElement(syntheticStart("tbody"), tagset.HTML)
			b.im = inTableBodyIM
			return false
		case "table":
			if b.inTableScope("table") {
				b.popUntilName("table")
				b.im = b.resetInsertionMode()
				return false
			}
			return true
		case "style", "script", "template":
			return inHeadIM(b, t)
		case "input":
			if hasAttr(st, "type", "hidden") {
				b.addElement(st, tagset.HTML)
				b.pop()
				b.acknowledgeSelfClosingTag(st)
				return true
			}
		case "form":
			if b.form == nil && b.indexOfName("template") == -1 {
				n := b.addElement(st, tagset.HTML)
				b.form = n
				b.pop()
			}
			return true
		}
	case token.EndTagTok:
		et := t.EndTag
		switch et.NormalName {
		case "table":
			if b.inTableScope("table") {
				b.popUntilName("table")
				b.im = b.resetInsertionMode()
			}
			return true
		case "body", "caption", "col", "colgroup", "html", "tbody", "td", "tfoot", "th", "thead", "tr":
			return true
		case "template":
			return endTemplate(b)
		}
	}
	b.fosterParenting = true
	consumed := inBodyIM(b, t)
	b.fosterParenting = false
	return consumed
}

func inTableTextIM(b *builder, t token.Token) bool {
	if t.Type == token.CharacterTok {
		d := strings.ReplaceAll(t.Character.Data, "\x00", "")
		if d == "" {
			return true
		}
		b.pendingTableChars = append(b.pendingTableChars, d)
		if !isAllWhitespace(d) {
			b.pendingTableNonSpace = true
		}
		return true
	}
	text := strings.Join(b.pendingTableChars, "")
	if text != "" {
		if b.pendingTableNonSpace {
			b.fosterParenting = true
			b.addText(text)
			b.fosterParenting = false
		} else {
			b.addText(text)
		}
	}
	b.im = b.originalIM
	return false
}

func inCaptionIM(b *builder, t token.Token) bool {
	if t.Type == token.EndTagTok {
		switch t.EndTag.NormalName {
		case "caption":
			if b.inTableScope("caption") {
				b.generateImpliedEndTags("")
				b.popUntilName("caption")
				b.clearActiveFormattingElements()
				b.im = inTableIM
			}
			return true
		case "table":
			if b.inTableScope("caption") {
				b.popUntilName("caption")
				b.clearActiveFormattingElements()
				b.im = inTableIM
				return false
			}
			return true
		case "body", "col", "colgroup", "html", "tbody", "td", "tfoot", "th", "thead", "tr":
			return true
		}
	}
	if t.Type == token.StartTagTok {
		switch t.StartTag.NormalName {
		case "caption", "col", "colgroup", "tbody", "td", "tfoot", "th", "thead", "tr":
			if b.inTableScope("caption") {
				b.popUntilName("caption")
				b.clearActiveFormattingElements()
				b.im = inTableIM
				return false
			}
			return true
		}
	}
	return inBodyIM(b, t)
}

func inColumnGroupIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		ws, rest := splitLeadingWhitespace(t.Character.Data)
		if ws != "" {
			b.addText(ws)
		}
		if rest == "" {
			return true
		}
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		st := t.StartTag
		switch st.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "col":
			b.addElement(st, tagset.HTML)
			b.pop()
			b.acknowledgeSelfClosingTag(st)
			return true
		case "template":
			return inHeadIM(b, t)
		}
	case token.EndTagTok:
		switch t.EndTag.NormalName {
		case "colgroup":
			if b.top() != nil && b.top().Name == "colgroup" {
				b.pop()
				b.im = inTableIM
			}
			return true
		case "col":
			return true
		case "template":
			return endTemplate(b)
		}
	}
	if b.top() == nil || b.top().Name != "colgroup" {
		return true
	}
	b.pop()
	b.im = inTableIM
	return false
}

func inTableBodyIM(b *builder, t token.Token) bool {
	if t.Type == token.StartTagTok {
		st := t.StartTag
		switch st.NormalName {
		case "tr":
			clearStackBackToTableContext(b, "tbody", "tfoot", "thead", "template", "html")
			b.addElement(st, tagset.HTML)
			b.im = inRowIM
			return true
		case "th", "td":
			clearStackBackToTableContext(b, "tbody", "tfoot", "thead", "template", "html")
			b.addElement(syntheticStart("tr"), tagset.HTML)
			b.im = inRowIM
			return false
		case "caption", "col", "colgroup", "tbody", "tfoot", "thead":
			if b.inTableScope("tbody") || b.inTableScope("thead") || b.inTableScope("tfoot") {
				clearStackBackToTableContext(b, "tbody", "tfoot", "thead", "template", "html")
				b.pop()
				b.im = inTableIM
				return false
			}
			return true
		}
	}
	if t.Type == token.EndTagTok {
		switch t.EndTag.NormalName {
		case "tbody", "tfoot", "thead":
			if b.inTableScope(t.EndTag.NormalName) {
				clearStackBackToTableContext(b, "tbody", "tfoot", "thead", "template", "html")
				b.pop()
				b.im = inTableIM
			}
			return true
		case "table":
			if b.inTableScope("tbody") || b.inTableScope("thead") || b.inTableScope("tfoot") {
				clearStackBackToTableContext(b, "tbody", "tfoot", "thead", "template", "html")
				b.pop()
				b.im = inTableIM
				return false
			}
			return true
		case "body", "caption", "col", "colgroup", "html", "td", "th", "tr":
			return true
		}
	}
	return inTableIM(b, t)
}

func inRowIM(b *builder, t token.Token) bool {
	if t.Type == token.StartTagTok {
		st := t.StartTag
		switch st.NormalName {
		case "th", "td":
			clearStackBackToTableContext(b, "tr", "template", "html")
			b.addElement(st, tagset.HTML)
			b.im = inCellIM
			b.afePushMarker()
			return true
		case "caption", "col", "colgroup", "tbody", "tfoot", "thead", "tr":
			if b.inTableScope("tr") {
				clearStackBackToTableContext(b, "tr", "template", "html")
				b.pop()
				b.im = inTableBodyIM
				return false
			}
			return true
		}
	}
	if t.Type == token.EndTagTok {
		switch t.EndTag.NormalName {
		case "tr":
			if b.inTableScope("tr") {
				clearStackBackToTableContext(b, "tr", "template", "html")
				b.pop()
				b.im = inTableBodyIM
			}
			return true
		case "table":
			if b.inTableScope("tr") {
				clearStackBackToTableContext(b, "tr", "template", "html")
				b.pop()
				b.im = inTableBodyIM
				return false
			}
			return true
		case "tbody", "tfoot", "thead":
			if b.inTableScope(t.EndTag.NormalName) && b.inTableScope("tr") {
				clearStackBackToTableContext(b, "tr", "template", "html")
				b.pop()
				b.im = inTableBodyIM
				return false
			}
			return true
		case "body", "caption", "col", "colgroup", "html", "td", "th":
			return true
		}
	}
	return inTableIM(b, t)
}

func (b *builder) closeCell() {
	b.generateImpliedEndTags("")
	b.popUntil(func(n *dom.Node) bool { return n.Name == "td" || n.Name == "th" })
	b.clearActiveFormattingElements()
	b.im = inRowIM
}

func inCellIM(b *builder, t token.Token) bool {
	if t.Type == token.EndTagTok {
		switch t.EndTag.NormalName {
		case "td", "th":
			if b.inTableScope(t.EndTag.NormalName) {
				b.generateImpliedEndTags("")
				b.popUntilName(t.EndTag.NormalName)
				b.clearActiveFormattingElements()
				b.im = inRowIM
			}
			return true
		case "body", "caption", "col", "colgroup", "html":
			return true
		case "table", "tbody", "tfoot", "thead", "tr":
			if b.inTableScope(t.EndTag.NormalName) {
				b.closeCell()
				return false
			}
			return true
		}
	}
	if t.Type == token.StartTagTok {
		switch t.StartTag.NormalName {
		case "caption", "col", "colgroup", "tbody", "td", "tfoot", "th", "thead", "tr":
			if b.inTableScope("td") || b.inTableScope("th") {
				b.closeCell()
				return false
			}
			return true
		}
	}
	return inBodyIM(b, t)
}

// --- Select family ---

func inSelectIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		b.addText(strings.ReplaceAll(t.Character.Data, "\x00", ""))
		return true
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		st := t.StartTag
		switch st.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "option":
			if b.top() != nil && b.top().Name == "option" {
				b.pop()
			}
			b.addElement(st, tagset.HTML)
			return true
		case "optgroup":
			if b.top() != nil && b.top().Name == "option" {
				b.pop()
			}
			if b.top() != nil && b.top().Name == "optgroup" {
				b.pop()
			}
			b.addElement(st, tagset.HTML)
			return true
		case "select":
			if b.inSelectScope("select") {
				b.popUntilName("select")
				b.im = b.resetInsertionMode()
			}
			return true
		case "input", "keygen", "textarea":
			if b.inSelectScope("select") {
				b.popUntilName("select")
				b.im = b.resetInsertionMode()
				return false
			}
			return true
		case "script", "template":
			return inHeadIM(b, t)
		}
		return true
	case token.EndTagTok:
		switch t.EndTag.NormalName {
		case "optgroup":
			if len(b.oe) >= 2 && b.top().Name == "option" && b.oe[len(b.oe)-2].Name == "optgroup" {
				b.pop()
			}
			if b.top() != nil && b.top().Name == "optgroup" {
				b.pop()
			}
			return true
		case "option":
			if b.top() != nil && b.top().Name == "option" {
				b.pop()
			}
			return true
		case "select":
			if b.inSelectScope("select") {
				b.popUntilName("select")
				b.im = b.resetInsertionMode()
			}
			return true
		case "template":
			return endTemplate(b)
		}
		return true
	}
	return true
}

func inSelectInTableIM(b *builder, t token.Token) bool {
	names := []string{"caption", "table", "tbody", "tfoot", "thead", "tr", "td", "th"}
	if t.Type == token.StartTagTok && containsName(names, t.StartTag.NormalName) {
		b.popUntilName("select")
		b.im = b.resetInsertionMode()
		return false
	}
	if t.Type == token.EndTagTok && containsName(names, t.EndTag.NormalName) {
		if b.inTableScope(t.EndTag.NormalName) {
			b.popUntilName("select")
			b.im = b.resetInsertionMode()
			return false
		}
		return true
	}
	return inSelectIM(b, t)
}

// --- InTemplate ---

func inTemplateIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok, token.CommentTok, token.DoctypeTok:
		return inBodyIM(b, t)
	case token.StartTagTok:
		switch t.StartTag.NormalName {
		case "base", "basefont", "bgsound", "link", "meta", "noframes", "script",
			"style", "template", "title":
			return inHeadIM(b, t)
		case "caption", "colgroup", "tbody", "tfoot", "thead":
			b.popTemplateMode()
			b.templateModes = append(b.templateModes, inTableIM)
			b.im = inTableIM
			return false
		case "col":
			b.popTemplateMode()
			b.templateModes = append(b.templateModes, inColumnGroupIM)
			b.im = inColumnGroupIM
			return false
		case "tr":
			b.popTemplateMode()
			b.templateModes = append(b.templateModes, inTableBodyIM)
			b.im = inTableBodyIM
			return false
		case "td", "th":
			b.popTemplateMode()
			b.templateModes = append(b.templateModes, inRowIM)
			b.im = inRowIM
			return false
		}
		b.popTemplateMode()
		b.templateModes = append(b.templateModes, inBodyIM)
		b.im = inBodyIM
		return false
	case token.EndTagTok:
		if t.EndTag.NormalName == "template" {
			return endTemplate(b)
		}
		return true
	case token.ErrorTok:
		if b.indexOfName("template") == -1 {
			return true
		}
		b.generateImpliedEndTagsThoroughly()
		b.popUntilName("template")
		b.clearActiveFormattingElements()
		b.popTemplateMode()
		b.im = b.resetInsertionMode()
		return false
	}
	return true
}

func (b *builder) popTemplateMode() {
	if len(b.templateModes) > 0 {
		b.templateModes = b.templateModes[:len(b.templateModes)-1]
	}
}

// --- AfterBody / Frameset family ---

func afterBodyIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.ErrorTok:
		return true
	case token.CharacterTok:
		if isAllWhitespace(t.Character.Data) {
			return inBodyIM(b, t)
		}
	case token.StartTagTok:
		if t.StartTag.NormalName == "html" {
			return inBodyIM(b, t)
		}
	case token.EndTagTok:
		if t.EndTag.NormalName == "html" {
			b.im = afterAfterBodyIM
			return true
		}
	case token.CommentTok:
		if b.html != nil {
			b.html.AppendChild(dom.NewComment(t.Comment.Data))
		}
		return true
	}
	b.im = inBodyIM
	return false
}

func inFramesetIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		if isAllWhitespace(t.Character.Data) {
			b.addText(t.Character.Data)
		}
		return true
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		switch t.StartTag.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "frameset":
			b.addElement(t.StartTag, tagset.HTML)
			return true
		case "frame":
			b.addElement(t.StartTag, tagset.HTML)
			b.pop()
			b.acknowledgeSelfClosingTag(t.StartTag)
			return true
		case "noframes":
			return inHeadIM(b, t)
		}
	case token.EndTagTok:
		if t.EndTag.NormalName == "frameset" {
			if b.top() != nil && b.top().Name != "html" {
				b.pop()
			}
			if !b.fragment && (b.top() == nil || b.top().Name != "frameset") {
				b.im = afterFramesetIM
			}
			return true
		}
	case token.ErrorTok:
		return true
	}
	return true
}

func afterFramesetIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		if isAllWhitespace(t.Character.Data) {
			b.addText(t.Character.Data)
		}
		return true
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return true
	case token.StartTagTok:
		switch t.StartTag.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "noframes":
			return inHeadIM(b, t)
		}
	case token.EndTagTok:
		if t.EndTag.NormalName == "html" {
			b.im = afterAfterFramesetIM
			return true
		}
	case token.ErrorTok:
		return true
	}
	return true
}

func afterAfterBodyIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CommentTok:
		b.doc.AppendChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return inBodyIM(b, t)
	case token.CharacterTok:
		if isAllWhitespace(t.Character.Data) {
			return inBodyIM(b, t)
		}
	case token.StartTagTok:
		if t.StartTag.NormalName == "html" {
			return inBodyIM(b, t)
		}
	case token.ErrorTok:
		return true
	}
	b.im = inBodyIM
	return false
}

func afterAfterFramesetIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CommentTok:
		b.doc.AppendChild(dom.NewComment(t.Comment.Data))
		return true
	case token.DoctypeTok:
		return inBodyIM(b, t)
	case token.CharacterTok:
		if isAllWhitespace(t.Character.Data) {
			return inBodyIM(b, t)
		}
	case token.StartTagTok:
		switch t.StartTag.NormalName {
		case "html":
			return inBodyIM(b, t)
		case "noframes":
			return inHeadIM(b, t)
		}
	case token.ErrorTok:
		return true
	}
	return true
}

// --- Foreign content ---

// mathMLAttributeAdjustments / svgAttributeAdjustments / svgTagNameAdjustments
// are a representative subset of the HTML5 foreign-content case-fixup
// tables — the common SVG/MathML elements test documents exercise, not the
// exhaustive WHATWG lists.
var svgTagNameAdjustments = map[string]string{
	"foreignobject": "foreignObject",
	"clippath":      "clipPath",
	"lineargradient": "linearGradient",
	"radialgradient": "radialGradient",
	"textpath":      "textPath",
}

var svgAttributeAdjustments = map[string]string{
	"attributename":  "attributeName",
	"viewbox":        "viewBox",
	"patterntransform": "patternTransform",
}

var mathMLAttributeAdjustments = map[string]string{
	"definitionurl": "definitionURL",
}

func adjustForeignAttrs(st *token.StartTagType, ns tagset.Namespace) {
	table := mathMLAttributeAdjustments
	if ns == tagset.SVG {
		table = svgAttributeAdjustments
	}
	for i := range st.Attr {
		if fixed, ok := table[st.Attr[i].Key]; ok {
			st.Attr[i].Key = fixed
		}
	}
}

// foreignContentIM implements the "in foreign content" insertion-mode
// dispatch used while the current node is math/svg.
func foreignContentIM(b *builder, t token.Token) bool {
	switch t.Type {
	case token.CharacterTok:
		d := strings.ReplaceAll(t.Character.Data, "\x00", "�")
		b.addText(d)
		if !isAllWhitespace(d) {
			b.framesetOK = false
		}
		return true
	case token.CommentTok:
		b.addChild(dom.NewComment(t.Comment.Data))
		return true
	case token.StartTagTok:
		st := t.StartTag
		switch st.NormalName {
		case "b", "big", "blockquote", "body", "br", "center", "code", "dd", "div",
			"dl", "dt", "em", "embed", "h1", "h2", "h3", "h4", "h5", "h6", "head",
			"hr", "i", "img", "li", "listing", "menu", "meta", "nobr", "ol", "p",
			"pre", "ruby", "s", "small", "span", "strong", "strike", "sub", "sup",
			"table", "tt", "u", "ul", "var":
			for len(b.oe) > 0 && b.top().Namespace != tagset.HTML {
				b.pop()
			}
			b.im = b.resetInsertionMode()
			return false
		}
		current := b.top()
		ns := tagset.HTML
		if current != nil {
			ns = current.Namespace
		}
		adjustForeignAttrs(st, ns)
		if ns == tagset.SVG {
			if fixed, ok := svgTagNameAdjustments[st.TagName]; ok {
				st.TagName, st.NormalName = fixed, fixed
			}
		}
		b.addElement(st, ns)
		b.top().Namespace = ns
		if ns != tagset.HTML {
			b.tok.NextIsNotRawText()
		}
		if st.SelfClosing {
			b.pop()
			b.acknowledgeSelfClosingTag(st)
		}
		return true
	case token.EndTagTok:
		for i := len(b.oe) - 1; i >= 0; i-- {
			if b.oe[i].Namespace == tagset.HTML {
				return b.im(b, t)
			}
			if strings.EqualFold(b.oe[i].Name, t.EndTag.NormalName) {
				b.oe = b.oe[:i]
				return true
			}
		}
		return true
	}
	return true
}
