// Package htmlparse implements the HTML5 tree-construction algorithm (C7):
// the insertion-mode state machine, the stack of open elements, the active
// formatting elements list, the adoption agency algorithm, and foster
// parenting. It consumes token.Token values from a token.Tokenizer and
// builds a dom.Node tree, consulting a tagset.TagSet for element
// categorization along the way.
package htmlparse

import (
	"log/slog"
	"reflect"
	"runtime"
	"strings"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/dpotapov/htmlkit/token"
)

// insertionMode processes the current token and reports whether it was
// consumed (false means "reprocess this token in the mode now active",
// mirroring the teacher's bool-returning insertion-mode functions).
type insertionMode func(b *builder, t token.Token) bool

// afeEntry is one slot in the active formatting elements list: either a
// real element or a scope Marker (pushed at template/applet/marquee/
// object/caption/cell boundaries).
type afeEntry struct {
	node   *dom.Node
	marker bool
}

// builder holds all mutable tree-construction state for one HTML parse.
// It is the receiver for every insertion-mode function and algorithm in
// this package.
type builder struct {
	tags *tagset.TagSet
	tok  *token.Tokenizer

	doc  *dom.Node
	html *dom.Node
	head *dom.Node
	form *dom.Node

	oe  []*dom.Node // open elements stack, bottom to top
	afe []afeEntry  // active formatting elements list

	templateModes []insertionMode

	im         insertionMode
	originalIM insertionMode

	framesetOK      bool
	fosterParenting bool
	scriptingFlag   bool
	fragment        bool
	fragmentContext *dom.Node

	pendingTableChars    []string
	pendingTableNonSpace bool

	maxDepth int

	trackPosition bool

	errs *[]ParseError

	logger *slog.Logger
}

const defaultMaxDepth = 512

func newBuilder(tags *tagset.TagSet, tok *token.Tokenizer, errs *[]ParseError) *builder {
	doc := dom.NewDocument()
	b := &builder{
		tags:       tags,
		tok:        tok,
		doc:        doc,
		framesetOK: true,
		maxDepth:   defaultMaxDepth,
		errs:       errs,
	}
	b.im = initialIM
	return b
}

// imName returns the insertion-mode function's bare name (e.g. "inBodyIM")
// for debug tracing, trimming the package-qualified path reflect/runtime
// hand back.
func imName(fn insertionMode) string {
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// logModeSwitch traces an insertion-mode transition, if a non-discarding
// logger was configured via htmlkit.WithLogger.
func (b *builder) logModeSwitch(from insertionMode, t token.Token) {
	if b.logger == nil {
		return
	}
	b.logger.Debug("insertion mode", "from", imName(from), "to", imName(b.im), "token", t.Type.String())
}

func (b *builder) errorAt(msg string, pos int) {
	if b.errs == nil {
		return
	}
	*b.errs = append(*b.errs, ParseError{Message: msg, Offset: pos})
}

// top returns the innermost open element, or nil if the stack is empty.
func (b *builder) top() *dom.Node {
	if len(b.oe) == 0 {
		return nil
	}
	return b.oe[len(b.oe)-1]
}

// push appends n as the new top of the open-elements stack. If that would
// exceed maxDepth, the current deepest element (the previous top, not the
// document root) is force-popped first so the stack never grows past the
// cap.
func (b *builder) push(n *dom.Node) {
	if len(b.oe) >= b.maxDepth {
		forced := b.oe[len(b.oe)-1]
		b.oe = b.oe[:len(b.oe)-1]
		b.afeRemove(forced)
	}
	b.oe = append(b.oe, n)
}

func (b *builder) pop() *dom.Node {
	if len(b.oe) == 0 {
		return nil
	}
	n := b.oe[len(b.oe)-1]
	b.oe = b.oe[:len(b.oe)-1]
	return n
}

func (b *builder) popUntil(stop func(*dom.Node) bool) {
	for len(b.oe) > 0 {
		n := b.pop()
		if stop(n) {
			return
		}
	}
}

// popUntilName pops elements off the stack, including the first one whose
// name matches any of names.
func (b *builder) popUntilName(names ...string) {
	b.popUntil(func(n *dom.Node) bool {
		return containsName(names, n.Name)
	})
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (b *builder) indexOf(n *dom.Node) int {
	for i := len(b.oe) - 1; i >= 0; i-- {
		if b.oe[i] == n {
			return i
		}
	}
	return -1
}

func (b *builder) removeFromStack(n *dom.Node) {
	i := b.indexOf(n)
	if i == -1 {
		return
	}
	b.oe = append(b.oe[:i], b.oe[i+1:]...)
}

// --- active formatting elements ---

func (b *builder) afeIndex(n *dom.Node) int {
	for i := len(b.afe) - 1; i >= 0; i-- {
		if b.afe[i].node == n {
			return i
		}
	}
	return -1
}

func (b *builder) afeRemove(n *dom.Node) {
	i := b.afeIndex(n)
	if i == -1 {
		return
	}
	b.afe = append(b.afe[:i], b.afe[i+1:]...)
}

func (b *builder) afeInsert(i int, n *dom.Node) {
	b.afe = append(b.afe, afeEntry{})
	copy(b.afe[i+1:], b.afe[i:len(b.afe)-1])
	b.afe[i] = afeEntry{node: n}
}

func (b *builder) afePushMarker() {
	b.afe = append(b.afe, afeEntry{marker: true})
}

// clearActiveFormattingElements pops the list back to (and including) the
// last marker, used when a table/td/th/caption closes.
func (b *builder) clearActiveFormattingElements() {
	for len(b.afe) > 0 {
		e := b.afe[len(b.afe)-1]
		b.afe = b.afe[:len(b.afe)-1]
		if e.marker {
			return
		}
	}
}

// addFormattingElement appends n (already pushed onto the open-elements
// stack by addElement) to the active formatting list, applying the
// "Noah's Ark clause": if three
// elements with the same name/namespace/attributes already appear since
// the last marker, the earliest is dropped.
func (b *builder) addFormattingElement(n *dom.Node) {
	var matches []int
	for i := len(b.afe) - 1; i >= 0; i-- {
		e := b.afe[i]
		if e.marker {
			break
		}
		if sameFormattingElement(e.node, n) {
			matches = append(matches, i)
		}
	}
	if len(matches) >= 3 {
		b.afeRemove(b.afe[matches[len(matches)-1]].node)
	}
	b.afe = append(b.afe, afeEntry{node: n})
}

func sameFormattingElement(a, c *dom.Node) bool {
	if a.Name != c.Name || a.Namespace != c.Namespace {
		return false
	}
	if a.Attributes().Size() != c.Attributes().Size() {
		return false
	}
	match := true
	a.Attributes().Each(func(k, v string) {
		if cv, ok := c.Attributes().Get(k); !ok || cv != v {
			match = false
		}
	})
	return match
}

// reconstructActiveFormattingElements rebuilds inline wrapper elements that
// were implicitly closed by a block element, cloning each entry in the
// active formatting list since the last one that's still open and
// re-inserting/re-pushing it.
func (b *builder) reconstructActiveFormattingElements() {
	if len(b.afe) == 0 {
		return
	}
	last := b.afe[len(b.afe)-1]
	if last.marker || b.indexOf(last.node) != -1 {
		return
	}
	i := len(b.afe) - 1
	for i > 0 {
		i--
		e := b.afe[i]
		if e.marker || b.indexOf(e.node) != -1 {
			i++
			break
		}
	}
	for ; i < len(b.afe); i++ {
		e := b.afe[i]
		clone := e.node.ShallowClone()
		b.addChild(clone)
		b.push(clone)
		b.afe[i] = afeEntry{node: clone}
	}
}

// --- insertion (foster parenting, addChild/addText/addElement) ---

var fosterParentTags = map[string]bool{"table": true, "tbody": true, "tfoot": true, "thead": true, "tr": true}

func (b *builder) shouldFosterParent() bool {
	if !b.fosterParenting {
		return false
	}
	top := b.top()
	return top != nil && fosterParentTags[top.Name]
}

// fosterParent inserts n just before the nearest open <table>'s position,
// or appends it to the bottommost open element if no table is open.
func (b *builder) fosterParent(n *dom.Node) {
	var table *dom.Node
	for i := len(b.oe) - 1; i >= 0; i-- {
		if b.oe[i].Name == "table" {
			table = b.oe[i]
			break
		}
	}
	if table == nil || table.Parent() == nil {
		if len(b.oe) > 0 {
			b.oe[0].AppendChild(n)
		} else {
			b.doc.AppendChild(n)
		}
		return
	}
	table.Before(n)
}

func (b *builder) addChild(n *dom.Node) {
	if b.shouldFosterParent() && (n.IsElement() || n.IsText()) {
		b.fosterParent(n)
		return
	}
	if top := b.top(); top != nil {
		top.AppendChild(n)
	} else {
		b.doc.AppendChild(n)
	}
}

func (b *builder) addText(text string) {
	if text == "" {
		return
	}
	if b.shouldFosterParent() {
		b.fosterParent(dom.NewText(text))
		return
	}
	top := b.top()
	if top == nil {
		b.doc.AppendChild(dom.NewText(text))
		return
	}
	if last := top.LastChild(); last != nil && last.IsText() {
		last.SetCoreValue(last.CoreValue() + text)
		return
	}
	top.AppendChild(dom.NewText(text))
}

// addElement materializes an element from a start tag token, adds it as a
// child of the current insertion point, and pushes it onto the open
// elements stack.
func (b *builder) addElement(st *token.StartTagType, ns tagset.Namespace) *dom.Node {
	tag := b.tags.ValueOf(st.TagName, st.NormalName, ns, true)
	n := dom.NewElement(tag, ns)
	for _, a := range st.Attr {
		if !n.HasAttr(a.Key) {
			n.SetAttr(a.Key, a.Val)
		}
	}
	if b.trackPosition {
		n.Range = dom.Range{Start: dom.NewPosition(st.StartPos, 0, 0), End: dom.NewPosition(st.EndPos, 0, 0)}
	}
	// At the depth cap, force-pop the deepest element before inserting, so
	// n becomes its sibling rather than its child.
	if len(b.oe) >= b.maxDepth {
		b.afeRemove(b.pop())
	}
	b.addChild(n)
	b.push(n)
	return n
}

// --- scope tests ---

var defaultScopeStop = map[string]bool{
	"applet": true, "caption": true, "html": true, "table": true,
	"td": true, "th": true, "marquee": true, "object": true, "template": true,
}
var listItemScopeStop = union(defaultScopeStop, map[string]bool{"ol": true, "ul": true})
var buttonScopeStop = union(defaultScopeStop, map[string]bool{"button": true})
var tableScopeStop = map[string]bool{"html": true, "table": true, "template": true}

func union(a, b map[string]bool) map[string]bool {
	m := make(map[string]bool, len(a)+len(b))
	for k := range a {
		m[k] = true
	}
	for k := range b {
		m[k] = true
	}
	return m
}

func (b *builder) inSpecificScope(stop map[string]bool, names ...string) bool {
	for i := len(b.oe) - 1; i >= 0; i-- {
		n := b.oe[i]
		if n.Namespace == tagset.HTML && containsName(names, n.Name) {
			return true
		}
		if stop[n.Name] {
			return false
		}
	}
	return false
}

func (b *builder) inScope(names ...string) bool       { return b.inSpecificScope(defaultScopeStop, names...) }
func (b *builder) inListItemScope(names ...string) bool { return b.inSpecificScope(listItemScopeStop, names...) }
func (b *builder) inButtonScope(names ...string) bool { return b.inSpecificScope(buttonScopeStop, names...) }
func (b *builder) inTableScope(names ...string) bool  { return b.inSpecificScope(tableScopeStop, names...) }

// inSelectScope has select's own narrower rule: everything stops the scope
// except optgroup/option themselves.
func (b *builder) inSelectScope(names ...string) bool {
	for i := len(b.oe) - 1; i >= 0; i-- {
		n := b.oe[i]
		if containsName(names, n.Name) {
			return true
		}
		if n.Name != "optgroup" && n.Name != "option" {
			return false
		}
	}
	return false
}

// hasElementInScope reports whether n itself is on the open-elements
// stack, searching from the top, before a default-scope terminator is
// reached.
func (b *builder) hasElementInScope(n *dom.Node) bool {
	for i := len(b.oe) - 1; i >= 0; i-- {
		if b.oe[i] == n {
			return true
		}
		if defaultScopeStop[b.oe[i].Name] {
			return false
		}
	}
	return false
}

// generateImpliedEndTags pops dd/dt/li/optgroup/option/p/rb/rp/rt/rtc
// elements (skipping exceptFor) until the top is something else.
func (b *builder) generateImpliedEndTags(exceptFor string) {
	implied := map[string]bool{"dd": true, "dt": true, "li": true, "optgroup": true, "option": true, "p": true, "rb": true, "rp": true, "rt": true, "rtc": true}
	for {
		top := b.top()
		if top == nil || !implied[top.Name] || top.Name == exceptFor {
			return
		}
		b.pop()
	}
}

// generateImpliedEndTagsThoroughly additionally pops tbody/td/tfoot/th/
// thead/tr, used when closing a table cell/row.
func (b *builder) generateImpliedEndTagsThoroughly() {
	implied := map[string]bool{"dd": true, "dt": true, "li": true, "optgroup": true, "option": true, "p": true, "rb": true, "rp": true, "rt": true, "rtc": true, "tbody": true, "td": true, "tfoot": true, "th": true, "thead": true, "tr": true}
	for {
		top := b.top()
		if top == nil || !implied[top.Name] {
			return
		}
		b.pop()
	}
}

// specialTags is the WHATWG "special" element category, used by the
// adoption agency algorithm to find the furthest block.
var specialTags = map[string]bool{
	"address": true, "applet": true, "area": true, "article": true, "aside": true,
	"base": true, "basefont": true, "bgsound": true, "blockquote": true, "body": true,
	"br": true, "button": true, "caption": true, "center": true, "col": true,
	"colgroup": true, "dd": true, "details": true, "dir": true, "div": true, "dl": true,
	"dt": true, "embed": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "frame": true, "frameset": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"head": true, "header": true, "hgroup": true, "hr": true, "html": true,
	"iframe": true, "img": true, "input": true, "isindex": true, "li": true,
	"link": true, "listing": true, "main": true, "marquee": true, "menu": true,
	"meta": true, "nav": true, "noembed": true, "noframes": true, "noscript": true,
	"object": true, "ol": true, "p": true, "param": true, "plaintext": true,
	"pre": true, "script": true, "section": true, "select": true, "source": true,
	"style": true, "summary": true, "table": true, "tbody": true, "td": true,
	"template": true, "textarea": true, "tfoot": true, "th": true, "thead": true,
	"title": true, "tr": true, "track": true, "ul": true, "wbr": true, "xmp": true,
}

func isSpecialElement(n *dom.Node) bool {
	return n.Namespace == tagset.HTML && specialTags[n.Name]
}

func mathMLTextIntegrationPoint(n *dom.Node) bool {
	if n.Namespace != tagset.MathML {
		return false
	}
	switch n.Name {
	case "mi", "mo", "mn", "ms", "mtext":
		return true
	}
	return false
}

func htmlIntegrationPoint(n *dom.Node) bool {
	if n.Namespace == tagset.MathML && n.Name == "annotation-xml" {
		enc := n.Attr("encoding")
		return strings.EqualFold(enc, "text/html") || strings.EqualFold(enc, "application/xhtml+xml")
	}
	if n.Namespace == tagset.SVG {
		switch n.Name {
		case "foreignObject", "desc", "title":
			return true
		}
	}
	return false
}

// isInForeignContent decides, per 12.2.6, whether the upcoming token t
// should be dispatched to foreignContentIM rather than the current
// insertion mode: true unless the adjusted current node is HTML, a
// MathML/HTML integration point being entered by a start tag or text, or
// EOF.
func (b *builder) isInForeignContent(t token.Token) bool {
	n := b.top()
	if n == nil || n.Namespace == tagset.HTML {
		return false
	}
	if mathMLTextIntegrationPoint(n) {
		if t.Type == token.StartTagTok && t.StartTag.NormalName != "mglyph" && t.StartTag.NormalName != "malignmark" {
			return false
		}
		if t.Type == token.CharacterTok {
			return false
		}
	}
	if n.Namespace == tagset.MathML && n.Name == "annotation-xml" && t.Type == token.StartTagTok && t.StartTag.NormalName == "svg" {
		return false
	}
	if htmlIntegrationPoint(n) && (t.Type == token.StartTagTok || t.Type == token.CharacterTok) {
		return false
	}
	if t.Type == token.ErrorTok {
		return false
	}
	return true
}

// formattingTags are the elements the adoption agency applies to.
var formattingTags = map[string]bool{
	"a": true, "b": true, "big": true, "code": true, "em": true, "font": true,
	"i": true, "nobr": true, "s": true, "small": true, "strike": true,
	"strong": true, "tt": true, "u": true,
}

// adoptionAgency runs the adoption agency algorithm for an end tag named
// tagName, matching one of formattingTags. Grounded line-for-line on the
// teacher's inBodyEndTagFormatting, generalized to dom.Node/builder.
func (b *builder) adoptionAgency(tagName string) {
	if current := b.top(); current != nil && current.Name == tagName && b.afeIndex(current) == -1 {
		b.pop()
		return
	}

	for i := 0; i < 8; i++ {
		var formattingElement *dom.Node
		for j := len(b.afe) - 1; j >= 0; j-- {
			if b.afe[j].marker {
				break
			}
			if b.afe[j].node.Name == tagName {
				formattingElement = b.afe[j].node
				break
			}
		}
		if formattingElement == nil {
			b.inBodyEndTagOther(tagName)
			return
		}

		feIndex := b.indexOf(formattingElement)
		if feIndex == -1 {
			b.afeRemove(formattingElement)
			return
		}
		if !b.hasElementInScope(formattingElement) {
			return
		}

		var furthestBlock *dom.Node
		for _, e := range b.oe[feIndex:] {
			if isSpecialElement(e) {
				furthestBlock = e
				break
			}
		}
		if furthestBlock == nil {
			b.popUntil(func(n *dom.Node) bool { return n == formattingElement })
			b.afeRemove(formattingElement)
			return
		}

		var commonAncestor *dom.Node
		if feIndex > 0 {
			commonAncestor = b.oe[feIndex-1]
		} else {
			commonAncestor = b.doc
		}
		bookmark := b.afeIndex(formattingElement)

		lastNode := furthestBlock
		node := furthestBlock
		x := b.indexOf(node)
		j := 0
		for {
			j++
			x--
			if x < 0 {
				break
			}
			node = b.oe[x]
			if node == formattingElement {
				break
			}
			if ni := b.afeIndex(node); j > 3 && ni > -1 {
				b.afeRemove(node)
				if ni <= bookmark {
					bookmark--
				}
				continue
			}
			if b.afeIndex(node) == -1 {
				b.removeFromStack(node)
				continue
			}
			clone := node.ShallowClone()
			b.afe[b.afeIndex(node)] = afeEntry{node: clone}
			b.oe[b.indexOf(node)] = clone
			node = clone
			if lastNode == furthestBlock {
				bookmark = b.afeIndex(node) + 1
			}
			lastNode.Remove()
			node.AppendChild(lastNode)
			lastNode = node
		}

		lastNode.Remove()
		if commonAncestor != nil && fosterParentTags[commonAncestor.Name] {
			b.fosterParent(lastNode)
		} else if commonAncestor != nil {
			commonAncestor.AppendChild(lastNode)
		}

		clone := formattingElement.ShallowClone()
		for _, c := range append([]*dom.Node(nil), furthestBlock.Children()...) {
			c.Remove()
			clone.AppendChild(c)
		}
		furthestBlock.AppendChild(clone)

		if oldLoc := b.afeIndex(formattingElement); oldLoc != -1 && oldLoc < bookmark {
			bookmark--
		}
		b.afeRemove(formattingElement)
		if bookmark < 0 {
			bookmark = 0
		}
		if bookmark > len(b.afe) {
			bookmark = len(b.afe)
		}
		b.afeInsert(bookmark, clone)

		b.removeFromStack(formattingElement)
		b.insertIntoStack(b.indexOf(furthestBlock)+1, clone)
	}
}

// insertIntoStack inserts n into the open-elements stack at position i.
func (b *builder) insertIntoStack(i int, n *dom.Node) {
	b.oe = append(b.oe, nil)
	copy(b.oe[i+1:], b.oe[i:len(b.oe)-1])
	b.oe[i] = n
}

// inBodyEndTagOther is the "any other end tag" fallback: pop elements
// until one matching tagName is found (and popped), stopping early at a
// special element boundary.
func (b *builder) inBodyEndTagOther(tagName string) {
	b.errorAt("unexpected end tag "+tagName, 0)
	for i := len(b.oe) - 1; i >= 0; i-- {
		if b.oe[i].Name == tagName {
			b.oe = b.oe[:i]
			return
		}
		if isSpecialElement(b.oe[i]) {
			return
		}
	}
}

// resetInsertionMode walks the open-elements stack from the top (current
// node) down to the bottom to pick
// the insertion mode matching the current structural context (used after
// popping table/select/etc, or for fragment parses).
func (b *builder) resetInsertionMode() insertionMode {
	for i := len(b.oe) - 1; i >= 0; i-- {
		n := b.oe[i]
		last := i == 0
		if b.fragment && last {
			n = b.fragmentContext
		}
		switch n.Name {
		case "select":
			for j := i; j > 0; j-- {
				anc := b.oe[j-1]
				switch anc.Name {
				case "template":
					return inSelectIM
				case "table":
					return inSelectInTableIM
				}
			}
			return inSelectIM
		case "td", "th":
			if !last {
				return inCellIM
			}
		case "tr":
			return inRowIM
		case "tbody", "thead", "tfoot":
			return inTableBodyIM
		case "caption":
			return inCaptionIM
		case "colgroup":
			return inColumnGroupIM
		case "table":
			return inTableIM
		case "template":
			if len(b.templateModes) > 0 {
				return b.templateModes[len(b.templateModes)-1]
			}
			return inBodyIM
		case "head":
			if !last {
				return inHeadIM
			}
		case "body":
			return inBodyIM
		case "frameset":
			return inFramesetIM
		case "html":
			if b.head == nil {
				return beforeHeadIM
			}
			return afterHeadIM
		}
		if last {
			return inBodyIM
		}
	}
	return inBodyIM
}
