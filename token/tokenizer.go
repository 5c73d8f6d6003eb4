package token

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dpotapov/htmlkit/reader"
)

// ContentModel selects which of the tokenizer's data-level states governs
// how the next run of character data is read. A tree builder switches this
// right after opening an element whose tag descriptor calls for it (RCDATA,
// RAWTEXT, script data, or PLAINTEXT); the tokenizer itself never looks at
// tag descriptors.
type ContentModel int

const (
	DataState ContentModel = iota
	RCDataState
	RawTextState
	ScriptDataState
	PlaintextState
	CDataSectionState
)

// ParseError is a single non-fatal tokenizer or tree-construction error,
// carrying an offset and, if line tracking is enabled, a (line, column)
// cursor.
type ParseError struct {
	Offset  int
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

// IoError wraps an I/O fault surfaced while tokenizing. It is the only
// error kind that aborts a parse outright.
type IoError struct{ Err error }

func (e *IoError) Error() string { return fmt.Sprintf("token: io failure: %v", e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// scriptEscape tracks the script-data escape bookkeeping states (section
// 12.2.5.16-12.2.5.25 of the WHATWG spec): whether we're inside a
// "<!--...-->" escape within script data, and if double-escaped (nested
// "<script>" inside the escape).
type scriptEscape int

const (
	scriptNotEscaped scriptEscape = iota
	scriptEscaped
	scriptDoubleEscaped
)

// Tokenizer converts a character stream into a stream of reusable Tokens.
// It implements the WHATWG HTML5 tokenization state machine (grouped here
// into data-level, tag-construct, markup-declaration, and script-escape
// handling, rather than ~75 separate named functions, the same grouping
// golang.org/x/net/html uses) plus a parallel XML mode for markup
// declarations and processing instructions.
type Tokenizer struct {
	r      *reader.Reader
	xml    bool
	err    error
	errs   []ParseError
	maxErr int // 0 = unbounded is NOT the convention; see trackErrors below
	trackErrors bool

	contentModel  ContentModel
	rawEndTag     string // expected end tag name to leave RCData/RawText/ScriptData
	scriptEscape  scriptEscape
	notRawTextNext bool // set by NextIsNotRawText, cleared at the next start tag

	allowCData bool

	trackPos     bool
	trackAttrPos bool

	charStartPos   int
	markupStartPos int

	preserveTagCase, preserveAttrCase bool

	pendingSelfClosingAck bool

	logger *slog.Logger

	// Reusable token slots (spec §3/§4.2: one per concrete variant).
	doctype   Doctype
	startTag  StartTagType
	endTag    EndTagType
	comment   CommentType
	character CharacterType
	xmlDecl   XmlDeclType
}

// NewTokenizer creates a Tokenizer reading from r. xml selects HTML vs XML
// tokenization rules (spec §4.2 "XML vs HTML entry").
func NewTokenizer(r *reader.Reader, xml bool) *Tokenizer {
	return &Tokenizer{r: r, xml: xml, trackErrors: true, maxErr: 1000}
}

// SetTrackErrors bounds how many ParseErrors are retained; 0 disables
// tracking entirely (spec §6 "trackErrors (maxCount)").
func (t *Tokenizer) SetTrackErrors(maxCount int) {
	t.trackErrors = maxCount != 0
	t.maxErr = maxCount
}

// SetTrackPosition turns on line tracking in the reader when nodes is true,
// so ParseErrors carry a line and column (spec §6 "trackPosition"). Token
// and attribute offsets are recorded either way; attrs is stored but not
// otherwise read.
func (t *Tokenizer) SetTrackPosition(nodes, attrs bool) {
	t.trackPos = nodes
	t.trackAttrPos = attrs
	if nodes {
		t.r.EnableLineTracking()
	}
}

// SetPreserveCase controls whether tag/attribute names keep their input
// case verbatim (NormalName is always the lower-cased form regardless).
func (t *Tokenizer) SetPreserveCase(tag, attr bool) {
	t.preserveTagCase = tag
	t.preserveAttrCase = attr
}

// SetLogger installs a logger for debug-level content-model transition
// tracing (spec §6's optional operational logging knob). A nil logger
// disables tracing.
func (t *Tokenizer) SetLogger(l *slog.Logger) {
	t.logger = l
}

// Errors returns the collected parse errors.
func (t *Tokenizer) Errors() []ParseError { return t.errs }

// Err returns the terminal I/O error, if parsing stopped because of one.
func (t *Tokenizer) Err() error {
	if t.err == io.EOF {
		return nil
	}
	return t.err
}

func (t *Tokenizer) errorf(format string, args ...any) {
	if !t.trackErrors {
		return
	}
	if t.maxErr > 0 && len(t.errs) >= t.maxErr {
		return
	}
	pe := ParseError{Offset: t.r.Pos(), Message: fmt.Sprintf(format, args...)}
	if t.trackPos {
		pe.Line = t.r.LineNumber(pe.Offset)
		pe.Column = t.r.ColumnNumber(pe.Offset)
	}
	t.errs = append(t.errs, pe)
}

// SetContentModel is called by a tree builder immediately after it opens an
// element whose tag descriptor calls for non-Data content (RCDATA, RAWTEXT,
// script data, or CDATA section in foreign content). endTag is the name the
// tokenizer watches for to return to DataState.
func (t *Tokenizer) SetContentModel(m ContentModel, endTag string) {
	if t.logger != nil && m != t.contentModel {
		t.logger.Debug("content model", "from", t.contentModel, "to", m, "endTag", endTag)
	}
	t.contentModel = m
	t.rawEndTag = strings.ToLower(endTag)
	t.scriptEscape = scriptNotEscaped
}

// SetPlaintext switches to PLAINTEXT, which never returns to DataState for
// the remainder of the document (there is no closing delimiter).
func (t *Tokenizer) SetPlaintext() { t.contentModel = PlaintextState }

// AllowCData enables or disables recognizing "<![CDATA[" as a CDATA section
// opener; legal only inside foreign content in HTML mode, always in XML.
func (t *Tokenizer) AllowCData(ok bool) { t.allowCData = ok }

// NextIsNotRawText sets a one-shot flag that the tokenizer clears when it
// reads the next start tag. Nothing else reads the flag: SetContentModel
// switches content models regardless of it.
func (t *Tokenizer) NextIsNotRawText() { t.notRawTextNext = true }

// AcknowledgeSelfClosing clears the pending self-closing flag set when a
// start tag ends in "/>" (spec §4.2 acknowledgeSelfClosingTag). The
// tokenizer records no parse error for a flag left unacknowledged.
func (t *Tokenizer) AcknowledgeSelfClosing() { t.pendingSelfClosingAck = false }

// whitespace mirrors the HTML5 definition of ASCII whitespace.
const whitespace = " \t\n\f\r"

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// Next reads and returns the next token. A Token with Type == ErrorTok
// signals EOF or an I/O fault; call Err to distinguish them (nil means
// clean EOF).
func (t *Tokenizer) Next() Token {
	if t.err != nil {
		return Token{Type: ErrorTok}
	}
	switch t.contentModel {
	case RawTextState, ScriptDataState:
		return t.nextRawOrScript()
	case RCDataState:
		return t.nextRCData()
	case PlaintextState:
		return t.nextPlaintext()
	case CDataSectionState:
		return t.nextCDataSection()
	default:
		return t.nextData()
	}
}

func (t *Tokenizer) emitCharacter(tok *Token) bool {
	if t.character.Data == "" {
		return false
	}
	t.character.EndPos = t.r.Pos()
	tok.Type = CharacterTok
	tok.Character = &t.character
	return true
}

func (t *Tokenizer) resetCharacter() {
	t.character.reset()
	t.character.StartPos = t.r.Pos()
}

// nextData implements the Data state (and, in XML mode, its general-text
// analogue): plain text up to the next '<' or, in HTML, '&'.
func (t *Tokenizer) nextData() Token {
	t.resetCharacter()
	for {
		if t.r.Exhausted() {
			t.err = io.EOF
			var tok Token
			if t.emitCharacter(&tok) {
				return tok
			}
			return Token{Type: ErrorTok}
		}
		if t.r.Matches('<') {
			var tok Token
			if t.emitCharacter(&tok) {
				return tok
			}
			if got, ok := t.readMarkup(); ok {
				return got
			}
			// readMarkup decided '<' was ordinary text (e.g. "< " in
			// HTML); fall through and keep accumulating character data.
			t.character.Append("<")
			t.r.Advance()
			continue
		}
		if !t.xml && t.r.Matches('&') {
			t.r.Advance()
			t.character.Append(t.resolveCharRef(false))
			continue
		}
		chunk := t.r.ConsumeMatching(func(b byte) bool {
			if b == '<' {
				return false
			}
			if !t.xml && b == '&' {
				return false
			}
			return true
		}, 0)
		t.character.Append(chunk)
	}
}

// nextRCData implements RCDATA: entities are resolved, but markup other
// than the matching end tag is not recognized.
func (t *Tokenizer) nextRCData() Token {
	return t.nextRawTextLike(true)
}

// nextRawOrScript implements RAWTEXT and (simplified) script data: no
// entity resolution, markup is not recognized except the end tag, and for
// script data, the "<!--" escape/double-escape bookkeeping.
func (t *Tokenizer) nextRawOrScript() Token {
	if t.contentModel == ScriptDataState {
		return t.nextScriptData()
	}
	return t.nextRawTextLike(false)
}

func (t *Tokenizer) nextRawTextLike(resolveEntities bool) Token {
	t.resetCharacter()
	for {
		if t.r.Exhausted() {
			t.err = io.EOF
			var tok Token
			if t.emitCharacter(&tok) {
				return tok
			}
			return Token{Type: ErrorTok}
		}
		if t.r.Matches('<') && t.matchesEndTag() {
			var tok Token
			if t.emitCharacter(&tok) {
				return tok
			}
			return t.readEndTagAndReturnToData()
		}
		if resolveEntities && t.r.Matches('&') {
			t.r.Advance()
			t.character.Append(t.resolveCharRef(false))
			continue
		}
		chunk := t.r.ConsumeMatching(func(b byte) bool {
			if b == '<' {
				return false
			}
			if resolveEntities && b == '&' {
				return false
			}
			return true
		}, 0)
		if chunk == "" {
			// Matches('<') was true but matchesEndTag() was false: this
			// '<' is ordinary raw text.
			t.character.Append("<")
			t.r.Advance()
			continue
		}
		t.character.Append(chunk)
	}
}

// matchesEndTag peeks (without consuming) whether the reader is positioned
// at "</" + rawEndTag, case-insensitively, followed by a tag-name
// terminator (so "</scripty" doesn't falsely match "</script").
func (t *Tokenizer) matchesEndTag() bool {
	if t.rawEndTag == "" {
		return false
	}
	prefix := "</" + t.rawEndTag
	t.r.Mark()
	defer t.r.RewindToMark()
	if !t.r.MatchConsumeIgnoreCase(prefix) {
		return false
	}
	c, ok := t.r.Current()
	if !ok {
		return true // EOF right after the name also terminates it
	}
	return isSpace(c) || c == '>' || c == '/'
}

func (t *Tokenizer) nextPlaintext() Token {
	t.resetCharacter()
	if t.r.Exhausted() {
		t.err = io.EOF
		return Token{Type: ErrorTok}
	}
	t.character.Append(t.r.ConsumeToEnd())
	var tok Token
	t.emitCharacter(&tok)
	if tok.Type == ErrorTok {
		t.err = io.EOF
	}
	return tok
}

func (t *Tokenizer) nextCDataSection() Token {
	t.resetCharacter()
	t.character.IsCData = true
	s, found := t.r.ConsumeToString("]]>")
	t.character.Append(s)
	if found {
		t.r.Advance()
		t.r.Advance()
		t.r.Advance()
		t.contentModel = DataState
	} else {
		t.err = io.EOF
		t.errorf("unterminated CDATA section")
	}
	var tok Token
	if t.emitCharacter(&tok) {
		return tok
	}
	if !found {
		return Token{Type: ErrorTok}
	}
	return t.Next()
}

// script data escape state machine (simplified per-token, section
// 12.2.5.16 onward): tracked as a flag rather than as separate Go states,
// following the shape of the "RAWTEXT-like" reader above but additionally
// recognizing "<!--" / "-->" transitions and the double-escape toggle on
// seeing the raw end-tag name inside an escape.
func (t *Tokenizer) nextScriptData() Token {
	t.resetCharacter()
	for {
		if t.r.Exhausted() {
			t.err = io.EOF
			var tok Token
			if t.emitCharacter(&tok) {
				return tok
			}
			return Token{Type: ErrorTok}
		}
		if t.scriptEscape == scriptNotEscaped && t.r.MatchesString("<!--") {
			t.character.Append("<!--")
			t.r.Advance()
			t.r.Advance()
			t.r.Advance()
			t.r.Advance()
			t.scriptEscape = scriptEscaped
			continue
		}
		if t.r.Matches('<') && t.matchesEndTag() && t.scriptEscape == scriptNotEscaped {
			var tok Token
			if t.emitCharacter(&tok) {
				return tok
			}
			return t.readEndTagAndReturnToData()
		}
		if t.scriptEscape == scriptEscaped && t.r.MatchConsumeIgnoreCase("<script") {
			t.character.Append("<script")
			t.scriptEscape = scriptDoubleEscaped
			continue
		}
		if t.scriptEscape != scriptNotEscaped && t.r.MatchesString("-->") {
			t.character.Append("-->")
			t.r.Advance()
			t.r.Advance()
			t.r.Advance()
			t.scriptEscape = scriptNotEscaped
			continue
		}
		if t.scriptEscape == scriptDoubleEscaped && t.r.MatchConsumeIgnoreCase("</script") {
			t.character.Append("</script")
			t.scriptEscape = scriptEscaped
			continue
		}
		c, _ := t.r.Consume()
		t.character.Append(string(rune(c)))
	}
}

// readEndTagAndReturnToData consumes the end tag the raw-text states were
// watching for and switches the content model back to Data.
func (t *Tokenizer) readEndTagAndReturnToData() Token {
	t.contentModel = DataState
	t.rawEndTag = ""
	t.markupStartPos = t.r.Pos()
	t.r.Advance() // consume '<'
	return t.readTagFromLessThan()
}

// readMarkup is called with the reader positioned at '<' in Data state. It
// decides what kind of markup follows and reads it, returning (token, true)
// if markup was recognized, or (zero, false) if '<' should be treated as
// ordinary text (e.g. "a < b" in HTML).
func (t *Tokenizer) readMarkup() (Token, bool) {
	t.markupStartPos = t.r.Pos()
	// Look one byte past '<' without consuming '<' itself yet.
	t.r.Mark()
	t.r.Advance() // consume '<'
	c, ok := t.r.Current()
	if !ok {
		t.r.RewindToMark()
		return Token{}, false
	}
	switch {
	case c == '!':
		t.r.Unmark()
		return t.readMarkupDeclaration(), true
	case c == '/':
		t.r.Unmark()
		return t.readTagFromLessThan(), true
	case isAlphaB(c):
		t.r.Unmark()
		return t.readTagFromLessThan(), true
	case c == '?':
		t.r.Unmark()
		if t.xml {
			return t.readProcessingInstruction(), true
		}
		return t.readBogusComment(true), true
	default:
		t.r.RewindToMark()
		return Token{}, false
	}
}

func isAlphaB(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

// readTagFromLessThan reads a start or end tag; the reader is positioned
// just after '<' (or "</" for the end-tag case, which it detects itself).
func (t *Tokenizer) readTagFromLessThan() Token {
	start := t.markupStartPos
	isEnd := t.r.Matches('/')
	if isEnd {
		t.r.Advance()
	}
	name := t.r.ConsumeTagName()
	if name == "" {
		// "</>", or "</" followed by whitespace or EOF ("<>" never gets
		// here: readMarkup treats it as text). HTML5 emits nothing for
		// "</>"; every such case becomes an empty bogus comment here, to
		// keep the token stream moving.
		t.errorf("bogus tag name")
		t.r.ConsumeTo('>')
		t.r.Advance()
		t.comment.reset()
		t.comment.Bogus = true
		t.comment.StartPos, t.comment.EndPos = start, t.r.Pos()
		return Token{Type: CommentTok, Comment: &t.comment}
	}

	if isEnd {
		t.endTag.reset()
		t.endTag.StartPos = start
		t.endTag.TagName = name
		if !t.preserveTagCase {
			name = strings.ToLower(name)
		}
		t.endTag.TagName = name
		t.endTag.NormalName = strings.ToLower(name)
		t.skipEndTagRemainder()
		t.endTag.EndPos = t.r.Pos()
		return Token{Type: EndTagTok, EndTag: &t.endTag}
	}

	t.startTag.reset()
	t.startTag.StartPos = start
	origName := name
	if !t.preserveTagCase {
		name = strings.ToLower(name)
	}
	t.startTag.TagName = name
	t.startTag.NormalName = strings.ToLower(origName)
	t.readAttributes()
	t.startTag.EndPos = t.r.Pos()

	if t.notRawTextNext {
		t.notRawTextNext = false
	}
	return Token{Type: StartTagTok, StartTag: &t.startTag}
}

// skipEndTagRemainder discards anything between an end tag's name and its
// closing '>' (attributes on an end tag are a parse error but tolerated).
func (t *Tokenizer) skipEndTagRemainder() {
	for {
		if t.r.Exhausted() {
			return
		}
		if t.r.Matches('>') {
			t.r.Advance()
			return
		}
		t.r.Advance()
	}
}

// readAttributes reads BeforeAttributeName..SelfClosingStartTag into the
// pending StartTagType, tracking source ranges when enabled.
func (t *Tokenizer) readAttributes() {
	for {
		t.r.ConsumeMatching(isSpace, 0)
		if t.r.Exhausted() {
			return
		}
		if t.r.Matches('>') {
			t.r.Advance()
			return
		}
		if t.r.Matches('/') {
			t.r.Advance()
			if t.r.Matches('>') {
				t.r.Advance()
				t.startTag.SelfClosing = true
				t.pendingSelfClosingAck = true
				return
			}
			continue // bogus slash inside a tag; ignore and continue
		}
		nameStart := t.r.Pos()
		name := t.r.ConsumeMatching(func(b byte) bool {
			return !isSpace(b) && b != '=' && b != '>' && b != '/'
		}, 0)
		if name == "" {
			// Stray '=' or similar with nothing to key it to.
			t.r.Advance()
			continue
		}
		nameEnd := t.r.Pos()
		name = strings.ReplaceAll(name, "\x00", string(rune(0xFFFD)))
		if !t.preserveAttrCase {
			name = strings.ToLower(name)
		}

		t.r.ConsumeMatching(isSpace, 0)
		val := ""
		valStart, valEnd := 0, 0
		if t.r.Matches('=') {
			t.r.Advance()
			t.r.ConsumeMatching(isSpace, 0)
			valStart = t.r.Pos()
			switch {
			case t.r.Matches('"'):
				t.r.Advance()
				val = t.readAttrValueText('"')
				t.r.Advance()
			case t.r.Matches('\''):
				t.r.Advance()
				val = t.readAttrValueText('\'')
				t.r.Advance()
			default:
				val = t.readUnquotedAttrValue()
			}
			valEnd = t.r.Pos()
		}
		attr := Attribute{Key: name, Val: val, NameStart: nameStart, NameEnd: nameEnd, ValStart: valStart, ValEnd: valEnd}
		t.startTag.AddAttr(attr)
	}
}

// readAttrValueText reads a quoted attribute value, resolving entities
// (HTML only) and honoring the '=' delimiter quirks.
func (t *Tokenizer) readAttrValueText(quote byte) string {
	var sb strings.Builder
	for {
		if t.r.Exhausted() {
			return sb.String()
		}
		if t.r.Matches(quote) {
			return sb.String()
		}
		if !t.xml && t.r.Matches('&') {
			t.r.Advance()
			sb.WriteString(t.resolveCharRef(true))
			continue
		}
		c, _ := t.r.Consume()
		sb.WriteByte(c)
	}
}

func (t *Tokenizer) readUnquotedAttrValue() string {
	var sb strings.Builder
	for {
		if t.r.Exhausted() {
			return sb.String()
		}
		if c, ok := t.r.Current(); ok && (isSpace(c) || c == '>') {
			return sb.String()
		}
		if !t.xml && t.r.Matches('&') {
			t.r.Advance()
			sb.WriteString(t.resolveCharRef(true))
			continue
		}
		c, _ := t.r.Consume()
		sb.WriteByte(c)
	}
}

// resolveCharRef implements the character-reference resolver (C3
// collaborator), invoked with the reader positioned just after '&'.
// inAttribute selects the historical-compatibility abort rule for
// ambiguous ampersands in attribute values.
func (t *Tokenizer) resolveCharRef(inAttribute bool) string {
	c, ok := t.r.Current()
	if !ok || c == '\t' || c == '\n' || c == '\f' || c == ' ' || c == '<' || c == '&' {
		return "&"
	}
	if c == '#' {
		return t.resolveNumericRef()
	}
	return t.resolveNamedRef(inAttribute)
}

func (t *Tokenizer) resolveNumericRef() string {
	t.r.Mark()
	t.r.Advance() // consume '#'
	hex := false
	if c, ok := t.r.Current(); ok && (c == 'x' || c == 'X') {
		hex = true
		t.r.Advance()
	}
	var digits string
	if hex {
		digits = t.r.ConsumeHexSequence()
	} else {
		digits = t.r.ConsumeDigitSequence()
	}
	if digits == "" {
		t.errorf("numeric character reference with no digits")
		t.r.RewindToMark()
		return "&"
	}
	t.r.Unmark()
	hadSemi := t.r.MatchConsume(";")
	if !hadSemi {
		t.errorf("numeric character reference missing trailing semicolon")
	}
	base := 10
	if hex {
		base = 16
	}
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		v = -1
	}
	return string(ResolveNumeric(v))
}

func (t *Tokenizer) resolveNamedRef(inAttribute bool) string {
	t.r.Mark()
	name := t.r.ConsumeLetterThenDigitSequence()
	if name == "" {
		t.r.RewindToMark()
		return "&"
	}
	semi := t.r.Matches(';')
	mode := ModeExtended
	if t.xml {
		mode = ModeXHTML
	}
	matchLen, cp1, cp2, found := LookupNamed(mode, name, semi)
	if !found {
		t.errorf("unknown named character reference &%s", name)
		t.r.RewindToMark()
		return "&"
	}
	t.r.Unmark()
	// Rewind the reader to just past the matched prefix (we consumed the
	// full letter/digit run above but may only want a shorter prefix).
	extra := len(name) - matchLen
	for i := 0; i < extra; i++ {
		t.r.Unconsume()
	}
	matchedSemi := matchLen == len(name) && semi
	if matchLen == len(name) && semi {
		t.r.Advance() // consume the ';'
	}
	if inAttribute && !matchedSemi {
		if c, ok := t.r.Current(); ok && (c == '=' || isAlnumB(c)) {
			// Historical compatibility: treat as a literal ampersand plus
			// whatever was consumed, i.e. abort the whole match.
			for i := 0; i < matchLen; i++ {
				t.r.Unconsume()
			}
			return "&"
		}
	}
	if cp2 != 0 {
		return string(cp1) + string(cp2)
	}
	return string(cp1)
}

func isAlnumB(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-' || b == '_'
}

// readBogusComment reads everything up to the next '>' (or EOF) as comment
// data. keepQuestionMark preserves a leading '?' in the data, matching the
// HTML-mode rule that "<?" opens a bogus comment retaining the '?'.
func (t *Tokenizer) readBogusComment(keepQuestionMark bool) Token {
	start := t.markupStartPos
	var data string
	if keepQuestionMark {
		data = "?"
		t.r.Advance() // consume '?'
	}
	data += t.r.ConsumeMatching(func(b byte) bool { return b != '>' }, 0)
	t.r.Advance() // consume '>' (no-op at EOF)
	t.errorf("bogus comment")
	t.comment.reset()
	t.comment.Data = data
	t.comment.Bogus = true
	t.comment.StartPos, t.comment.EndPos = start, t.r.Pos()
	return Token{Type: CommentTok, Comment: &t.comment}
}

// readMarkupDeclaration is called with the reader just after "<!". It
// dispatches to comment, DOCTYPE, or CDATA-section reading. In XML mode,
// anything else recognizable as a markup declaration (e.g. `<!ELEMENT ...>`,
// `<!ENTITY ...>`, `<!ATTLIST ...>`) is read as a generic XmlDecl rather than
// demoted to a bogus comment; in HTML mode the bogus-comment fallback is the
// only option (spec §4.2: in XML mode "`<?` and `<!...` both start an XmlDecl
// treated with tag-like attribute parsing").
func (t *Tokenizer) readMarkupDeclaration() Token {
	start := t.markupStartPos
	t.r.Advance() // consume '!'
	switch {
	case t.r.MatchConsume("--"):
		return t.readComment(start)
	case t.r.MatchConsumeIgnoreCase("DOCTYPE"):
		return t.readDoctype(start)
	case (t.allowCData || t.xml) && t.r.MatchConsume("[CDATA["):
		return t.readCData(start)
	case t.xml:
		return t.readXmlMarkupDeclaration(start)
	default:
		return t.readBogusComment(false)
	}
}

// readXmlMarkupDeclaration reads a generic XML `<!Name ...>` markup
// declaration (ELEMENT, ENTITY, ATTLIST, NOTATION, and the like) into an
// XmlDecl token with IsDeclaration set, terminated by a bare '>' rather than
// "?>".
func (t *Tokenizer) readXmlMarkupDeclaration(start int) Token {
	t.xmlDecl.reset()
	t.xmlDecl.StartPos = start
	t.xmlDecl.IsDeclaration = true
	t.xmlDecl.Name = t.r.ConsumeTagName()
	t.readXmlDeclAttributes()
	t.xmlDecl.EndPos = t.r.Pos()
	return Token{Type: XmlDeclTok, XmlDecl: &t.xmlDecl}
}

func (t *Tokenizer) readComment(start int) Token {
	data, found := t.r.ConsumeToString("-->")
	if found {
		t.r.Advance()
		t.r.Advance()
		t.r.Advance()
	} else {
		t.err = io.EOF
		t.errorf("unterminated comment")
	}
	t.comment.reset()
	t.comment.Data = data
	t.comment.StartPos, t.comment.EndPos = start, t.r.Pos()
	return Token{Type: CommentTok, Comment: &t.comment}
}

func (t *Tokenizer) readCData(start int) Token {
	t.contentModel = CDataSectionState
	tok := t.nextCDataSection()
	if tok.Type == CharacterTok {
		tok.Character.StartPos = start
	}
	return tok
}

func (t *Tokenizer) readDoctype(start int) Token {
	t.doctype.reset()
	t.doctype.StartPos = start
	t.r.ConsumeMatching(isSpace, 0)
	name := t.r.ConsumeMatching(func(b byte) bool { return !isSpace(b) && b != '>' }, 0)
	t.doctype.Name = strings.ToLower(name)
	t.r.ConsumeMatching(isSpace, 0)

	if c, ok := t.r.Current(); ok && c != '>' {
		kw := t.r.ConsumeMatching(func(b byte) bool { return !isSpace(b) && b != '>' }, 0)
		kwLower := strings.ToUpper(kw)
		switch kwLower {
		case "PUBLIC":
			t.doctype.PubSysKey = "PUBLIC"
			t.r.ConsumeMatching(isSpace, 0)
			t.doctype.PublicID = t.readDoctypeQuoted()
			t.r.ConsumeMatching(isSpace, 0)
			if c, ok := t.r.Current(); ok && (c == '"' || c == '\'') {
				t.doctype.SystemID = t.readDoctypeQuoted()
			}
		case "SYSTEM":
			t.doctype.PubSysKey = "SYSTEM"
			t.r.ConsumeMatching(isSpace, 0)
			t.doctype.SystemID = t.readDoctypeQuoted()
		default:
			t.doctype.ForceQuirks = true
			t.errorf("unexpected DOCTYPE keyword %q", kw)
		}
	}
	t.r.ConsumeMatching(func(b byte) bool { return b != '>' }, 0)
	if !t.r.MatchConsume(">") {
		t.err = io.EOF
		t.errorf("unterminated DOCTYPE")
	}
	t.doctype.EndPos = t.r.Pos()
	return Token{Type: DoctypeTok, Doctype: &t.doctype}
}

func (t *Tokenizer) readDoctypeQuoted() string {
	c, ok := t.r.Current()
	if !ok || (c != '"' && c != '\'') {
		t.errorf("missing quote in DOCTYPE")
		return ""
	}
	t.r.Advance()
	s, _ := t.r.ConsumeTo(c)
	t.r.Advance()
	return s
}

// readProcessingInstruction reads an XML "<?...?>" into an XmlDecl token
// (isDeclaration = false).
func (t *Tokenizer) readProcessingInstruction() Token {
	start := t.markupStartPos
	t.r.Advance() // consume '?'
	t.xmlDecl.reset()
	t.xmlDecl.StartPos = start
	t.xmlDecl.Name = t.r.ConsumeTagName()
	t.readXmlDeclAttributes()
	t.xmlDecl.EndPos = t.r.Pos()
	return Token{Type: XmlDeclTok, XmlDecl: &t.xmlDecl}
}

// readXmlDeclAttributes is readAttributes's counterpart for XmlDecl tokens,
// terminated by "?>" or ">" rather than a bare '>'.
func (t *Tokenizer) readXmlDeclAttributes() {
	for {
		t.r.ConsumeMatching(isSpace, 0)
		if t.r.Exhausted() {
			return
		}
		if t.r.Matches('?') {
			t.r.Advance()
			t.r.MatchConsume(">")
			return
		}
		if t.r.Matches('>') {
			t.r.Advance()
			return
		}
		nameStart := t.r.Pos()
		name := t.r.ConsumeMatching(func(b byte) bool {
			return !isSpace(b) && b != '=' && b != '>' && b != '?'
		}, 0)
		if name == "" {
			t.r.Advance()
			continue
		}
		nameEnd := t.r.Pos()
		t.r.ConsumeMatching(isSpace, 0)
		val := ""
		valStart, valEnd := 0, 0
		if t.r.Matches('=') {
			t.r.Advance()
			t.r.ConsumeMatching(isSpace, 0)
			valStart = t.r.Pos()
			if t.r.Matches('"') {
				t.r.Advance()
				val, _ = t.r.ConsumeTo('"')
				t.r.Advance()
			} else if t.r.Matches('\'') {
				t.r.Advance()
				val, _ = t.r.ConsumeTo('\'')
				t.r.Advance()
			}
			valEnd = t.r.Pos()
		}
		t.xmlDecl.Attr = append(t.xmlDecl.Attr, Attribute{Key: name, Val: val, NameStart: nameStart, NameEnd: nameEnd, ValStart: valStart, ValEnd: valEnd})
	}
}
