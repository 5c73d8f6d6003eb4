// Package serialize implements the Serializer (C9): raw/pretty/outline
// tree printers and the entity-escaping rules that drive them.
package serialize

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/internal/pool"
)

// EscapeOptions is a bitset of the independent behaviors that compose for
// one text/attribute-value emission.
type EscapeOptions uint8

const (
	// ForText marks the value as appearing in text content.
	ForText EscapeOptions = 1 << iota
	// ForAttribute marks the value as an attribute value.
	ForAttribute
	// Normalise collapses runs of whitespace to a single space.
	Normalise
	// TrimLeading strips leading whitespace after normalization.
	TrimLeading
	// TrimTrailing strips trailing whitespace after normalization.
	TrimTrailing
)

// Has reports whether all bits in mask are set in o.
func (o EscapeOptions) Has(mask EscapeOptions) bool { return o&mask == mask }

// namedEscapes is a representative subset of the WHATWG named-character
// table used for ModeExtended output escaping when a codepoint can't be
// written directly under the target charset. A complete implementation
// would draw from the full ~2000-entry table; see DESIGN.md.
var namedEscapes = map[rune]string{
	0x00A0: "nbsp",
	0x00A9: "copy",
	0x00AE: "reg",
	0x00E0: "agrave",
	0x00E4: "auml",
	0x00E8: "egrave",
	0x00E9: "eacute",
	0x00F6: "ouml",
	0x00FC: "uuml",
	0x00DF: "szlig",
	0x2013: "ndash",
	0x2014: "mdash",
	0x2018: "lsquo",
	0x2019: "rsquo",
	0x201C: "ldquo",
	0x201D: "rdquo",
	0x2026: "hellip",
	0x20AC: "euro",
}

// Escape renders s for output under mode/charset: whitespace
// normalization/trimming runs first, then character-level entity escaping.
func Escape(s string, mode dom.EscapeMode, charset string, opts EscapeOptions) string {
	if opts.Has(Normalise) {
		s = normaliseWhitespace(s)
	}
	if opts.Has(TrimLeading) {
		s = strings.TrimLeft(s, " \t\n\r\f")
	}
	if opts.Has(TrimTrailing) {
		s = strings.TrimRight(s, " \t\n\r\f")
	}

	bufp := pool.GetByteBuf()
	defer pool.PutByteBuf(bufp)
	buf := *bufp

	for _, r := range s {
		switch r {
		case '&':
			buf = append(buf, "&amp;"...)
			continue
		case '<':
			buf = append(buf, "&lt;"...)
			continue
		case '>':
			buf = append(buf, "&gt;"...)
			continue
		case '"':
			if opts.Has(ForAttribute) {
				buf = append(buf, "&quot;"...)
				continue
			}
		case '\'':
			if opts.Has(ForText) && opts.Has(ForAttribute) {
				if mode == dom.EscapeXHTML {
					buf = append(buf, "&apos;"...)
				} else {
					buf = append(buf, "&#x27;"...)
				}
				continue
			}
		case 0x00A0:
			if mode == dom.EscapeXHTML {
				buf = append(buf, "&#xa0;"...)
			} else {
				buf = append(buf, "&nbsp;"...)
			}
			continue
		}

		if mode == dom.EscapeXHTML && !isXMLValidChar(r) {
			continue
		}

		if canEncode(charset, r) {
			buf = utf8.AppendRune(buf, r)
			continue
		}

		if mode == dom.EscapeExtended {
			if name, ok := namedEscapes[r]; ok {
				buf = append(buf, '&')
				buf = append(buf, name...)
				buf = append(buf, ';')
				continue
			}
		}
		buf = writeNumericEscape(buf, r)
	}
	*bufp = buf
	return string(buf)
}

func writeNumericEscape(buf []byte, r rune) []byte {
	buf = append(buf, "&#x"...)
	buf = append(buf, strings.ToUpper(strconv.FormatInt(int64(r), 16))...)
	buf = append(buf, ';')
	return buf
}

// isXMLValidChar reports whether r may appear literally in XML 1.0 text,
// per the Char production.
func isXMLValidChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

func normaliseWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				sb.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// canEncode reports whether r can be written directly (without falling back
// to a named or numeric escape) under charset. ASCII always can; UTF-8 and
// unrecognized charsets are assumed fully capable; single-byte charsets are
// checked against a real encoder.
func canEncode(charset string, r rune) bool {
	if r < 0x80 {
		return true
	}
	switch strings.ToUpper(strings.TrimSpace(charset)) {
	case "", "UTF-8", "UTF8":
		return true
	case "US-ASCII", "ASCII":
		return false
	case "ISO-8859-1", "LATIN1", "ISO8859-1":
		_, _, err := transform.String(charmap.ISO8859_1.NewEncoder(), string(r))
		return err == nil
	case "WINDOWS-1252", "CP1252":
		_, _, err := transform.String(charmap.Windows1252.NewEncoder(), string(r))
		return err == nil
	default:
		return true
	}
}
