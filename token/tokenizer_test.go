package token

import (
	"testing"

	"github.com/dpotapov/htmlkit/reader"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src string, xml bool) []Token {
	t.Helper()
	r := reader.NewFromString(src)
	defer r.Close()
	tz := NewTokenizer(r, xml)
	var out []Token
	for {
		tok := tz.Next()
		if tok.Type == ErrorTok {
			break
		}
		// copy variant payloads since they alias the tokenizer's reusable
		// slots and would otherwise be clobbered by the next Next() call
		out = append(out, cloneToken(tok))
	}
	require.Nil(t, tz.Err())
	return out
}

func cloneToken(tok Token) Token {
	switch tok.Type {
	case DoctypeTok:
		d := *tok.Doctype
		return Token{Type: tok.Type, Doctype: &d}
	case StartTagTok:
		s := *tok.StartTag
		s.Attr = append([]Attribute(nil), s.Attr...)
		return Token{Type: tok.Type, StartTag: &s}
	case EndTagTok:
		e := *tok.EndTag
		return Token{Type: tok.Type, EndTag: &e}
	case CommentTok:
		c := *tok.Comment
		return Token{Type: tok.Type, Comment: &c}
	case CharacterTok:
		c := *tok.Character
		return Token{Type: tok.Type, Character: &c}
	case XmlDeclTok:
		x := *tok.XmlDecl
		x.Attr = append([]Attribute(nil), x.Attr...)
		return Token{Type: tok.Type, XmlDecl: &x}
	default:
		return tok
	}
}

func TestTokenizeSimpleElement(t *testing.T) {
	toks := collect(t, `<p class="a">hi</p>`, false)
	require.Len(t, toks, 3)
	require.Equal(t, StartTagTok, toks[0].Type)
	require.Equal(t, "p", toks[0].StartTag.TagName)
	require.Equal(t, "a", toks[0].StartTag.Attr[0].Val)
	require.Equal(t, CharacterTok, toks[1].Type)
	require.Equal(t, "hi", toks[1].Character.Data)
	require.Equal(t, EndTagTok, toks[2].Type)
	require.Equal(t, "p", toks[2].EndTag.TagName)
}

func TestTokenizeSelfClosingVoidLikeTag(t *testing.T) {
	toks := collect(t, `<br/>`, false)
	require.Len(t, toks, 1)
	require.True(t, toks[0].StartTag.SelfClosing)
}

func TestTokenizeComment(t *testing.T) {
	toks := collect(t, `<!-- hello -->`, false)
	require.Len(t, toks, 1)
	require.Equal(t, CommentTok, toks[0].Type)
	require.Equal(t, " hello ", toks[0].Comment.Data)
}

func TestTokenizeDoctype(t *testing.T) {
	toks := collect(t, `<!DOCTYPE html>`, false)
	require.Len(t, toks, 1)
	require.Equal(t, DoctypeTok, toks[0].Type)
	require.Equal(t, "html", toks[0].Doctype.Name)
}

func TestTokenizeNamedCharRef(t *testing.T) {
	toks := collect(t, `a&amp;b`, false)
	require.Len(t, toks, 1)
	require.Equal(t, "a&b", toks[0].Character.Data)
}

func TestTokenizeNumericCharRef(t *testing.T) {
	toks := collect(t, `&#65;&#x42;`, false)
	require.Len(t, toks, 1)
	require.Equal(t, "AB", toks[0].Character.Data)
}

func TestTokenizeWin1252Fixup(t *testing.T) {
	toks := collect(t, `&#145;`, false)
	require.Len(t, toks, 1)
	require.Equal(t, string(rune(0x2018)), toks[0].Character.Data)
}

func TestTokenizeAmbiguousAmpersandInAttribute(t *testing.T) {
	toks := collect(t, `<a href="?a=1&copyright=2">x</a>`, false)
	require.Equal(t, "?a=1&copyright=2", toks[0].StartTag.Attr[0].Val)
}

func TestTokenizeRawTextScript(t *testing.T) {
	r := reader.NewFromString(`<script>var x = "<b>";</script>after`)
	defer r.Close()
	tz := NewTokenizer(r, false)

	start := tz.Next()
	require.Equal(t, StartTagTok, start.Type)
	require.Equal(t, "script", start.StartTag.TagName)

	tz.SetContentModel(ScriptDataState, "script")
	body := cloneToken(tz.Next())
	require.Equal(t, CharacterTok, body.Type)
	require.Equal(t, `var x = "<b>";`, body.Character.Data)

	end := tz.Next()
	require.Equal(t, EndTagTok, end.Type)
	require.Equal(t, "script", end.EndTag.TagName)

	rest := cloneToken(tz.Next())
	require.Equal(t, "after", rest.Character.Data)
}

func TestTokenizeXmlDeclaration(t *testing.T) {
	toks := collect(t, `<?xml version="1.0" encoding="UTF-8"?><root/>`, true)
	require.Equal(t, XmlDeclTok, toks[0].Type)
	require.Equal(t, "xml", toks[0].XmlDecl.Name)
	require.Equal(t, "1.0", toks[0].XmlDecl.Attr[0].Val)
	require.Equal(t, StartTagTok, toks[1].Type)
	require.True(t, toks[1].StartTag.SelfClosing)
}

func TestTokenizeXmlGenericMarkupDeclaration(t *testing.T) {
	toks := collect(t, `<!ENTITY foo "bar"><root/>`, true)
	require.Equal(t, XmlDeclTok, toks[0].Type)
	require.True(t, toks[0].XmlDecl.IsDeclaration)
	require.Equal(t, "ENTITY", toks[0].XmlDecl.Name)
	require.Equal(t, StartTagTok, toks[1].Type)
}

func TestTokenizeBogusComment(t *testing.T) {
	toks := collect(t, `<!weird>rest`, false)
	require.Equal(t, CommentTok, toks[0].Type)
	require.True(t, toks[0].Comment.Bogus)
}

func TestTokenizeUnknownNamedRefKeepsAmpersand(t *testing.T) {
	toks := collect(t, `a&bogusref;b`, false)
	require.Equal(t, "a&bogusref;b", toks[0].Character.Data)
}
