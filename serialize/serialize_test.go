package serialize

import (
	"testing"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/stretchr/testify/require"
)

func TestEscapeBasicEntities(t *testing.T) {
	out := Escape(`a & b <c> "d"`, dom.EscapeBase, "UTF-8", ForText)
	require.Equal(t, `a &amp; b &lt;c&gt; "d"`, out)

	out = Escape(`"d"`, dom.EscapeBase, "UTF-8", ForAttribute)
	require.Equal(t, `&quot;d&quot;`, out)
}

func TestEscapeApostropheOnlyWhenBoth(t *testing.T) {
	require.Equal(t, `it's`, Escape("it's", dom.EscapeBase, "UTF-8", ForText))
	require.Equal(t, `it&#x27;s`, Escape("it's", dom.EscapeBase, "UTF-8", ForText|ForAttribute))
	require.Equal(t, `it&apos;s`, Escape("it's", dom.EscapeXHTML, "UTF-8", ForText|ForAttribute))
}

func TestEscapeNbspModeDependent(t *testing.T) {
	require.Equal(t, "&nbsp;", Escape(" ", dom.EscapeBase, "UTF-8", ForText))
	require.Equal(t, "&#xa0;", Escape(" ", dom.EscapeXHTML, "UTF-8", ForText))
}

func TestEscapeNonAsciiFallsBackToNumericUnderAscii(t *testing.T) {
	out := Escape("café", dom.EscapeBase, "US-ASCII", ForText)
	require.Equal(t, "caf&#xE9;", out)
}

func TestEscapeExtendedUsesNamedEntityWhenUnencodable(t *testing.T) {
	out := Escape("café", dom.EscapeExtended, "US-ASCII", ForText)
	require.Equal(t, "caf&eacute;", out)
}

func TestEscapeNormaliseCollapsesWhitespace(t *testing.T) {
	out := Escape("a   b\n\tc", dom.EscapeBase, "UTF-8", ForText|Normalise)
	require.Equal(t, "a b c", out)
}

func newTagSet() *tagset.TagSet { return tagset.New() }

func TestSerializeRawRoundTrip(t *testing.T) {
	tags := newTagSet()
	div := dom.NewElement(tags.ValueOf("div", "div", tagset.HTML, false), tagset.HTML)
	div.SetAttr("class", "a b")
	div.AppendChild(dom.NewText("hello"))

	settings := dom.DefaultOutputSettings()
	settings.PrettyPrint = false

	out, err := ToString(div, settings)
	require.NoError(t, err)
	require.Equal(t, `<div class="a b">hello</div>`, out)
}

func TestSerializeVoidElementHTMLVsXML(t *testing.T) {
	tags := newTagSet()
	br := dom.NewElement(tags.ValueOf("br", "br", tagset.HTML, false), tagset.HTML)

	htmlSettings := dom.DefaultOutputSettings()
	htmlSettings.PrettyPrint = false
	out, err := ToString(br, htmlSettings)
	require.NoError(t, err)
	require.Equal(t, "<br>", out)

	xmlSettings := dom.DefaultOutputSettings()
	xmlSettings.PrettyPrint = false
	xmlSettings.Syntax = dom.XMLSyntax
	out, err = ToString(br, xmlSettings)
	require.NoError(t, err)
	require.Equal(t, "<br />", out)
}

func TestSerializePrettyIndentsBlockChildren(t *testing.T) {
	tags := newTagSet()
	body := dom.NewElement(tags.ValueOf("body", "body", tagset.HTML, false), tagset.HTML)
	p := dom.NewElement(tags.ValueOf("p", "p", tagset.HTML, false), tagset.HTML)
	p.AppendChild(dom.NewText("hi"))
	body.AppendChild(p)

	settings := dom.DefaultOutputSettings()
	settings.IndentAmount = 2

	out, err := ToString(body, settings)
	require.NoError(t, err)
	require.Contains(t, out, "\n  <p>hi</p>")
}

func TestSerializeDoctype(t *testing.T) {
	doc := dom.NewDoctype("html", "", "")
	out, err := ToString(doc, dom.DefaultOutputSettings())
	require.NoError(t, err)
	require.Equal(t, "<!doctype html>\n", out)
}
