package htmlparse

import (
	"strings"
	"testing"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/reader"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/dpotapov/htmlkit/token"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, src string) *dom.Node {
	t.Helper()
	tok := token.NewTokenizer(reader.New(strings.NewReader(src)), false)
	res := Build(tok, Config{})
	return res.Document
}

func TestBuildMinimalDocument(t *testing.T) {
	doc := build(t, "<!doctype html><html><head><title>Hi</title></head><body><p>Hello</p></body></html>")

	html := doc.FirstElementChild()
	require.NotNil(t, html)
	require.Equal(t, "html", html.Name)

	head := html.FirstElementChild()
	require.NotNil(t, head)
	require.Equal(t, "head", head.Name)

	title := head.FirstElementChild()
	require.NotNil(t, title)
	require.Equal(t, "Hi", title.Text())

	body := head.NextElementSibling()
	require.NotNil(t, body)
	require.Equal(t, "body", body.Name)

	p := body.FirstElementChild()
	require.NotNil(t, p)
	require.Equal(t, "p", p.Name)
	require.Equal(t, "Hello", p.Text())
}

func TestBuildImpliedHeadAndBody(t *testing.T) {
	doc := build(t, "<p>no head or body here</p>")

	html := doc.FirstElementChild()
	require.NotNil(t, html)
	body := html.GetElementsByTag("body")
	require.Len(t, body, 1)
	ps := doc.GetElementsByTag("p")
	require.Len(t, ps, 1)
	require.Equal(t, "no head or body here", ps[0].Text())
}

func TestBuildMisnestedFormattingUsesAdoptionAgency(t *testing.T) {
	doc := build(t, "<body><p>1<b>2<i>3</p>4</i>5</b>")

	ps := doc.GetElementsByTag("p")
	require.Len(t, ps, 1)
	require.Equal(t, "1", ps[0].Text())

	bs := doc.GetElementsByTag("b")
	require.GreaterOrEqual(t, len(bs), 1)
}

func TestBuildTableFostersStrayText(t *testing.T) {
	doc := build(t, "<table>stray<tr><td>cell</td></tr></table>")

	tables := doc.GetElementsByTag("table")
	require.Len(t, tables, 1)

	cells := doc.GetElementsByTag("td")
	require.Len(t, cells, 1)
	require.Equal(t, "cell", cells[0].Text())

	// The "stray" text is foster-parented to before the table, not inside it.
	require.NotContains(t, tables[0].Text(), "stray")
}

func TestBuildVoidElementDoesNotNest(t *testing.T) {
	doc := build(t, "<body><img src=\"x.png\"><p>after</p>")

	imgs := doc.GetElementsByTag("img")
	require.Len(t, imgs, 1)
	require.Empty(t, imgs[0].Children())

	ps := doc.GetElementsByTag("p")
	require.Len(t, ps, 1)
}

func TestBuildMaxDepthCapsNesting(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("<div>")
	}
	tok := token.NewTokenizer(reader.New(strings.NewReader(sb.String())), false)
	res := Build(tok, Config{MaxDepth: 128})

	body := res.Document.FirstElementChild().FirstElementChild().NextElementSibling()
	require.NotNil(t, body)
	require.LessOrEqual(t, maxDivDepth(body), 128)
}

func maxDivDepth(n *dom.Node) int {
	best := 0
	for _, c := range n.Children() {
		if d := maxDivDepth(c); d > best {
			best = d
		}
	}
	if n.Name == "div" {
		best++
	}
	return best
}

func TestBuildFragmentInTableContext(t *testing.T) {
	tok := token.NewTokenizer(reader.New(strings.NewReader("<tr><td>x</td></tr>")), false)
	tags := tagset.New()
	context := dom.NewElement(tags.ValueOf("table", "table", tagset.HTML, false), tagset.HTML)

	nodes, errs := BuildFragment(tok, context, Config{Tags: tags})
	require.Empty(t, errs)
	require.Len(t, nodes, 1)
	require.Equal(t, "tbody", nodes[0].Name)
}
