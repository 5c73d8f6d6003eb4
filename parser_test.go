package htmlkit

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/stretchr/testify/require"
)

func TestParseHTMLBasic(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseHTMLString("<!doctype html><html><body><p>Hello</p></body></html>")
	require.NoError(t, err)

	html := doc.FirstElementChild()
	require.NotNil(t, html)
	head := html.FirstElementChild()
	require.NotNil(t, head)
	body := head.NextElementSibling()
	require.NotNil(t, body)
	para := body.FirstElementChild()
	require.NotNil(t, para)
	require.Equal(t, "Hello", para.Text())
	require.Same(t, p, doc.Parser)
}

func TestParseHTMLTracksErrors(t *testing.T) {
	p := NewParser(WithTrackErrors(10))
	_, err := p.ParseHTMLString("<p></div>hi")
	require.NoError(t, err)
	require.NotEmpty(t, p.Errors)
}

func TestParseHTMLTrackErrorsDisabled(t *testing.T) {
	p := NewParser(WithTrackErrors(0))
	_, err := p.ParseHTMLString("<p></div>hi")
	require.NoError(t, err)
	require.Empty(t, p.Errors)
}

func TestParseXMLBasic(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseXMLString(`<root xmlns:a="urn:a"><a:child>text</a:child></root>`)
	require.NoError(t, err)

	root := doc.FirstElementChild()
	require.NotNil(t, root)
	require.Equal(t, "root", root.Name)

	child := root.FirstElementChild()
	require.NotNil(t, child)
	require.Equal(t, "text", child.Text())
}

func TestParseXMLUnmatchedEndTagIgnored(t *testing.T) {
	p := NewParser()
	_, err := p.ParseXMLString(`<root></other></root>`)
	require.NoError(t, err)
	require.NotEmpty(t, p.Errors)
}

func TestNewInstanceIsIndependent(t *testing.T) {
	base := NewParser(WithTrackErrors(5))
	clone := base.NewInstance()
	require.NotSame(t, base, clone)
	require.NotSame(t, base.cfg, clone.cfg)
	require.NotSame(t, base.cfg.tags, clone.cfg.tags)

	_, err := clone.ParseHTMLString("<p>hi")
	require.NoError(t, err)
	require.Empty(t, base.Errors)
}

func TestParseFragmentInTableContext(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseHTMLString("<table></table>")
	require.NoError(t, err)
	table := doc.GetElementsByTag("table")[0]

	nodes, err := p.ParseFragment(table, "<tr><td>1</td></tr>")
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
}

func TestWithLoggerTracesInsertionModeTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewParser(WithLogger(logger))
	_, err := p.ParseHTMLString("<!doctype html><html><body><p>hi</p></body></html>")
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "insertion mode")
	require.Contains(t, out, "inBodyIM")
}

func TestWithLoggerTracesXmlTokenDispatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewParser(WithLogger(logger))
	_, err := p.ParseXMLString(`<root><child/></root>`)
	require.NoError(t, err)

	require.Contains(t, buf.String(), "xml token")
}

func TestParseFragmentRejectsNonElement(t *testing.T) {
	p := NewParser()
	require.Panics(t, func() {
		_, _ = p.ParseFragment(dom.NewText("x"), "hi")
	})
}

func TestHTMLRoundTrip(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseHTMLString("<p>hi</p>")
	require.NoError(t, err)
	body := doc.GetElementsByTag("body")[0]

	settings := dom.DefaultOutputSettings()
	settings.PrettyPrint = false
	out, err := HTML(body, settings)
	require.NoError(t, err)
	require.Equal(t, "<body><p>hi</p></body>", out)
}

func TestWriteHTML(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseHTMLString("<p>hi</p>")
	require.NoError(t, err)

	var sb strings.Builder
	settings := dom.DefaultOutputSettings()
	settings.PrettyPrint = false
	n, err := WriteHTML(&sb, doc.GetElementsByTag("p")[0], settings)
	require.NoError(t, err)
	require.Equal(t, int64(sb.Len()), n)
	require.Equal(t, "<p>hi</p>", sb.String())
}
