package xmlparse

import (
	"strings"
	"testing"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/reader"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/dpotapov/htmlkit/token"
	"github.com/stretchr/testify/require"
)

func tagNamespace(uri string) tagset.Namespace { return tagset.Namespace(uri) }

func build(t *testing.T, src string) *Result {
	t.Helper()
	tok := token.NewTokenizer(reader.New(strings.NewReader(src)), true)
	return Build(tok, Config{})
}

func TestBuildSimpleTree(t *testing.T) {
	res := build(t, `<root><child id="1">text</child></root>`)
	require.Empty(t, res.Errors)

	root := res.Document.FirstElementChild()
	require.NotNil(t, root)
	require.Equal(t, "root", root.Name)

	child := root.FirstElementChild()
	require.NotNil(t, child)
	require.Equal(t, "child", child.Name)
	require.Equal(t, "1", child.Attr("id"))
	require.Equal(t, "text", child.Text())
}

func TestBuildDefaultNamespaceInheritance(t *testing.T) {
	res := build(t, `<root xmlns="urn:example"><child/></root>`)

	root := res.Document.FirstElementChild()
	require.Equal(t, tagNamespace("urn:example"), root.Namespace)

	child := root.FirstElementChild()
	require.NotNil(t, child)
	require.Equal(t, tagNamespace("urn:example"), child.Namespace)
}

func TestBuildPrefixedNamespace(t *testing.T) {
	res := build(t, `<a:root xmlns:a="urn:a"><a:child/><other/></a:root>`)

	root := res.Document.FirstElementChild()
	require.Equal(t, "a:root", root.Name)
	require.Equal(t, tagNamespace("urn:a"), root.Namespace)

	kids := root.Children()
	require.Len(t, kids, 2)
	require.Equal(t, tagNamespace("urn:a"), kids[0].Namespace)
	// "other" has no prefix, so it resolves against the default namespace,
	// which a:root's declaration never touched (still the seeded one).
	require.Equal(t, tagNamespace(xmlNamespaceURI), kids[1].Namespace)
}

func TestBuildPrefixedAttributeNamespace(t *testing.T) {
	res := build(t, `<root xmlns:a="urn:a" a:lang="en"/>`)

	root := res.Document.FirstElementChild()
	require.Equal(t, "en", root.Attr("a:lang"))
	require.Equal(t, "urn:a", AttrNamespace(root, "a:lang"))
}

func TestBuildUnmatchedEndTagIgnored(t *testing.T) {
	res := build(t, `<root><child></other></root>`)
	require.NotEmpty(t, res.Errors)

	root := res.Document.FirstElementChild()
	require.Equal(t, "root", root.Name)
	child := root.FirstElementChild()
	require.NotNil(t, child)
	require.Equal(t, "child", child.Name)
}

func TestBuildGenericMarkupDeclaration(t *testing.T) {
	res := build(t, `<!ENTITY foo "bar"><root/>`)
	require.Empty(t, res.Errors)

	decl := res.Document.FirstChild()
	require.NotNil(t, decl)
	require.Equal(t, dom.XmlDeclNode, decl.Type)
	require.Equal(t, "ENTITY", decl.Name)

	root := res.Document.FirstElementChild()
	require.NotNil(t, root)
	require.Equal(t, "root", root.Name)
}

func TestBuildSelfClosingHasNoChildren(t *testing.T) {
	res := build(t, `<root><leaf/>after</root>`)
	root := res.Document.FirstElementChild()
	leaf := root.FirstElementChild()
	require.NotNil(t, leaf)
	require.Empty(t, leaf.Children())
	require.Equal(t, "after", root.Text())
}
