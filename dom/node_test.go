package dom

import (
	"testing"

	"github.com/dpotapov/htmlkit/tagset"
	"github.com/stretchr/testify/require"
)

func elem(name string) *Node {
	ts := tagset.New()
	tag := ts.ValueOf(name, name, tagset.HTML, false)
	return NewElement(tag, tagset.HTML)
}

func TestAppendAndSiblingIndex(t *testing.T) {
	root := elem("div")
	a, b, c := elem("a"), elem("b"), elem("c")
	root.AppendChild(a)
	root.AppendChild(b)
	root.AppendChild(c)

	require.Equal(t, 0, a.SiblingIndex())
	require.Equal(t, 1, b.SiblingIndex())
	require.Equal(t, 2, c.SiblingIndex())
	require.Same(t, b, a.NextSibling())
	require.Same(t, a, b.PreviousSibling())
	require.Same(t, root, a.Parent())
}

func TestRemoveReindexes(t *testing.T) {
	root := elem("div")
	a, b, c := elem("a"), elem("b"), elem("c")
	root.AppendChild(a)
	root.AppendChild(b)
	root.AppendChild(c)

	b.Remove()
	require.Nil(t, b.Parent())
	require.Equal(t, 0, a.SiblingIndex())
	require.Equal(t, 1, c.SiblingIndex())
	require.Same(t, c, a.NextSibling())
}

func TestBeforeAfterWrapUnwrap(t *testing.T) {
	root := elem("div")
	a := elem("a")
	root.AppendChild(a)

	before := elem("before")
	a.Before(before)
	require.Equal(t, 0, before.SiblingIndex())
	require.Equal(t, 1, a.SiblingIndex())

	after := elem("after")
	a.After(after)
	require.Equal(t, 2, after.SiblingIndex())

	wrapper := elem("wrapper")
	a.Wrap(wrapper)
	require.Same(t, wrapper, a.Parent())
	require.Same(t, root, wrapper.Parent())

	wrapper.Unwrap()
	require.Same(t, root, a.Parent())
}

func TestAttributesOrderingAndInternalFilter(t *testing.T) {
	a := NewAttributes()
	a.Set("href", "/x")
	a.Set("class", "btn")
	a.SetRaw(string(internalPrefix)+"range", 42)

	require.Equal(t, []string{"href", "class"}, a.Keys())
	require.Equal(t, 2, a.Size())

	raw, ok := a.GetRaw(string(internalPrefix) + "range")
	require.True(t, ok)
	require.Equal(t, 42, raw)
}

func TestLeafNodeCompression(t *testing.T) {
	n := NewComment("hello")
	require.Equal(t, "hello", n.CoreValue())

	n.SetAttr("x-extra", "1")
	require.Equal(t, "hello", n.CoreValue())
	require.Equal(t, "1", n.Attr("x-extra"))
}

func TestTextAndSetText(t *testing.T) {
	root := elem("p")
	root.AppendChild(NewText("hello "))
	span := elem("span")
	span.AppendChild(NewText("world"))
	root.AppendChild(span)

	require.Equal(t, "hello world", root.Text())

	root.SetText("replaced")
	require.Equal(t, "replaced", root.Text())
	require.Len(t, root.Children(), 1)
}

func TestDeepCloneIsIndependent(t *testing.T) {
	root := elem("div")
	root.SetAttr("id", "x")
	child := elem("span")
	child.AppendChild(NewText("hi"))
	root.AppendChild(child)

	clone := root.Clone()
	require.Equal(t, "x", clone.Attr("id"))
	require.Len(t, clone.Children(), 1)
	require.Equal(t, "hi", clone.Children()[0].Text())

	clone.SetAttr("id", "y")
	require.Equal(t, "x", root.Attr("id"))

	clone.Children()[0].SetText("changed")
	require.Equal(t, "hi", child.Text())
}

func TestNodeIteratorDocumentOrder(t *testing.T) {
	root := elem("div")
	a := elem("a")
	b := elem("b")
	root.AppendChild(a)
	root.AppendChild(b)
	a.AppendChild(NewText("x"))

	it := NewNodeIterator(root)
	var names []string
	for n := it.Next(); n != nil; n = it.Next() {
		names = append(names, n.Name)
	}
	require.Equal(t, []string{"div", "a", "#text", "b"}, names)
}

func TestNodeIteratorToleratesMutation(t *testing.T) {
	root := elem("div")
	a := elem("a")
	b := elem("b")
	root.AppendChild(a)
	root.AppendChild(b)

	it := NewNodeIterator(root)
	require.Same(t, root, it.Next())
	require.Same(t, a, it.Next())

	a.Remove() // detach the just-emitted node

	next := it.Next()
	require.Same(t, b, next)
}

func TestGetElementsByTag(t *testing.T) {
	root := elem("div")
	p1, p2, span := elem("p"), elem("p"), elem("span")
	root.AppendChild(p1)
	root.AppendChild(span)
	span.AppendChild(p2)

	ps := root.GetElementsByTag("p")
	require.Len(t, ps, 2)
}
