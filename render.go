package htmlkit

import (
	"io"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/serialize"
)

// HTML serializes n (and its descendants) under settings, returning the
// result as a string. A nil settings falls back to n's own OutputSettings
// (when n is a Document) or dom.DefaultOutputSettings otherwise.
//
// dom.Node can't carry this as a method: serialize imports dom, so a
// dom.Node.HTML method would close an import cycle. It lives here instead,
// at the top of the dependency graph.
func HTML(n *dom.Node, settings *dom.OutputSettings) (string, error) {
	out, err := serialize.ToString(n, settings)
	if err != nil {
		return out, &SerializationError{Err: err}
	}
	return out, nil
}

// WriteHTML is HTML, streaming to w instead of building a string.
func WriteHTML(w io.Writer, n *dom.Node, settings *dom.OutputSettings) (int64, error) {
	nw, err := serialize.Serialize(w, n, settings)
	if err != nil {
		return nw, &SerializationError{Err: err}
	}
	return nw, nil
}

// OuterHTML serializes n alone, detached from its surrounding document:
// equivalent to HTML(n, settings) since the serializer only ever walks n
// and its descendants, never siblings or ancestors.
func OuterHTML(n *dom.Node, settings *dom.OutputSettings) (string, error) {
	return HTML(n, settings)
}
