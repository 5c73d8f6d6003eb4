package dom

// GetElementsByTag returns every descendant Element (self included) whose
// Name matches tagName, in document order. A linear scan, not a
// CSS-selector match — the selector engine itself is out of scope.
func (n *Node) GetElementsByTag(tagName string) []*Node {
	var out []*Node
	it := NewNodeIterator(n)
	for node := it.Next(); node != nil; node = it.Next() {
		if node.Type == ElementNode && node.Name == tagName {
			out = append(out, node)
		}
	}
	return out
}

// GetElementsByAttr returns every descendant Element (self included)
// carrying the named attribute, regardless of its value.
func (n *Node) GetElementsByAttr(key string) []*Node {
	var out []*Node
	it := NewNodeIterator(n)
	for node := it.Next(); node != nil; node = it.Next() {
		if node.Type == ElementNode && node.HasAttr(key) {
			out = append(out, node)
		}
	}
	return out
}

// GetElementsByAttrValue returns every descendant Element (self included)
// whose key attribute equals val exactly.
func (n *Node) GetElementsByAttrValue(key, val string) []*Node {
	var out []*Node
	it := NewNodeIterator(n)
	for node := it.Next(); node != nil; node = it.Next() {
		if node.Type == ElementNode && node.Attr(key) == val {
			out = append(out, node)
		}
	}
	return out
}

// PruneDanglingLinkedEls removes any entries from a FormElement's
// LinkedEls whose node has since been detached from the document,
// reconciling the weak association lazily (see the Ownership note on
// FormElement.linkedEls).
func (n *Node) PruneDanglingLinkedEls() {
	if !n.IsForm {
		return
	}
	root := n.Root()
	live := n.LinkedEls[:0]
	for _, el := range n.LinkedEls {
		if el.Root() == root {
			live = append(live, el)
		}
	}
	n.LinkedEls = live
}
