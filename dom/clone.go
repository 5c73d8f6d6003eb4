package dom

// ShallowClone returns a detached copy of n with no parent, no siblings,
// and no children. Attributes are copied (see Attributes.Clone).
func (n *Node) ShallowClone() *Node {
	c := &Node{
		Type:         n.Type,
		Name:         n.Name,
		Namespace:    n.Namespace,
		Tag:          n.Tag,
		BaseURI:      n.BaseURI,
		coreValue:    n.coreValue,
		IsForm:       n.IsForm,
		IsPseudoText: n.IsPseudoText,
		Range:        n.Range,
		EndRange:     n.EndRange,
	}
	if n.attrs != nil {
		c.attrs = n.attrs.Clone()
	}
	if n.Type == DocumentNode && n.OutputSettings != nil {
		settings := *n.OutputSettings
		c.OutputSettings = &settings
		c.QuirksMode = n.QuirksMode
		c.Parser = n.Parser
	}
	return c
}

// cloneFrame pairs an original node with its already-cloned counterpart,
// used to drive Clone's iterative (BFS) traversal.
type cloneFrame struct {
	orig, clone *Node
}

// Clone returns a deep copy of the subtree rooted at n, using an iterative
// breadth-first walk so cloning doesn't recurse once per tree depth. When
// n is an Element that belongs to a Document, the cloned root is attached
// to a shallow clone of that Document so OutputSettings/Parser survive for
// later operations (serialization, fragment reparsing); a clone of an
// Element with no owner Document stays parentless.
func (n *Node) Clone() *Node {
	root := n.ShallowClone()
	queue := []cloneFrame{{orig: n, clone: root}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, origChild := range f.orig.children {
			childClone := origChild.ShallowClone()
			f.clone.AppendChild(childClone)
			queue = append(queue, cloneFrame{orig: origChild, clone: childClone})
		}
	}

	if root.Type == ElementNode {
		if owner := n.OwnerDocument(); owner != nil {
			synth := owner.ShallowClone()
			synth.AppendChild(root)
		}
	}
	return root
}
