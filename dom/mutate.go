package dom

import "strings"

// AppendChild attaches c as n's last child. Panics if c already has a
// parent, mirroring the teacher's "AppendChild called for an attached
// child Node" defensive panic.
func (n *Node) AppendChild(c *Node) {
	if c.parent != nil {
		panic("dom: AppendChild called for an attached child Node")
	}
	n.children = append(n.children, c)
	c.parent = n
	c.idx = len(n.children) - 1
	c.idxValid = true
	n.markChildrenDirty()
}

// PrependChild attaches c as n's first child.
func (n *Node) PrependChild(c *Node) {
	if c.parent != nil {
		panic("dom: PrependChild called for an attached child Node")
	}
	n.children = append(n.children, nil)
	copy(n.children[1:], n.children[:len(n.children)-1])
	n.children[0] = c
	c.parent = n
	n.markChildrenDirty()
}

// insertAt inserts c into n.children at position i (0 <= i <= len).
func (n *Node) insertAt(i int, c *Node) {
	if c.parent != nil {
		panic("dom: insert called for an attached child Node")
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:len(n.children)-1])
	n.children[i] = c
	c.parent = n
	n.markChildrenDirty()
}

func (n *Node) markChildrenDirty() { n.childrenDirty = true }

// reindexChildren rewrites every child's cached sibling index. Called
// lazily from SiblingIndex when the parent's dirty bit is set.
func (n *Node) reindexChildren() {
	for i, c := range n.children {
		c.idx = i
		c.idxValid = true
	}
	n.childrenDirty = false
}

// SiblingIndex returns this node's position within its parent's child
// list, reindexing the parent first if a mutation has invalidated the
// cache. Returns 0 for a detached or root node.
func (n *Node) SiblingIndex() int {
	if n.parent == nil {
		return 0
	}
	if n.parent.childrenDirty || !n.idxValid {
		n.parent.reindexChildren()
	}
	return n.idx
}

// Remove detaches n from its parent. No-op if already detached.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	i := n.SiblingIndex()
	p.children = append(p.children[:i], p.children[i+1:]...)
	n.parent = nil
	n.idxValid = false
	p.markChildrenDirty()
}

// Empty removes all of n's children, detaching each.
func (n *Node) Empty() {
	for _, c := range n.children {
		c.parent = nil
		c.idxValid = false
	}
	n.children = nil
	n.childrenDirty = false
}

// Before inserts sibling immediately before n in n's parent's child list.
func (n *Node) Before(sibling *Node) {
	if n.parent == nil {
		panic("dom: Before called on a detached Node")
	}
	n.parent.insertAt(n.SiblingIndex(), sibling)
}

// After inserts sibling immediately after n in n's parent's child list.
func (n *Node) After(sibling *Node) {
	if n.parent == nil {
		panic("dom: After called on a detached Node")
	}
	n.parent.insertAt(n.SiblingIndex()+1, sibling)
}

// ReplaceWith swaps n for replacement at n's current position, detaching n.
func (n *Node) ReplaceWith(replacement *Node) {
	n.Before(replacement)
	n.Remove()
}

// Wrap inserts wrapper at n's position and reparents n as wrapper's
// (innermost, if wrapper already has descendants) child. wrapper must be
// a detached Element.
func (n *Node) Wrap(wrapper *Node) {
	n.Before(wrapper)
	n.Remove()
	deepest := wrapper
	for len(deepest.children) > 0 {
		deepest = deepest.children[len(deepest.children)-1]
	}
	deepest.AppendChild(n)
}

// Unwrap removes n but promotes its children to n's former position,
// preserving their order.
func (n *Node) Unwrap() {
	p := n.parent
	if p == nil {
		panic("dom: Unwrap called on a detached Node")
	}
	kids := append([]*Node(nil), n.children...)
	n.Empty()
	at := n.SiblingIndex()
	n.Remove()
	for i, k := range kids {
		p.insertAt(at+i, k)
	}
}

// Text returns the concatenation of all descendant text-node data, in
// document order (a simplified analogue of jsoup's whitespace-normalizing
// text()).
func (n *Node) Text() string {
	var sb strings.Builder
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Type == TextNode {
			sb.WriteString(cur.CoreValue())
			return
		}
		for _, c := range cur.children {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// SetText replaces all of n's children with a single text node holding
// text.
func (n *Node) SetText(text string) {
	n.Empty()
	n.AppendChild(NewText(text))
}

// Children returns n's child nodes. The returned slice must not be
// mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// FirstChild, LastChild return n's first/last child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *Node) LastChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// PreviousSibling, NextSibling walk n's parent's child list.
func (n *Node) PreviousSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.SiblingIndex()
	if i == 0 {
		return nil
	}
	return n.parent.children[i-1]
}

func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.SiblingIndex()
	if i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

// FirstElementChild, LastElementChild, NextElementSibling,
// PreviousElementSibling skip non-Element siblings.
func (n *Node) FirstElementChild() *Node {
	for _, c := range n.children {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

func (n *Node) LastElementChild() *Node {
	for i := len(n.children) - 1; i >= 0; i-- {
		if n.children[i].Type == ElementNode {
			return n.children[i]
		}
	}
	return nil
}

func (n *Node) NextElementSibling() *Node {
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		if s.Type == ElementNode {
			return s
		}
	}
	return nil
}

func (n *Node) PreviousElementSibling() *Node {
	for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		if s.Type == ElementNode {
			return s
		}
	}
	return nil
}

// Parent returns n's parent, or nil if detached.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the topmost ancestor of n (n itself if already detached at
// the root).
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// OwnerDocument walks up to the nearest DocumentNode ancestor, or nil if
// the tree n belongs to was never rooted in one.
func (n *Node) OwnerDocument() *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Type == DocumentNode {
			return cur
		}
	}
	return nil
}
