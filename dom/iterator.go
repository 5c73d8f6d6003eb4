package dom

// NodeIterator walks a subtree in document (pre-order) order. Unlike a
// pre-computed stack, each Next() call re-derives the following node from
// the last one actually emitted, using live parent/children/sibling
// pointers — so if the caller detaches the just-emitted node (or an
// ancestor of it) before calling Next() again, the iterator notices (its
// parent is now nil) and resumes from the last known-good node instead of
// chasing stale pointers into a removed subtree.
type NodeIterator struct {
	root    *Node
	cur     *Node // last emitted node, or nil before the first Next()
	prevGood *Node // the node before cur, kept for recovery
	done    bool
}

// NewNodeIterator returns an iterator over root's subtree (root included).
func NewNodeIterator(root *Node) *NodeIterator {
	return &NodeIterator{root: root}
}

// HasNext reports whether another node remains.
func (it *NodeIterator) HasNext() bool {
	if it.done {
		return false
	}
	return it.peekNext() != nil
}

// Next returns the next node in document order, or nil when exhausted.
func (it *NodeIterator) Next() *Node {
	if it.done {
		return nil
	}
	n := it.peekNext()
	if n == nil {
		it.done = true
		return nil
	}
	it.prevGood = it.cur
	it.cur = n
	return n
}

// peekNext computes the following node without mutating iterator state
// beyond what cur/prevGood already record.
func (it *NodeIterator) peekNext() *Node {
	from := it.cur
	if from == nil {
		return it.root
	}
	if from.parent == nil && from != it.root {
		// from was detached since it was emitted: recover from the last
		// known-good position instead of trusting from's stale pointers.
		from = it.prevGood
		if from == nil {
			return nil
		}
	}
	if len(from.children) > 0 {
		return from.children[0]
	}
	return it.nextAfter(from)
}

// nextAfter finds the next node in document order after n's subtree,
// walking up through ancestors until one has a following sibling.
func (it *NodeIterator) nextAfter(n *Node) *Node {
	cur := n
	for cur != it.root && cur.parent != nil {
		if sib := cur.NextSibling(); sib != nil {
			return sib
		}
		cur = cur.parent
	}
	return nil
}
