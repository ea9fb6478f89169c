package tagsoup

// Find the first descendant element in document order with the given name
// matching all filters. Not the node itself, nil when there is none.
func (n *Node) Find(name string, filters ...Filter) *Node {
	found := n.FindAllLimit(name, 1, filters...)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// FindAll descendant elements in document order, never nil
func (n *Node) FindAll(name string, filters ...Filter) []*Node {
	return n.FindAllLimit(name, 0, filters...)
}

// FindAllLimit stops after limit matches, a limit <= 0 finds all
func (n *Node) FindAllLimit(name string, limit int, filters ...Filter) []*Node {
	found := []*Node{}
	n.Walk(func(node *Node) bool {
		if limit > 0 && len(found) >= limit {
			return false
		}
		if node.Matches(name, filters...) {
			found = append(found, node)
		}
		return true
	})
	return found
}

// Parent is nil only for the root
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// FindParent returns the closest matching ancestor
func (n *Node) FindParent(name string, filters ...Filter) *Node {
	for p := n.Parent(); p != nil; p = p.parent {
		if p.Matches(name, filters...) {
			return p
		}
	}
	return nil
}

// FindParents returns all matching ancestors from the closest outwards
func (n *Node) FindParents(name string, filters ...Filter) []*Node {
	parents := []*Node{}
	for p := n.Parent(); p != nil; p = p.parent {
		if p.Matches(name, filters...) {
			parents = append(parents, p)
		}
	}
	return parents
}

func (n *Node) siblings() []*Node {
	if n == nil || n.parent == nil {
		return nil
	}
	return n.parent.children
}

// NextSibling of any type, nil for the last child
func (n *Node) NextSibling() *Node {
	siblings := n.siblings()
	if n == nil || n.index+1 >= len(siblings) {
		return nil
	}
	return siblings[n.index+1]
}

// PrevSibling of any type, nil for the first child
func (n *Node) PrevSibling() *Node {
	siblings := n.siblings()
	if n == nil || n.index == 0 || len(siblings) == 0 {
		return nil
	}
	return siblings[n.index-1]
}

// NextSiblings in document order
func (n *Node) NextSiblings() []*Node {
	next := []*Node{}
	siblings := n.siblings()
	if len(siblings) == 0 {
		return next
	}
	return append(next, siblings[n.index+1:]...)
}

// PrevSiblings starting with the closest one
func (n *Node) PrevSiblings() []*Node {
	prev := []*Node{}
	siblings := n.siblings()
	for i := n.Index() - 1; i >= 0 && len(siblings) > 0; i-- {
		prev = append(prev, siblings[i])
	}
	return prev
}

// Index of the node in the children of its parent
func (n *Node) Index() int {
	if n == nil {
		return 0
	}
	return n.index
}

func filterNodes(nodes []*Node, limit int, name string, filters []Filter) []*Node {
	matching := []*Node{}
	for _, node := range nodes {
		if limit > 0 && len(matching) >= limit {
			break
		}
		if node.Matches(name, filters...) {
			matching = append(matching, node)
		}
	}
	return matching
}

// FindNextSibling returns the next matching sibling element
func (n *Node) FindNextSibling(name string, filters ...Filter) *Node {
	return first(filterNodes(n.NextSiblings(), 1, name, filters))
}

// FindNextSiblings returns all following matching sibling elements
func (n *Node) FindNextSiblings(name string, filters ...Filter) []*Node {
	return filterNodes(n.NextSiblings(), 0, name, filters)
}

// FindPrevSibling returns the closest preceding matching sibling element
func (n *Node) FindPrevSibling(name string, filters ...Filter) *Node {
	return first(filterNodes(n.PrevSiblings(), 1, name, filters))
}

// FindPrevSiblings returns preceding matching sibling elements, closest first
func (n *Node) FindPrevSiblings(name string, filters ...Filter) []*Node {
	return filterNodes(n.PrevSiblings(), 0, name, filters)
}

func first(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}
