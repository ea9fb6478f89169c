package tagsoup

import "strings"

// Strings lists the data of all text nodes at or below n in document order
func (n *Node) Strings() []string {
	texts := []string{}
	if n == nil {
		return texts
	}
	if n.nodeType == TextNode {
		return append(texts, n.data)
	}
	n.Walk(func(node *Node) bool {
		if node.nodeType == TextNode {
			texts = append(texts, node.data)
		}
		return true
	})
	return texts
}

// Text concatenates all text at or below n without separators. Comments
// and doctypes are not text.
func (n *Node) Text() string {
	return strings.Join(n.Strings(), "")
}

// TextWith joins the texts with separator, strip trims every text and drops
// the empty ones.
func (n *Node) TextWith(separator string, strip bool) string {
	texts := n.Strings()
	if strip {
		stripped := make([]string, 0, len(texts))
		for _, t := range texts {
			if t = strings.TrimSpace(t); t != "" {
				stripped = append(stripped, t)
			}
		}
		texts = stripped
	}
	return strings.Join(texts, separator)
}
