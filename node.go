package tagsoup

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// NodeType is the kind of a node in a document tree
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case DoctypeNode:
		return "doctype"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key string
	Val string
}

// Node is an element, a piece of text, a comment, a doctype or the document
// root. Nodes are owned by their Document and never change after parsing.
type Node struct {
	nodeType NodeType
	data     string
	attr     []Attribute
	children []*Node
	parent   *Node
	index    int
	raw      *html.Node
	doc      *Document
}

// Type of the node, a nil node is reported as a DocumentNode without children
func (n *Node) Type() NodeType {
	if n == nil {
		return DocumentNode
	}
	return n.nodeType
}

// Name is the tag name of an element and "" for everything else
func (n *Node) Name() string {
	if n == nil || n.nodeType != ElementNode {
		return ""
	}
	return n.data
}

// Data is the tag name of an element or the character data of text, comments
// and doctypes.
func (n *Node) Data() string {
	if n == nil {
		return ""
	}
	return n.data
}

func (n *Node) IsElement() bool {
	return n != nil && n.nodeType == ElementNode
}

func (n *Node) IsText() bool {
	return n != nil && n.nodeType == TextNode
}

// Children returns a copy of the child sequence
func (n *Node) Children() []*Node {
	if n == nil {
		return []*Node{}
	}
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	return children
}

// Walk visits the descendants of n in document order. Returning false from
// visit skips the subtree below the visited node.
func (n *Node) Walk(visit func(node *Node) bool) {
	if n == nil {
		return
	}
	for _, child := range n.children {
		if visit(child) {
			child.Walk(visit)
		}
	}
}

// Render writes the markup of the node and its descendants
func (n *Node) Render(w io.Writer) error {
	if n == nil {
		return nil
	}
	return html.Render(w, n.raw)
}

func (n *Node) String() string {
	buf := &bytes.Buffer{}
	if err := n.Render(buf); err != nil {
		return ""
	}
	return buf.String()
}

func isWhitespace(s string) bool {
	return strings.TrimSpace(s) == ""
}
