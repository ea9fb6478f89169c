package tagsoup

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Select descendants with a css selector
func (n *Node) Select(selector string) ([]*Node, error) {
	if n == nil {
		return []*Node{}, nil
	}
	matcher, errCompile := cascadia.Compile(selector)
	if errCompile != nil {
		return nil, errCompile
	}
	return n.doc.lookup(n.Selection().FindMatcher(matcher).Nodes), nil
}

// XPath evaluates an xpath expression with n as the context node. Selected
// attributes like //a/@href come back as detached text nodes holding the
// attribute value.
func (n *Node) XPath(expr string) ([]*Node, error) {
	if n == nil {
		return []*Node{}, nil
	}
	rawNodes, errQuery := htmlquery.QueryAll(n.raw, expr)
	if errQuery != nil {
		return nil, errQuery
	}
	nodes := make([]*Node, 0, len(rawNodes))
	for _, raw := range rawNodes {
		if node, ok := n.doc.nodes[raw]; ok {
			nodes = append(nodes, node)
			continue
		}
		// htmlquery wraps attribute values in a new element around one text node
		if raw.Parent == nil && raw.FirstChild != nil && raw.FirstChild.Type == html.TextNode {
			nodes = append(nodes, &Node{
				nodeType: TextNode,
				data:     raw.FirstChild.Data,
				raw:      raw.FirstChild,
				doc:      n.doc,
			})
		}
	}
	return nodes, nil
}

// Selection wraps the node for goquery. The tree must be treated as read only,
// goquery manipulations are not reflected in the Node tree.
func (n *Node) Selection() *goquery.Selection {
	if n == nil {
		return &goquery.Selection{}
	}
	return goquery.NewDocumentFromNode(n.raw).Selection
}
