package tagsoup

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// Document is the root of a parsed tree, all queries of Node are available on it
type Document struct {
	*Node
	nodes map[*html.Node]*Node
}

type parseOptions struct {
	normalize bool
	sanitizer *bluemonday.Policy
}

type Option func(o *parseOptions)

// WithNormalizedWhitespace drops whitespace only text nodes outside of <pre> and <textarea>
func WithNormalizedWhitespace() Option {
	return func(o *parseOptions) {
		o.normalize = true
	}
}

// WithSanitizer runs the markup through a bluemonday policy before parsing
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(o *parseOptions) {
		o.sanitizer = policy
	}
}

// SanitizePolicy is bluemonday's user generated content policy extended by
// the document structure elements, so that titles and meta data survive.
func SanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowElements("html", "head", "body", "title", "meta", "link")
	p.AllowAttrs("name", "content", "charset").OnElements("meta")
	p.AllowAttrs("rel", "href").OnElements("link")
	return p
}

func getOptions(opts []Option) *parseOptions {
	o := &parseOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Parse markup into a document. Parsing never fails, malformed markup is
// recovered the way an HTML5 browser does it: missing html, head and body
// elements are implied, unclosed tags are closed and misnested formatting
// elements are reparented.
func Parse(markup string, opts ...Option) *Document {
	o := getOptions(opts)
	if o.sanitizer != nil {
		markup = o.sanitizer.Sanitize(markup)
	}
	raw, errParse := html.Parse(strings.NewReader(markup))
	if errParse != nil {
		// a strings.Reader does not fail, keep the tree total anyway
		raw = &html.Node{Type: html.DocumentNode}
	}
	return newDocument(raw, o)
}

// ParseFragment parses markup as the content of a context element, default
// is body. No html, head or body elements are implied.
func ParseFragment(markup string, context string, opts ...Option) *Document {
	o := getOptions(opts)
	if o.sanitizer != nil {
		markup = o.sanitizer.Sanitize(markup)
	}
	if context == "" {
		context = "body"
	}
	context = strings.ToLower(context)
	contextNode := &html.Node{
		Type:     html.ElementNode,
		Data:     context,
		DataAtom: atom.Lookup([]byte(context)),
	}
	raw := &html.Node{Type: html.DocumentNode}
	nodes, errParse := html.ParseFragment(strings.NewReader(markup), contextNode)
	if errParse == nil {
		for _, n := range nodes {
			raw.AppendChild(n)
		}
	}
	return newDocument(raw, o)
}

// ParseReader reads and decodes markup to utf-8 before parsing it. Only
// errors of the reader are returned.
func ParseReader(r io.Reader, contentType string, opts ...Option) (*Document, error) {
	data, errRead := io.ReadAll(r)
	if errRead != nil {
		return nil, errRead
	}
	return ParseBytes(data, contentType, opts...)
}

// ParseBytes decodes data to utf-8 and parses it. The encoding is taken from
// a byte order mark or the content type, then valid utf-8 is assumed, then a
// <meta> declaration and finally a statistical guess.
func ParseBytes(data []byte, contentType string, opts ...Option) (*Document, error) {
	return Parse(decode(data, contentType), opts...), nil
}

func decode(data []byte, contentType string) string {
	e, name, certain := charset.DetermineEncoding(data, contentType)
	if !certain {
		if utf8.Valid(data) {
			return strings.TrimPrefix(string(data), "\ufeff")
		}
		if name == "windows-1252" {
			// that is also the fallback, when nothing was declared
			if detected := detectCharset(data); detected != "" {
				if detectedEncoding, detectedName := charset.Lookup(detected); detectedEncoding != nil {
					e, name = detectedEncoding, detectedName
				}
			}
		}
	}
	if name == "utf-8" {
		return strings.TrimPrefix(string(data), "\ufeff")
	}
	decoded, errDecode := e.NewDecoder().Bytes(data)
	if errDecode != nil {
		return string(data)
	}
	return string(decoded)
}

func detectCharset(data []byte) string {
	result, errDetect := chardet.NewHtmlDetector().DetectBest(data)
	if errDetect != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}

func newDocument(raw *html.Node, o *parseOptions) *Document {
	doc := &Document{
		nodes: map[*html.Node]*Node{},
	}
	doc.Node = doc.build(raw, nil, o.normalize)
	return doc
}

func (doc *Document) build(raw *html.Node, parent *Node, normalize bool) *Node {
	n := &Node{
		data:   raw.Data,
		parent: parent,
		raw:    raw,
		doc:    doc,
	}
	switch raw.Type {
	case html.DocumentNode:
		n.nodeType = DocumentNode
	case html.ElementNode:
		n.nodeType = ElementNode
		n.attr = make([]Attribute, 0, len(raw.Attr))
		for _, a := range raw.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			n.attr = append(n.attr, Attribute{Key: key, Val: a.Val})
		}
	case html.TextNode:
		n.nodeType = TextNode
	case html.CommentNode:
		n.nodeType = CommentNode
	case html.DoctypeNode:
		n.nodeType = DoctypeNode
	default:
		return nil
	}
	doc.nodes[raw] = n
	if raw.DataAtom == atom.Pre || raw.DataAtom == atom.Textarea {
		normalize = false
	}
	child := raw.FirstChild
	for child != nil {
		next := child.NextSibling
		if normalize && child.Type == html.TextNode && isWhitespace(child.Data) {
			raw.RemoveChild(child)
			child = next
			continue
		}
		if childNode := doc.build(child, n, normalize); childNode != nil {
			childNode.index = len(n.children)
			n.children = append(n.children, childNode)
		}
		child = next
	}
	return n
}

func (doc *Document) lookup(raw []*html.Node) []*Node {
	nodes := make([]*Node, 0, len(raw))
	for _, r := range raw {
		if n, ok := doc.nodes[r]; ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
