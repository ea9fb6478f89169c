// Package extract turns parsed documents into records.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/foomo/tagsoup"
	"github.com/foomo/tagsoup/record"
)

type Kind string

const (
	KindText  Kind = "text"
	KindAttr  Kind = "attr"
	KindCount Kind = "count"
)

// MissingPolicy decides what happens to elements without the requested attribute
type MissingPolicy string

const (
	// MissingSkip ignores such elements
	MissingSkip MissingPolicy = "skip"
	// MissingEmpty uses an empty string
	MissingEmpty MissingPolicy = "empty"
	// MissingFail fails the extraction of the document
	MissingFail MissingPolicy = "fail"
)

// ErrNoMatch is returned for single match fields with missing: fail, when
// nothing matched
var ErrNoMatch = errors.New("no matching element")

// Field describes how one record field is read from a document. Elements are
// found by tag, css selector or xpath and can be narrowed with attribute
// filters.
type Field struct {
	Name      string              `yaml:"name"`
	Tag       string              `yaml:"tag"`
	Selector  string              `yaml:"selector"`
	XPath     string              `yaml:"xpath"`
	Attrs     map[string]string   `yaml:"attrs"`
	Patterns  map[string]string   `yaml:"patterns"`
	OneOf     map[string][]string `yaml:"oneof"`
	Class     []string            `yaml:"class"`
	Kind      Kind                `yaml:"kind"`
	Attr      string              `yaml:"attr"`
	All       bool                `yaml:"all"`
	Separator string              `yaml:"separator"`
	Strip     bool                `yaml:"strip"`
	Resolve   bool                `yaml:"resolve"`
	Missing   MissingPolicy       `yaml:"missing"`
}

// DefaultFields is the record of a page title, its first h2 and the number of links
func DefaultFields() []Field {
	return []Field{
		{Name: "title_text", Tag: "title", Kind: KindText},
		{Name: "h2_text", Tag: "h2", Kind: KindText},
		{Name: "num_links", Tag: "a", Kind: KindCount},
	}
}

type compiledField struct {
	Field
	tagName string
	filters []tagsoup.Filter
}

// Extractor reads records from documents, it is safe for concurrent use
type Extractor struct {
	fields []*compiledField
}

func New(fields []Field) (*Extractor, error) {
	e := &Extractor{}
	names := map[string]bool{}
	for _, f := range fields {
		cf, errCompile := compile(f)
		if errCompile != nil {
			return nil, errCompile
		}
		if names[f.Name] {
			return nil, errors.New("duplicate field name " + f.Name)
		}
		names[f.Name] = true
		e.fields = append(e.fields, cf)
	}
	return e, nil
}

// Names of the fields in record order
func (e *Extractor) Names() []string {
	names := make([]string, len(e.fields))
	for i, f := range e.fields {
		names[i] = f.Name
	}
	return names
}

func compile(f Field) (cf *compiledField, err error) {
	if f.Name == "" {
		return nil, errors.New("a field needs a name")
	}
	targets := 0
	for _, target := range []string{f.Tag, f.Selector, f.XPath} {
		if target != "" {
			targets++
		}
	}
	if targets != 1 {
		return nil, fmt.Errorf("field %q needs exactly one of tag, selector or xpath", f.Name)
	}
	if f.Kind == "" {
		f.Kind = KindText
	}
	if f.Missing == "" {
		f.Missing = MissingSkip
	}
	if f.Separator == "" {
		f.Separator = " "
	}
	switch f.Kind {
	case KindText, KindCount:
	case KindAttr:
		if f.Attr == "" {
			return nil, fmt.Errorf("field %q of kind attr needs an attr", f.Name)
		}
	default:
		return nil, fmt.Errorf("field %q has unknown kind %q", f.Name, f.Kind)
	}
	switch f.Missing {
	case MissingSkip, MissingEmpty, MissingFail:
	default:
		return nil, fmt.Errorf("field %q has unknown missing policy %q", f.Name, f.Missing)
	}
	// an empty document tells, if the expressions compile
	probe := tagsoup.Parse("")
	if f.Selector != "" {
		if _, errSelect := probe.Select(f.Selector); errSelect != nil {
			return nil, fmt.Errorf("field %q: invalid selector: %w", f.Name, errSelect)
		}
	}
	if f.XPath != "" {
		if _, errXPath := probe.XPath(f.XPath); errXPath != nil {
			return nil, fmt.Errorf("field %q: invalid xpath: %w", f.Name, errXPath)
		}
	}
	cf = &compiledField{Field: f, tagName: f.Tag}
	if cf.tagName == "*" {
		cf.tagName = ""
	}
	for _, name := range sortedKeys(f.Attrs) {
		cf.filters = append(cf.filters, tagsoup.Attr(name, tagsoup.Is(f.Attrs[name])))
	}
	for _, name := range sortedKeys(f.Patterns) {
		regex, errRegex := regexp.Compile(f.Patterns[name])
		if errRegex != nil {
			return nil, fmt.Errorf("field %q: invalid pattern for %s: %w", f.Name, name, errRegex)
		}
		cf.filters = append(cf.filters, tagsoup.Attr(name, tagsoup.Match(regex)))
	}
	for _, name := range sortedKeys(f.OneOf) {
		cf.filters = append(cf.filters, tagsoup.Attr(name, tagsoup.OneOf(f.OneOf[name]...)))
	}
	if len(f.Class) > 0 {
		cf.filters = append(cf.filters, tagsoup.HasClass(f.Class...))
	}
	return cf, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (cf *compiledField) find(doc *tagsoup.Document) (nodes []*tagsoup.Node, err error) {
	switch {
	case cf.Selector != "":
		nodes, err = doc.Select(cf.Selector)
	case cf.XPath != "":
		nodes, err = doc.XPath(cf.XPath)
	default:
		return doc.FindAll(cf.tagName, cf.filters...), nil
	}
	if err != nil {
		return nil, err
	}
	if len(cf.filters) == 0 {
		return nodes, nil
	}
	filtered := []*tagsoup.Node{}
	for _, n := range nodes {
		if n.Matches("", cf.filters...) {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

func (cf *compiledField) text(n *tagsoup.Node) string {
	if cf.Strip {
		return n.TextWith(" ", true)
	}
	return n.Text()
}

// attr returns ok false, when the element is to be skipped
func (cf *compiledField) attr(n *tagsoup.Node, base *url.URL) (value string, ok bool, err error) {
	value, errAttr := n.Attr(cf.Attr)
	if errAttr != nil {
		switch cf.Missing {
		case MissingFail:
			return "", false, errAttr
		case MissingEmpty:
			return "", true, nil
		default:
			return "", false, nil
		}
	}
	if cf.Strip {
		value = strings.TrimSpace(value)
	}
	if cf.Resolve {
		resolved, errResolve := ResolveLink(base, value)
		if errResolve != nil {
			return "", false, errResolve
		}
		value = resolved.String()
	}
	return value, true, nil
}

func (cf *compiledField) value(doc *tagsoup.Document, base *url.URL) (interface{}, error) {
	nodes, errFind := cf.find(doc)
	if errFind != nil {
		return nil, errFind
	}
	if cf.Kind == KindCount {
		return len(nodes), nil
	}
	values := []string{}
	for _, n := range nodes {
		if !cf.All && len(values) > 0 {
			break
		}
		switch cf.Kind {
		case KindText:
			values = append(values, cf.text(n))
		case KindAttr:
			value, ok, errAttr := cf.attr(n, base)
			if errAttr != nil {
				return nil, errAttr
			}
			if ok {
				values = append(values, value)
			}
		}
	}
	if !cf.All && len(nodes) == 0 && cf.Missing == MissingFail {
		return nil, ErrNoMatch
	}
	return strings.Join(values, cf.Separator), nil
}

// Extract a record from doc, base is the location of the document and may be nil
func (e *Extractor) Extract(doc *tagsoup.Document, base *url.URL) (*record.Record, error) {
	r := record.New()
	for _, cf := range e.fields {
		value, errValue := cf.value(doc, base)
		if errValue != nil {
			return nil, fmt.Errorf("field %q: %w", cf.Name, errValue)
		}
		r.Set(cf.Name, value)
	}
	return r, nil
}
