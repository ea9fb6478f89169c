package tagsoup

import (
	"errors"
	"strings"
)

// ErrMissingAttribute is matched by every MissingAttributeError
var ErrMissingAttribute = errors.New("missing attribute")

// MissingAttributeError is returned, when an element does not carry a
// requested attribute. That a tag can not be found is not an error.
type MissingAttributeError struct {
	Element   string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	element := e.Element
	if element == "" {
		element = "non element node"
	}
	return "missing attribute " + e.Attribute + " on <" + element + ">"
}

func (e *MissingAttributeError) Is(target error) bool {
	return target == ErrMissingAttribute
}

// Attrs returns a copy of the attributes in source order
func (n *Node) Attrs() []Attribute {
	if n == nil {
		return []Attribute{}
	}
	attrs := make([]Attribute, len(n.attr))
	copy(attrs, n.attr)
	return attrs
}

func (n *Node) lookupAttr(name string) (value string, ok bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// Attr value by name or a *MissingAttributeError
func (n *Node) Attr(name string) (string, error) {
	value, ok := n.lookupAttr(name)
	if !ok {
		return "", &MissingAttributeError{Element: n.Name(), Attribute: name}
	}
	return value, nil
}

// AttrOr returns fallback for a missing attribute
func (n *Node) AttrOr(name, fallback string) string {
	value, ok := n.lookupAttr(name)
	if !ok {
		return fallback
	}
	return value
}

func (n *Node) HasAttr(name string) bool {
	_, ok := n.lookupAttr(name)
	return ok
}

// Tokens of a token set attribute like class. Single valued attributes are
// returned as one token.
func (n *Node) Tokens(name string) ([]string, error) {
	value, errAttr := n.Attr(name)
	if errAttr != nil {
		return nil, errAttr
	}
	if !IsMultiValued(n.data, name) {
		return []string{value}, nil
	}
	return strings.Fields(value), nil
}
