package tagsoup

import (
	"regexp"
	"strings"
)

// token set attributes, "*" applies to every element
var multiValuedAttributes = map[string][]string{
	"*":      {"class", "accesskey", "dropzone"},
	"a":      {"rel", "rev"},
	"link":   {"rel", "rev"},
	"td":     {"headers"},
	"th":     {"headers"},
	"form":   {"accept-charset"},
	"object": {"archive"},
	"area":   {"rel"},
	"icon":   {"sizes"},
	"iframe": {"sandbox"},
	"output": {"for"},
}

// IsMultiValued tells, if attr holds a whitespace separated token set on elements of tagName
func IsMultiValued(tagName, attr string) bool {
	attr = strings.ToLower(attr)
	for _, key := range []string{"*", strings.ToLower(tagName)} {
		for _, name := range multiValuedAttributes[key] {
			if name == attr {
				return true
			}
		}
	}
	return false
}

type attrValue struct {
	present bool
	multi   bool
	raw     string
	tokens  []string
}

func (v attrValue) containsTokens(tokens []string) bool {
TokenLoop:
	for _, token := range tokens {
		for _, t := range v.tokens {
			if t == token {
				continue TokenLoop
			}
		}
		return false
	}
	return true
}

// Matcher decides on the value of an attribute
type Matcher interface {
	matchValue(v attrValue) bool
	String() string
}

type matcherIs struct {
	value string
}

// Is a literal. For token set attributes like class all tokens of value must
// be contained in the attribute, their order and other tokens do not matter.
func Is(value string) Matcher {
	return &matcherIs{value: value}
}

func (m *matcherIs) matchValue(v attrValue) bool {
	if !v.present {
		return false
	}
	if v.raw == m.value {
		return true
	}
	if v.multi {
		tokens := strings.Fields(m.value)
		return len(tokens) > 0 && v.containsTokens(tokens)
	}
	return false
}

func (m *matcherIs) String() string {
	return "=" + m.value
}

type matcherRegex struct {
	regex *regexp.Regexp
}

// Match a regular expression. On token set attributes the whole value or any
// single token may match. A nil regex matches nothing.
func Match(regex *regexp.Regexp) Matcher {
	return &matcherRegex{regex: regex}
}

func (m *matcherRegex) matchValue(v attrValue) bool {
	if !v.present || m.regex == nil {
		return false
	}
	if m.regex.MatchString(v.raw) {
		return true
	}
	if v.multi {
		for _, token := range v.tokens {
			if m.regex.MatchString(token) {
				return true
			}
		}
	}
	return false
}

func (m *matcherRegex) String() string {
	if m.regex == nil {
		return "~<nil>"
	}
	return "~" + m.regex.String()
}

type matcherOneOf struct {
	values []*matcherIs
}

// OneOf a set of literals, each is matched like Is
func OneOf(values ...string) Matcher {
	m := &matcherOneOf{}
	for _, value := range values {
		m.values = append(m.values, &matcherIs{value: value})
	}
	return m
}

func (m *matcherOneOf) matchValue(v attrValue) bool {
	for _, value := range m.values {
		if value.matchValue(v) {
			return true
		}
	}
	return false
}

func (m *matcherOneOf) String() string {
	values := make([]string, len(m.values))
	for i, value := range m.values {
		values[i] = value.value
	}
	return " in (" + strings.Join(values, ",") + ")"
}

type matcherPresence bool

// Exists matches any value of a present attribute
func Exists() Matcher {
	return matcherPresence(true)
}

// Missing matches elements without the attribute
func Missing() Matcher {
	return matcherPresence(false)
}

func (m matcherPresence) matchValue(v attrValue) bool {
	return v.present == bool(m)
}

func (m matcherPresence) String() string {
	if m {
		return " exists"
	}
	return " missing"
}

// Filter restricts matching elements by one attribute
type Filter struct {
	attr    string
	matcher Matcher
}

// Attr filters on the named attribute, a nil matcher means Exists
func Attr(name string, m Matcher) Filter {
	if m == nil {
		m = Exists()
	}
	return Filter{attr: strings.ToLower(name), matcher: m}
}

func ID(value string) Filter {
	return Attr("id", Is(value))
}

// Class filters on the class token set. It is named apart from Attr only
// because class is a reserved word in many languages, the matching is the same.
func Class(m Matcher) Filter {
	return Attr("class", m)
}

// HasClass requires every given token in the class attribute
func HasClass(tokens ...string) Filter {
	return Class(Is(strings.Join(tokens, " ")))
}

func (f Filter) String() string {
	return "[" + f.attr + f.matcherOrExists().String() + "]"
}

// matcherOrExists is the matcher, the zero Filter requires the attribute to exist
func (f Filter) matcherOrExists() Matcher {
	if f.matcher == nil {
		return Exists()
	}
	return f.matcher
}

func (f Filter) matchNode(n *Node) bool {
	v := attrValue{}
	for _, a := range n.attr {
		if strings.EqualFold(a.Key, f.attr) {
			v.present = true
			v.raw = a.Val
			break
		}
	}
	if v.present && IsMultiValued(n.data, f.attr) {
		v.multi = true
		v.tokens = strings.Fields(v.raw)
	}
	return f.matcherOrExists().matchValue(v)
}

// Matches tells, if n is an element with the given name, that satisfies all
// filters. An empty name matches every element.
func (n *Node) Matches(name string, filters ...Filter) bool {
	if n == nil || n.nodeType != ElementNode {
		return false
	}
	if name != "" && !strings.EqualFold(n.data, name) {
		return false
	}
	for _, f := range filters {
		if !f.matchNode(n) {
			return false
		}
	}
	return true
}
