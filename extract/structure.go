package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/foomo/tagsoup"
)

type Heading struct {
	Level int
	Text  string
}

type LinkedData struct {
	Context string `json:"@context"`
	Type    string `json:"@type"`
}

// Structure of a page as search engines see it
type Structure struct {
	Title       string
	Description string
	Headings    []Heading
	Robots      string
	LinkedData  []LinkedData
	Canonical   string
	LinkPrev    string
	LinkNext    string
	Links       LinkList
}

// ExtractStructure reads the structure of doc. Invalid json-ld blocks are
// skipped and reported in err, s is filled anyway.
func ExtractStructure(doc *tagsoup.Document, base *url.URL) (s Structure, err error) {
	s = Structure{
		Title:       doc.Find("title").Text(),
		Description: doc.Find("meta", tagsoup.Attr("name", tagsoup.Is("description"))).AttrOr("content", ""),
		Robots:      doc.Find("meta", tagsoup.Attr("name", tagsoup.Is("robots"))).AttrOr("content", ""),
		Links:       ExtractLinks(doc, base),
	}
	for _, link := range doc.FindAll("link", tagsoup.Attr("rel", tagsoup.OneOf("prev", "next", "canonical")), tagsoup.Attr("href", nil)) {
		href := link.AttrOr("href", "")
		rels, _ := link.Tokens("rel")
		for _, rel := range rels {
			switch rel {
			case "canonical":
				s.Canonical = href
			case "prev":
				s.LinkPrev = href
			case "next":
				s.LinkNext = href
			}
		}
	}
	errs := []error{}
	for i, script := range doc.FindAll("script", tagsoup.Attr("type", tagsoup.Is("application/ld+json"))) {
		ld := LinkedData{}
		if errUnmarshal := json.Unmarshal([]byte(script.Text()), &ld); errUnmarshal != nil {
			errs = append(errs, fmt.Errorf("json-ld block %d: %w", i, errUnmarshal))
			continue
		}
		s.LinkedData = append(s.LinkedData, ld)
	}
	headings, errSelect := doc.Select("h1, h2, h3, h4, h5, h6")
	if errSelect != nil {
		errs = append(errs, errSelect)
	}
	for _, h := range headings {
		s.Headings = append(s.Headings, Heading{
			Level: int(h.Name()[1] - '0'),
			Text:  h.Text(),
		})
	}
	return s, errors.Join(errs...)
}
