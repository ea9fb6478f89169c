package extract

import (
	"net/url"
	"strings"

	"github.com/foomo/tagsoup"
)

// LinkList counts how often a link occurs
type LinkList map[string]int

// ResolveLink resolves link against base. Anchors are dropped, the user info
// of base is kept for links to the same host.
func ResolveLink(base *url.URL, link string) (resolved *url.URL, err error) {
	// let us ditch anchors
	link = strings.Split(link, "#")[0]
	u, errParse := url.Parse(strings.TrimSpace(link))
	if errParse != nil {
		return nil, errParse
	}
	if base == nil {
		return u, nil
	}
	resolved = base.ResolveReference(u)
	if base.User != nil && resolved.Host == base.Host {
		resolved.User = base.User
	}
	resolved.Fragment = ""
	return resolved, nil
}

// ExtractLinks counts the resolved href of every <a>, links that do not
// parse are ignored
func ExtractLinks(doc *tagsoup.Document, base *url.URL) LinkList {
	links := LinkList{}
	for _, a := range doc.FindAll("a", tagsoup.Attr("href", tagsoup.Exists())) {
		href := a.AttrOr("href", "")
		if href == "" {
			continue
		}
		link, errResolve := ResolveLink(base, href)
		if errResolve != nil {
			continue
		}
		links[link.String()]++
	}
	return links
}
