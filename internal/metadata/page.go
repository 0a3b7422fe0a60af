package metadata

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// page holds the first occurrence of every metadata source found in a
// document. Fallback ordering is applied later by the accessors.
type page struct {
	docTitle string
	firstH1  string

	meta  map[string]string // "name:description", "property:og:title", ...
	links map[string]string // rel value -> href
}

// candidate yields one possible value for a field.
type candidate func() string

// firstNonEmpty evaluates candidates in priority order and returns the first
// non-empty value.
func firstNonEmpty(candidates ...candidate) string {
	for _, c := range candidates {
		if v := c(); v != "" {
			return v
		}
	}
	return ""
}

func (p *page) metaValue(key string) candidate {
	return func() string { return p.meta[key] }
}

func (p *page) linkValue(rel string) candidate {
	return func() string { return p.links[rel] }
}

func (p *page) title() string {
	t := firstNonEmpty(
		func() string { return p.docTitle },
		p.metaValue("property:og:title"),
		p.metaValue("name:twitter:title"),
		func() string { return p.firstH1 },
	)
	if t == "" {
		return Untitled
	}
	return t
}

func (p *page) description() string {
	return firstNonEmpty(
		p.metaValue("name:description"),
		p.metaValue("property:og:description"),
		p.metaValue("name:twitter:description"),
	)
}

func (p *page) favicon() string {
	return firstNonEmpty(
		p.linkValue("icon"),
		p.linkValue("shortcut icon"),
	)
}

// scan walks doc once and records the sources the accessors need.
func scan(doc *html.Node) *page {
	p := &page{
		meta:  make(map[string]string),
		links: make(map[string]string),
	}
	seenTitle, seenH1 := false, false

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		// Skip foreign content: an <svg><title> is not the document title.
		if n.Type == html.ElementNode && n.Namespace == "" {
			switch n.DataAtom {
			case atom.Title:
				if !seenTitle {
					seenTitle = true
					p.docTitle = strings.TrimSpace(textContent(n))
				}
			case atom.H1:
				if !seenH1 {
					seenH1 = true
					p.firstH1 = strings.TrimSpace(textContent(n))
				}
			case atom.Meta:
				p.recordMeta(n)
			case atom.Link:
				p.recordLink(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	return p
}

func (p *page) recordMeta(n *html.Node) {
	content, _ := attr(n, "content")
	for _, key := range []string{"name", "property"} {
		v, ok := attr(n, key)
		if !ok {
			continue
		}
		k := key + ":" + strings.ToLower(strings.TrimSpace(v))
		if _, exists := p.meta[k]; !exists {
			p.meta[k] = content
		}
	}
}

func (p *page) recordLink(n *html.Node) {
	rel, ok := attr(n, "rel")
	if !ok {
		return
	}
	rel = strings.ToLower(strings.TrimSpace(rel))
	if rel != "icon" && rel != "shortcut icon" {
		return
	}
	if _, exists := p.links[rel]; exists {
		return
	}
	href, _ := attr(n, "href")
	p.links[rel] = href
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
