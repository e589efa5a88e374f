package fetcher

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"learner-feature/internal/content"
)

// minParagraphLength is the number of characters a paragraph needs to be kept.
const minParagraphLength = 20

type extractOptions struct {
	includeLinks  bool
	includeImages bool
}

// parseHTML extracts a structured document from a parsed page. Content units are
// read from the first of <main>, <article>, [role=main] or <body>; head metadata
// is read from the whole page.
func parseHTML(doc *html.Node, pageURL *url.URL, opts extractOptions) *content.Document {
	out := &content.Document{URL: pageURL.String()}
	readHead(doc, out)

	root := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Main })
	if root == nil {
		root = findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Article })
	}
	if root == nil {
		root = findFirst(doc, func(n *html.Node) bool { return attr(n, "role") == "main" })
	}
	if root == nil {
		root = findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	}
	if root == nil {
		root = doc
	}

	walk(root, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return false
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if text := textOf(n); text != "" {
				level, _ := strconv.Atoi(n.Data[1:])
				out.Headings = append(out.Headings, content.Heading{Level: level, Text: text, ID: attr(n, "id")})
			}
		case atom.P:
			if text := textOf(n); len(text) > minParagraphLength {
				out.Paragraphs = append(out.Paragraphs, text)
			}
		case atom.Ul, atom.Ol:
			var items []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.DataAtom == atom.Li {
					if text := textOf(c); text != "" {
						items = append(items, text)
					}
				}
			}
			if len(items) > 0 {
				out.Lists = append(out.Lists, content.List{Type: n.Data, Items: items})
			}
		case atom.A:
			if opts.includeLinks {
				if link, ok := readLink(n, pageURL); ok {
					out.Links = append(out.Links, link)
				}
			}
		case atom.Img:
			if opts.includeImages {
				if src := resolve(pageURL, attr(n, "src")); src != "" {
					out.Images = append(out.Images, content.Image{Src: src, Alt: attr(n, "alt"), Title: attr(n, "title")})
				}
			}
		}
		return true
	})
	return out
}

func readHead(doc *html.Node, out *content.Document) {
	walk(doc, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Body:
			return false
		case atom.Title:
			if out.Title == "" {
				out.Title = textOf(n)
			}
		case atom.Meta:
			value := strings.TrimSpace(attr(n, "content"))
			key := attr(n, "name")
			if key == "" {
				key = attr(n, "property")
			}
			switch strings.ToLower(key) {
			case "description":
				out.Description = value
			case "author":
				out.Metadata.Author = value
			case "keywords":
				out.Metadata.Keywords = value
			case "article:published_time":
				out.Metadata.PublishedTime = value
			case "article:modified_time":
				out.Metadata.ModifiedTime = value
			}
		}
		return true
	})
}

func readLink(n *html.Node, pageURL *url.URL) (content.Link, bool) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return content.Link{}, false
	}
	abs := resolve(pageURL, href)
	if abs == "" {
		return content.Link{}, false
	}
	return content.Link{
		URL:      abs,
		Text:     textOf(n),
		Internal: strings.Contains(abs, pageURL.Host),
	}, true
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

// walk visits n and its descendants in document order. Returning false from
// visit skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textOf returns the visible text under n with whitespace collapsed.
func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// hasSelector reports whether the page contains an element matching a simple
// selector: "tag", "#id" or ".class".
func hasSelector(doc *html.Node, selector string) bool {
	selector = strings.TrimSpace(selector)
	var match func(*html.Node) bool
	switch {
	case strings.HasPrefix(selector, "#"):
		id := selector[1:]
		match = func(n *html.Node) bool { return attr(n, "id") == id }
	case strings.HasPrefix(selector, "."):
		class := selector[1:]
		match = func(n *html.Node) bool {
			for _, c := range strings.Fields(attr(n, "class")) {
				if c == class {
					return true
				}
			}
			return false
		}
	default:
		tag := strings.ToLower(selector)
		match = func(n *html.Node) bool { return n.Data == tag }
	}
	return findFirst(doc, match) != nil
}
