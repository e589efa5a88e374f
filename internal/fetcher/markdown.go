package fetcher

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"learner-feature/internal/content"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify))

// parseMarkdown builds a document from a markdown source. The first level-1
// heading becomes the title.
func parseMarkdown(src []byte, pageURL *url.URL, opts extractOptions) *content.Document {
	out := &content.Document{URL: pageURL.String()}
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			t := extractTextFromNode(node, src)
			if t == "" {
				return ast.WalkSkipChildren, nil
			}
			if node.Level == 1 && out.Title == "" {
				out.Title = t
			}
			out.Headings = append(out.Headings, content.Heading{Level: node.Level, Text: t})
			if opts.includeLinks || opts.includeImages {
				return ast.WalkContinue, nil
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph:
			if _, inList := node.Parent().(*ast.ListItem); inList {
				return ast.WalkContinue, nil
			}
			if t := extractTextFromNode(node, src); len(t) > minParagraphLength {
				out.Paragraphs = append(out.Paragraphs, t)
			}

		case *ast.List:
			kind := "ul"
			if node.IsOrdered() {
				kind = "ol"
			}
			var items []string
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t := extractTextFromNode(c, src); t != "" {
					items = append(items, t)
				}
			}
			if len(items) > 0 {
				out.Lists = append(out.Lists, content.List{Type: kind, Items: items})
			}

		case *ast.Link:
			if opts.includeLinks {
				if link, ok := markdownLink(string(node.Destination), extractTextFromNode(node, src), pageURL); ok {
					out.Links = append(out.Links, link)
				}
			}

		case *ast.AutoLink:
			if opts.includeLinks {
				dest := string(node.URL(src))
				if link, ok := markdownLink(dest, dest, pageURL); ok {
					out.Links = append(out.Links, link)
				}
			}

		case *ast.Image:
			if opts.includeImages {
				if s := resolve(pageURL, string(node.Destination)); s != "" {
					out.Images = append(out.Images, content.Image{
						Src:   s,
						Alt:   extractTextFromNode(node, src),
						Title: string(node.Title),
					})
				}
			}
		}
		return ast.WalkContinue, nil
	})

	if out.Description == "" && len(out.Paragraphs) > 0 {
		out.Description = truncateRunes(out.Paragraphs[0], 160)
	}
	return out
}

func markdownLink(dest, label string, pageURL *url.URL) (content.Link, bool) {
	if strings.HasPrefix(strings.ToLower(dest), "javascript:") {
		return content.Link{}, false
	}
	abs := resolve(pageURL, dest)
	if abs == "" {
		return content.Link{}, false
	}
	return content.Link{URL: abs, Text: label, Internal: strings.Contains(abs, pageURL.Host)}, true
}

// extractTextFromNode concatenates the text under n, joining block children with spaces.
func extractTextFromNode(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
