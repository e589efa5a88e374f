// Package fetcher downloads pages and turns them into structured documents.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/contextutil"
)

const (
	defaultTimeout  = 30 * time.Second
	maxBodyBytes    = 5 << 20
	defaultMaxPages = 1
	userAgent       = "learner-feature/1.0 (+content indexer)"
)

// Options controls a fetch. Zero values select the defaults; links and images
// are extracted unless explicitly excluded.
type Options struct {
	MaxPages      int
	ExcludeLinks  bool
	ExcludeImages bool
	Timeout       time.Duration
	// WaitSelector must match an element of the first page, as "tag", "#id" or ".class".
	WaitSelector string
}

// ErrSelectorNotFound is returned when Options.WaitSelector matches nothing.
var ErrSelectorNotFound = errors.New("wait selector not found")

// HTTPFetcher fetches pages over HTTP.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher creates a fetcher. timeout is the default per-fetch budget.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Fetch downloads rawURL and returns its structured content. With MaxPages > 1
// internal links are followed breadth-first and their units appended.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*content.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	pageURL, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	eo := extractOptions{includeLinks: !opts.ExcludeLinks, includeImages: !opts.ExcludeImages}
	// Links are always needed to crawl; they are dropped again afterwards if excluded.
	crawlOpts := eo
	if maxPages > 1 {
		crawlOpts.includeLinks = true
	}

	start := time.Now()
	doc, parsed, err := f.fetchPage(ctx, pageURL, crawlOpts)
	if err != nil {
		return nil, err
	}
	if opts.WaitSelector != "" && (parsed == nil || !hasSelector(parsed, opts.WaitSelector)) {
		return nil, fmt.Errorf("%w: %s", ErrSelectorNotFound, opts.WaitSelector)
	}

	seen := map[string]bool{canonical(pageURL): true}
	queue := internalLinks(doc)
	pages := 1
	for len(queue) > 0 && pages < maxPages {
		next := queue[0]
		queue = queue[1:]
		u, err := url.Parse(next)
		if err != nil || seen[canonical(u)] {
			continue
		}
		seen[canonical(u)] = true

		sub, _, err := f.fetchPage(ctx, u, crawlOpts)
		if err != nil {
			logger.WarnContext(ctx, "skipping page", "url", next, "error", err)
			continue
		}
		merge(doc, sub)
		queue = append(queue, internalLinks(sub)...)
		pages++
	}

	if !eo.includeLinks {
		doc.Links = nil
	}

	logger.InfoContext(ctx, "fetched content",
		"url", doc.URL,
		"pages", pages,
		"headings", len(doc.Headings),
		"paragraphs", len(doc.Paragraphs),
		"lists", len(doc.Lists),
		"links", len(doc.Links),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, apperr.NewValidationError("url", "must be an absolute http or https URL")
	}
	return u, nil
}

// fetchPage downloads and parses one page. The parsed HTML tree is nil for markdown.
func (f *HTTPFetcher) fetchPage(ctx context.Context, pageURL *url.URL, eo extractOptions) (*content.Document, *html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text/markdown;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("failed to fetch %s: bad status %d", pageURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	if isMarkdown(resp.Header.Get("Content-Type"), pageURL) {
		return parseMarkdown(raw, pageURL, eo), nil, nil
	}

	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	doc := parseHTML(root, pageURL, eo)
	if doc.Title == "" || len(doc.Paragraphs) == 0 {
		applyReadability(doc, raw, pageURL)
	}
	return doc, root, nil
}

// applyReadability fills gaps from the article extractor when the DOM walk found
// no title or no paragraphs.
func applyReadability(doc *content.Document, raw []byte, pageURL *url.URL) {
	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err != nil {
		return
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSpace(article.Title)
	}
	if doc.Description == "" {
		doc.Description = strings.TrimSpace(article.Excerpt)
	}
	if doc.Metadata.Author == "" {
		doc.Metadata.Author = strings.TrimSpace(article.Byline)
	}
	if len(doc.Paragraphs) == 0 {
		for _, block := range strings.Split(article.TextContent, "\n") {
			if p := strings.Join(strings.Fields(block), " "); len(p) > minParagraphLength {
				doc.Paragraphs = append(doc.Paragraphs, p)
			}
		}
	}
}

func isMarkdown(contentType string, u *url.URL) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "text/markdown", "text/x-markdown":
			return true
		case "text/html", "application/xhtml+xml":
			return false
		}
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return ext == ".md" || ext == ".markdown"
}

func internalLinks(doc *content.Document) []string {
	var out []string
	for _, l := range doc.Links {
		if l.Internal {
			out = append(out, l.URL)
		}
	}
	return out
}

func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawQuery = ""
	return strings.TrimSuffix(c.String(), "/")
}

func merge(dst, src *content.Document) {
	dst.Headings = append(dst.Headings, src.Headings...)
	dst.Paragraphs = append(dst.Paragraphs, src.Paragraphs...)
	dst.Lists = append(dst.Lists, src.Lists...)
	dst.Links = append(dst.Links, src.Links...)
	dst.Images = append(dst.Images, src.Images...)
}
