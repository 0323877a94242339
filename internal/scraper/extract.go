package scraper

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Extractor turns a navigated tab into a PageRecord. It never closes the tab;
// ownership stays with the pool.
type Extractor struct {
	sanitizer Sanitizer
	clock     Clock
	logger    *zap.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(sanitizer Sanitizer, clock Clock, logger *zap.Logger) *Extractor {
	return &Extractor{
		sanitizer: sanitizer,
		clock:     clock,
		logger:    logger,
	}
}

// Extract navigates the tab to pageURL, cleans the rendered DOM, and reads
// title, description, visible text, and outbound links. All failures are
// wrapped in ExtractionError and recovered by the caller.
func (e *Extractor) Extract(ctx context.Context, tab Tab, pageURL string) (PageRecord, error) {
	if err := tab.Navigate(ctx, pageURL); err != nil {
		return PageRecord{}, &ExtractionError{URL: pageURL, Err: err}
	}

	location, err := tab.Location(ctx)
	if err != nil || location == "" {
		location = pageURL
	}

	raw, err := tab.HTML(ctx)
	if err != nil {
		return PageRecord{}, &ExtractionError{URL: pageURL, Err: err}
	}

	cleaned, err := e.sanitizer.Clean(raw)
	if err != nil {
		return PageRecord{}, &ExtractionError{URL: pageURL, Err: err}
	}

	doc, err := html.Parse(strings.NewReader(cleaned))
	if err != nil {
		return PageRecord{}, &ExtractionError{URL: pageURL, Err: err}
	}

	base, err := url.Parse(location)
	if err != nil {
		base, _ = url.Parse(pageURL)
	}

	content := collectDocument(doc)
	record := PageRecord{
		URL:         location,
		Title:       content.title(location),
		Description: content.description(),
		Content:     content.text,
		Links:       resolveLinks(base, content.hrefs),
		Timestamp:   e.clock.Now(),
	}
	e.logger.Debug("page extracted",
		zap.String("url", record.URL),
		zap.Int("links", len(record.Links)),
	)
	return record, nil
}

// documentContent holds the raw pieces pulled from one parsed page.
type documentContent struct {
	titleTag string
	firstH1  string
	firstP   string
	meta     map[string]string
	text     string
	hrefs    []string
}

// title applies the original fallback chain: <title>, first <h1>, og:title,
// twitter:title, and finally the page URL.
func (c documentContent) title(pageURL string) string {
	for _, candidate := range []string{c.titleTag, c.firstH1, c.meta["og:title"], c.meta["twitter:title"]} {
		if candidate != "" {
			return candidate
		}
	}
	return pageURL
}

// description falls back through the standard meta tag, og/twitter variants,
// the first paragraph, and finally any meta tag whose name mentions
// "description". Empty when nothing matches.
func (c documentContent) description() string {
	for _, candidate := range []string{
		c.meta["description"],
		c.meta["og:description"],
		c.meta["twitter:description"],
		c.firstP,
	} {
		if candidate != "" {
			return candidate
		}
	}
	for name, content := range c.meta {
		if strings.Contains(name, "description") && content != "" {
			return content
		}
	}
	return ""
}

func collectDocument(doc *html.Node) documentContent {
	c := documentContent{meta: make(map[string]string)}
	var inBody bool
	var texts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				if c.titleTag == "" {
					c.titleTag = strings.TrimSpace(textContent(n))
				}
			case "meta":
				c.recordMeta(n)
			case "h1":
				if c.firstH1 == "" {
					c.firstH1 = strings.TrimSpace(textContent(n))
				}
			case "p":
				if c.firstP == "" {
					c.firstP = strings.TrimSpace(textContent(n))
				}
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						c.hrefs = append(c.hrefs, attr.Val)
						break
					}
				}
			case "body":
				inBody = true
			}
		case html.TextNode:
			if inBody {
				if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
					texts = append(texts, trimmed)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			inBody = false
		}
	}
	walk(doc)

	c.text = strings.Join(strings.Fields(strings.Join(texts, " ")), " ")
	return c
}

func (c *documentContent) recordMeta(n *html.Node) {
	var name, content string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "name", "property":
			name = strings.ToLower(strings.TrimSpace(attr.Val))
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}
	if name == "" || content == "" {
		return
	}
	if _, exists := c.meta[name]; !exists {
		c.meta[name] = content
	}
}

func textContent(n *html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// resolveLinks resolves hrefs against base, keeps http(s) URLs only, and
// returns them deduplicated and sorted lexicographically.
func resolveLinks(base *url.URL, hrefs []string) []string {
	seen := make(map[string]struct{}, len(hrefs))
	links := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		abs, ok := ResolveLink(base, href)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}
	sort.Strings(links)
	return links
}
