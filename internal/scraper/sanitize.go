package scraper

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// DOMSanitizer is the default Sanitizer. It drops script/style/noscript and
// template subtrees, comments, inline-hidden elements, whitespace-only text
// nodes, and elements left empty after pruning.
type DOMSanitizer struct{}

// NewDOMSanitizer returns the default sanitizer.
func NewDOMSanitizer() *DOMSanitizer {
	return &DOMSanitizer{}
}

var strippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"iframe":   {},
	"svg":      {},
}

// Void elements are legitimately childless and survive the empty-node prune.
var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {},
	"img": {}, "input": {}, "link": {}, "meta": {}, "source": {},
	"track": {}, "wbr": {},
}

// Clean parses the snapshot, prunes it, and renders the result back to HTML.
func (DOMSanitizer) Clean(input string) (string, error) {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	prune(doc)
	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return sb.String(), nil
}

// prune removes unwanted children of n depth-first, so that elements emptied
// by the removal of their children are themselves removed.
func prune(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		if shouldDrop(child) {
			n.RemoveChild(child)
		} else {
			prune(child)
			if isEmptyElement(child) {
				n.RemoveChild(child)
			}
		}
		child = next
	}
}

func shouldDrop(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	case html.ElementNode:
		if _, strip := strippedElements[n.Data]; strip {
			return true
		}
		return isHidden(n)
	default:
		return false
	}
}

func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(attr.Val, "true") {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func isEmptyElement(n *html.Node) bool {
	if n.Type != html.ElementNode || n.FirstChild != nil {
		return false
	}
	// html/head/body are structural and re-created by the parser anyway.
	switch n.Data {
	case "html", "head", "body":
		return false
	}
	_, void := voidElements[n.Data]
	return !void
}
