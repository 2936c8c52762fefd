// Package htmldoc implements the document loader. It parses one saved HTML
// snapshot into a navigable tree and provides the text-capture helper shared
// by every extractor: whitespace-normalized, newline-joined text of all
// descendant text nodes, truncated to a per-caller cap.
//
// The returned document is read-only for the whole pipeline; no extractor
// mutates it.
package htmldoc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parse builds a document from raw UTF-8 HTML bytes. An unparsable input is
// the only document-level (fatal) failure in the pipeline.
func Parse(raw []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("parsing HTML: empty document")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// skippedElements are elements whose text content is never meaningful page
// text (script payloads, styles, template markup).
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Text captures the visible text of a selection: each descendant text node is
// whitespace-collapsed, non-empty pieces are joined with newlines, and the
// result is truncated to max runes (0 = no cap). Truncation is silent.
func Text(sel *goquery.Selection, max int) string {
	var pieces []string
	for _, node := range sel.Nodes {
		collectText(node, &pieces)
	}
	return Truncate(strings.Join(pieces, "\n"), max)
}

// collectText walks the node tree depth-first, appending collapsed text
// pieces and skipping non-content elements.
func collectText(n *html.Node, pieces *[]string) {
	if n.Type == html.ElementNode && skippedElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if t := CollapseSpace(n.Data); t != "" {
			*pieces = append(*pieces, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, pieces)
	}
}

// CollapseSpace trims a string and collapses internal whitespace runs to a
// single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate bounds a string to max runes. max <= 0 means no cap.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
