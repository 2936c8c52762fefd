// Package sections implements the section extractors: independent,
// order-insensitive passes that pull content blocks, instructions, tables,
// download links and highlighted items out of a parsed snapshot. Absence of a
// section type is never an error, and no extractor assumes any other ran
// first.
package sections

import (
	"regexp"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/htmldoc"
)

// Config carries the recognition vocabulary and payload caps. The defaults
// match the annotation platform's markup; operators can override the
// vocabulary through the rules file.
type Config struct {
	// ContentClass marks rendered prompt/response blocks.
	ContentClass string
	// InstructionClass marks rubric/instruction blocks.
	InstructionClass string

	// Minimum visible-text lengths (runes) below which a block is noise.
	ContentMinLen     int
	InstructionMinLen int

	// Payload caps (runes). Truncation is silent.
	ContentCap     int
	InstructionCap int
	LinkTextCap    int
	LinkHrefCap    int
	HighlightCap   int

	// Download-link signals. Any one matching signal is sufficient.
	DownloadHref *regexp.Regexp
	DownloadText *regexp.Regexp

	// HighlightClasses matches class attributes that indicate a
	// selected/highlighted element.
	HighlightClasses *regexp.Regexp
}

// DefaultConfig returns the vocabulary observed on the platform's task pages.
func DefaultConfig() Config {
	return Config{
		ContentClass:      "rendered-markdown",
		InstructionClass:  "gondor-wysiwyg",
		ContentMinLen:     11,
		InstructionMinLen: 21,
		ContentCap:        8000,
		InstructionCap:    10000,
		LinkTextCap:       200,
		LinkHrefCap:       500,
		HighlightCap:      199,
		DownloadHref:      regexp.MustCompile(`(?i)download|export|attachment|\.zip|\.tar|\.pdf|\.csv|\.json`),
		DownloadText:      regexp.MustCompile(`(?i)download|export|save|get file`),
		HighlightClasses:  regexp.MustCompile(`tw-text-blue-600|tw-bg-blue-600|tw-bg-primary`),
	}
}

// Extractor runs the section passes against one document.
type Extractor struct {
	cfg      Config
	sanitize *bluemonday.Policy
}

// New creates an Extractor with the default vocabulary.
func New() *Extractor {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an Extractor with an operator-supplied vocabulary.
func NewWithConfig(cfg Config) *Extractor {
	return &Extractor{cfg: cfg, sanitize: bluemonday.UGCPolicy()}
}

// Title returns the page title, or "" when the document has none.
func (e *Extractor) Title(doc *goquery.Document) string {
	return htmldoc.CollapseSpace(doc.Find("title").First().Text())
}

// ContentSections extracts the rendered content blocks in document order.
// Index reflects the block's position among all candidates, including ones
// skipped as too short, so indices stay stable across vocabulary tweaks.
func (e *Extractor) ContentSections(doc *goquery.Document) []core.ContentSection {
	var out []core.ContentSection
	doc.Find("." + e.cfg.ContentClass).Each(func(i int, sel *goquery.Selection) {
		text := htmldoc.Text(sel, e.cfg.ContentCap)
		if len([]rune(text)) < e.cfg.ContentMinLen {
			return
		}
		section := core.ContentSection{Index: i, Text: text}
		if raw, err := goquery.OuterHtml(sel); err == nil {
			section.Markdown = e.markdown(raw)
			section.HTML = htmldoc.Truncate(e.sanitize.Sanitize(raw), e.cfg.ContentCap)
		}
		out = append(out, section)
	})
	return out
}

// markdown converts a block back to Markdown for prompt building. Conversion
// failure degrades to no markdown, never to a dropped section.
func (e *Extractor) markdown(raw string) string {
	md, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return ""
	}
	return htmldoc.Truncate(md, e.cfg.ContentCap)
}

// Instructions extracts free-text instruction blocks in document order.
func (e *Extractor) Instructions(doc *goquery.Document) []string {
	var out []string
	doc.Find("." + e.cfg.InstructionClass).Each(func(_ int, sel *goquery.Selection) {
		text := htmldoc.Text(sel, e.cfg.InstructionCap)
		if len([]rune(text)) < e.cfg.InstructionMinLen {
			return
		}
		out = append(out, text)
	})
	return out
}

// DownloadLinks detects links and clickable buttons that look like they serve
// a file. Four independent signals are ORed: an explicit download attribute,
// an archive/document-shaped href, download-vocabulary anchor text, and
// download-vocabulary button text or click handler. An element matching
// several signals appears once (de-duplication by node identity).
func (e *Extractor) DownloadLinks(doc *goquery.Document) []core.DownloadLink {
	var out []core.DownloadLink
	seen := make(map[*html.Node]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if seen[node] {
			return
		}
		href, _ := sel.Attr("href")
		text := htmldoc.Text(sel, e.cfg.LinkTextCap)
		_, hasAttr := sel.Attr("download")

		if !hasAttr && !e.cfg.DownloadHref.MatchString(href) && !e.cfg.DownloadText.MatchString(text) {
			return
		}
		seen[node] = true
		out = append(out, core.DownloadLink{
			Text:            text,
			Href:            htmldoc.Truncate(href, e.cfg.LinkHrefCap),
			HasDownloadAttr: hasAttr,
		})
	})

	doc.Find("button").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if seen[node] {
			return
		}
		text := htmldoc.Text(sel, e.cfg.LinkTextCap)
		onclick, _ := sel.Attr("onclick")

		if !e.cfg.DownloadText.MatchString(text) && !e.cfg.DownloadText.MatchString(onclick) {
			return
		}
		seen[node] = true
		out = append(out, core.DownloadLink{
			Text: text,
			Href: htmldoc.Truncate(onclick, e.cfg.LinkHrefCap),
		})
	})

	return out
}

// Tables extracts every table. The first row is a header candidate only:
// later rows become header-keyed mappings when their cell count matches,
// and degrade to raw cell lists when it doesn't. Tables without data rows
// are omitted; tables are never partially discarded.
func (e *Extractor) Tables(doc *goquery.Document) []core.Table {
	var out []core.Table
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		var headers []string
		var rows []core.TableRow

		tbl.Find("tr").Each(func(i int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, htmldoc.Text(cell, 0))
			})
			if i == 0 {
				headers = cells
				return
			}
			if len(headers) > 0 && len(headers) == len(cells) {
				keyed := make(map[string]string, len(cells))
				for j, h := range headers {
					keyed[h] = cells[j]
				}
				rows = append(rows, core.TableRow{Keyed: keyed})
				return
			}
			rows = append(rows, core.TableRow{Cells: cells})
		})

		if len(rows) > 0 {
			out = append(out, core.Table{Headers: headers, Rows: rows})
		}
	})
	return out
}

// Highlights collects short text of elements styled with the platform's
// selected-state classes, de-duplicated and in document order.
func (e *Extractor) Highlights(doc *goquery.Document) []string {
	var out []string
	seen := make(map[string]bool)

	doc.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if !e.cfg.HighlightClasses.MatchString(class) {
			return
		}
		text := htmldoc.Text(sel, 0)
		if text == "" || len([]rune(text)) > e.cfg.HighlightCap || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, text)
	})
	return out
}
