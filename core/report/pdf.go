// PDF renderer: renders the Markdown summary into a printable document with
// gofpdf. Headings get scaled fonts; lists and paragraphs share a simple
// line-based layout. Images are never rendered (snapshots are text-only by
// the time they reach a report).
package report

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/circuitgrid/tasklens/core"
)

// PDFRenderer renders the extract summary as a PDF.
type PDFRenderer struct {
	md *MarkdownRenderer
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{md: NewMarkdownRenderer()}
}

// Render builds the Markdown summary and lays it out page by page.
func (r *PDFRenderer) Render(extract *core.TaskExtract) ([]byte, error) {
	markdown, err := r.md.Render(extract)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	for _, line := range strings.Split(string(markdown), "\n") {
		writeLine(pdf, line)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

var headingSizes = map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}

func writeLine(pdf *gofpdf.Fpdf, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		pdf.Ln(3)
		return
	}

	if strings.HasPrefix(trimmed, "#") {
		level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
		size, ok := headingSizes[level]
		if !ok {
			size = 10
		}
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", size)
		pdf.MultiCell(0, size*0.6, stripInline(strings.TrimLeft(trimmed, "# ")), "", "L", false)
		pdf.Ln(2)
		return
	}

	pdf.SetFont("Helvetica", "", 10)
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		pdf.MultiCell(0, 5, "• "+stripInline(trimmed[2:]), "", "L", false)
		return
	}
	pdf.MultiCell(0, 5, stripInline(trimmed), "", "L", false)
}

var (
	inlineCode = regexp.MustCompile("`([^`]+)`")
	inlineLink = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
)

// stripInline drops inline Markdown formatting for the PDF layout.
func stripInline(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = inlineLink.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
