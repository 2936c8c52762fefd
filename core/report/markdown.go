// Markdown renderer: the human-readable summary of one extraction run.
package report

import (
	"fmt"
	"strings"

	"github.com/circuitgrid/tasklens/core"
)

// MarkdownRenderer writes a structured Markdown summary of the extract.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render builds the Markdown summary.
func (r *MarkdownRenderer) Render(extract *core.TaskExtract) ([]byte, error) {
	var b strings.Builder

	title := extract.Title
	if title == "" {
		title = "Untitled task"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if extract.File != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", extract.File)
	}

	if len(extract.ConversationParts) > 0 {
		b.WriteString("## Content\n\n")
		for _, cs := range extract.ConversationParts {
			fmt.Fprintf(&b, "### Section %d\n\n", cs.Index)
			if cs.Markdown != "" {
				b.WriteString(cs.Markdown)
			} else {
				b.WriteString(cs.Text)
			}
			b.WriteString("\n\n")
		}
	}

	if len(extract.Questions) > 0 {
		b.WriteString("## Questions\n\n")
		for _, q := range extract.Questions {
			fmt.Fprintf(&b, "### %s\n\n", questionHeading(q))
			fmt.Fprintf(&b, "- Type: %s\n", q.Modality)
			for _, o := range q.Options {
				marker := ""
				if o.Checked {
					marker = " ✓"
				}
				fmt.Fprintf(&b, "- %s%s\n", optionLabel(o), marker)
			}
			if q.Existing.IsSet() {
				fmt.Fprintf(&b, "- Existing answer: %s\n", strings.Join(q.Existing, ", "))
			}
			b.WriteString("\n")
		}
	}

	if len(extract.Instructions) > 0 {
		b.WriteString("## Instructions\n\n")
		b.WriteString(strings.Join(extract.Instructions, "\n\n---\n\n"))
		b.WriteString("\n\n")
	}

	for _, tbl := range extract.Tables {
		fmt.Fprintf(&b, "## Table (%s)\n\n", strings.Join(tbl.Headers, ", "))
		for _, row := range tbl.Rows {
			b.WriteString("- " + rowLine(tbl.Headers, row) + "\n")
		}
		b.WriteString("\n")
	}

	if len(extract.DownloadLinks) > 0 {
		b.WriteString("## Downloads\n\n")
		for _, dl := range extract.DownloadLinks {
			fmt.Fprintf(&b, "- [%s](%s)\n", dl.Text, dl.Href)
		}
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

func questionHeading(q core.Question) string {
	label := q.Label
	if label == "" {
		label = q.ID
	}
	if q.Ordinal != "" {
		return fmt.Sprintf("Q%s: %s", q.Ordinal, label)
	}
	return label
}

func optionLabel(o core.Option) string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// rowLine renders a table row, keeping header association when present.
func rowLine(headers []string, row core.TableRow) string {
	if row.Keyed != nil {
		parts := make([]string, 0, len(headers))
		for _, h := range headers {
			parts = append(parts, fmt.Sprintf("%s: %s", h, row.Keyed[h]))
		}
		return strings.Join(parts, " | ")
	}
	return strings.Join(row.Cells, " | ")
}
