// Package selector derives, for every inferred question, a CSS selector that
// re-locates its control on the live page. Platform-assigned identifier
// attributes are preferred over positional forms because ghost/duplicate
// renders of the same logical question duplicate ordinals but not ids. Every
// candidate is compiled with cascadia and checked for unique resolution
// against the snapshot; a selector that resolves to more than one element is
// a reported defect, never a crash.
package selector

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/circuitgrid/tasklens/core"
)

// Warning records a best-effort selector that could not be validated as
// resolving to exactly one element.
type Warning struct {
	QuestionID string
	Selector   string
	Reason     string
}

// Generate populates Selector on each question in place and returns warnings
// for questions whose best candidate is invalid or non-unique. Questions for
// which no candidate even compiles keep an empty selector and are thereby
// excluded from command generation.
func Generate(doc *goquery.Document, questions []core.Question) []Warning {
	var warnings []Warning
	for i := range questions {
		sel, warn := generateOne(doc, &questions[i])
		questions[i].Selector = sel
		if warn != nil {
			warnings = append(warnings, *warn)
		}
	}
	return warnings
}

func generateOne(doc *goquery.Document, q *core.Question) (string, *Warning) {
	candidates := candidatesFor(q)

	var fallback string
	var fallbackReason string
	for _, candidate := range candidates {
		matcher, err := cascadia.Compile(candidate)
		if err != nil {
			continue
		}
		switch n := doc.FindMatcher(matcher).Length(); {
		case n == 1:
			return candidate, nil
		case n > 1 && fallback == "":
			fallback = candidate
			fallbackReason = fmt.Sprintf("resolves to %d elements", n)
		}
	}

	if fallback != "" {
		return fallback, &Warning{QuestionID: q.ID, Selector: fallback, Reason: fallbackReason}
	}
	return "", &Warning{QuestionID: q.ID, Selector: "", Reason: "no candidate resolved"}
}

// candidatesFor lists selector candidates from most to least stable.
func candidatesFor(q *core.Question) []string {
	var out []string
	add := func(s string) { out = append(out, s) }

	isOrphan := strings.HasPrefix(q.ID, "orphan-")

	if !isOrphan {
		if q.ID != "" && !strings.HasPrefix(q.ID, "question-") {
			// Platform-assigned identifier, the preferred handle.
			if q.Modality == core.ModalityTextarea {
				add(fmt.Sprintf(`[data-question-id=%s] textarea`, quoteAttr(q.ID)))
			}
			add(fmt.Sprintf(`[data-question-id=%s]`, quoteAttr(q.ID)))
		}
		if q.Ordinal != "" {
			// Positional fallback, scoped to the container id.
			if q.Modality == core.ModalityTextarea {
				add(fmt.Sprintf(`div[id=%s] textarea`, quoteAttr("question-"+q.Ordinal)))
			}
			add(fmt.Sprintf(`div[id=%s]`, quoteAttr("question-"+q.Ordinal)))
		}
		return out
	}

	// Orphan controls: the name attribute when present, then a bare
	// positional form. The positional candidate only wins when it resolves
	// uniquely, so it is safe to offer even on busy pages.
	switch q.Modality {
	case core.ModalityTextarea:
		if q.Name != "" {
			add(fmt.Sprintf(`textarea[name=%s]`, quoteAttr(q.Name)))
		}
		add("textarea")
	case core.ModalityRadio:
		if q.Name != "" {
			add(fmt.Sprintf(`input[type="radio"][name=%s]`, quoteAttr(q.Name)))
		}
		add(`input[type="radio"]`)
	}
	return out
}

// quoteAttr wraps an attribute value in double quotes, escaping embedded
// quotes and backslashes so the selector stays parseable.
var attrEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteAttr(v string) string {
	return `"` + attrEscaper.Replace(v) + `"`
}
