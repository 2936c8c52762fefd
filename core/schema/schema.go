// Package schema converts an inferred question list into the canonical
// answer-key vocabulary: one slug per question plus a value-shape template
// per modality. Building the schema is deterministic and total over the
// question list.
//
// Slug derivation is not naturally injective (distinct labels can collapse to
// one key), so colliding keys get a numeric suffix; the mapping from
// questions to keys is guaranteed injective.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/circuitgrid/tasklens/core"
)

// optionHintCap bounds how many option labels are listed in a value hint, to
// keep prompt lines from exploding on long rating vocabularies.
const optionHintCap = 10

// labelFallbackLen bounds how much question text stands in for a missing
// label.
const labelFallbackLen = 80

// JustificationKey is always appended to the template, outside the
// per-question set.
const JustificationKey = "justification"

var slugStrip = regexp.MustCompile(`[^a-zA-Z0-9_\- ]`)

// Slug derives the answer-schema key from a question label: strip everything
// outside [A-Za-z0-9_- ], trim, lowercase, then map spaces and hyphens to
// underscores. Pure: the result depends only on the label.
func Slug(label string) string {
	s := slugStrip.ReplaceAllString(label, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// Entry is one question's slot in the answer schema.
type Entry struct {
	// Key is the (collision-disambiguated) slug the answer map must use.
	Key string `json:"key"`
	// QuestionID ties the entry back to its question.
	QuestionID string `json:"question_id"`
	// Hint is the placeholder or allowed-value hint shown in the template.
	Hint string `json:"hint"`
	// Multi marks checkbox questions, whose template value is a list.
	Multi bool `json:"multi,omitempty"`
}

// AnswerSchema is the ordered key→placeholder mapping derived 1:1 from a
// question list.
type AnswerSchema struct {
	Entries []Entry `json:"entries"`
}

// Build derives the schema for a question list. Every question gets exactly
// one entry, in question order.
func Build(questions []core.Question) *AnswerSchema {
	s := &AnswerSchema{}
	seen := make(map[string]bool)

	for _, q := range questions {
		key := Slug(keyLabel(q))
		if key == "" {
			key = "q" + fallbackOrdinal(q)
		}
		key = disambiguate(seen, key)
		s.Entries = append(s.Entries, Entry{
			Key:        key,
			QuestionID: q.ID,
			Hint:       hintFor(q),
			Multi:      q.Modality == core.ModalityCheckbox,
		})
	}
	return s
}

// KeyFor returns the schema key assigned to a question id, or "".
func (s *AnswerSchema) KeyFor(questionID string) string {
	for _, e := range s.Entries {
		if e.QuestionID == questionID {
			return e.Key
		}
	}
	return ""
}

// Template renders the schema as the JSON block handed to the answer
// generator, with the trailing justification field.
func (s *AnswerSchema) Template() string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, e := range s.Entries {
		if e.Multi {
			fmt.Fprintf(&b, "  %q: [\"selected option 1\", \"selected option 2\"],\n", e.Key)
			continue
		}
		fmt.Fprintf(&b, "  %q: %q,\n", e.Key, e.Hint)
	}
	fmt.Fprintf(&b, "  %q: \"your detailed evidence-based explanation\"\n}", JustificationKey)
	return b.String()
}

// keyLabel picks the label the key derives from: the declared label, else a
// bounded prefix of the question text, else the ordinal.
func keyLabel(q core.Question) string {
	if q.Label != "" {
		return q.Label
	}
	if q.Text != "" {
		runes := []rune(q.Text)
		if len(runes) > labelFallbackLen {
			runes = runes[:labelFallbackLen]
		}
		return string(runes)
	}
	return "question_" + fallbackOrdinal(q)
}

func fallbackOrdinal(q core.Question) string {
	if q.Ordinal != "" {
		return q.Ordinal
	}
	return "x"
}

// hintFor builds the per-modality value hint.
func hintFor(q core.Question) string {
	switch q.Modality {
	case core.ModalityTextarea:
		return "your text here"
	case core.ModalityRadio, core.ModalitySelect:
		labels := optionLabels(q.Options, optionHintCap)
		if len(labels) == 0 {
			return "your choice"
		}
		return strings.Join(labels, " | ")
	case core.ModalityCheckbox:
		return "selected options"
	default:
		return "your answer"
	}
}

// optionLabels returns up to max non-empty option labels.
func optionLabels(opts []core.Option, max int) []string {
	var out []string
	for _, o := range opts {
		if o.Label == "" {
			continue
		}
		out = append(out, o.Label)
		if len(out) == max {
			break
		}
	}
	return out
}

// disambiguate registers key, appending _2, _3, … on collision so two labels
// that slug identically never overwrite each other's entry.
func disambiguate(seen map[string]bool, key string) string {
	candidate := key
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", key, n)
	}
	seen[candidate] = true
	return candidate
}
