// Package inference implements the question inference engine. A primary pass
// scans canonical question containers and classifies each one's input
// modality through an ordered rule table; a secondary pass recovers orphan
// controls that live outside every known container. No control is ever
// represented twice: the orphan pass runs an ancestor-containment test
// against all containers captured by the primary pass.
package inference

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/htmldoc"
)

const (
	// questionTextCap bounds the captured prompt text per question.
	questionTextCap = 2000
	// orphanPrefixLen bounds the control-name prefix used in synthesized ids.
	orphanPrefixLen = 8

	questionIDAttr   = "data-question-id"
	questionLabAttr  = "data-label"
	questionTextAttr = "question-text" // data-testid value
)

// containerPattern recognizes canonical question containers by id.
var containerPattern = regexp.MustCompile(`^question-\d+`)

// rule binds a modality to the control selector that detects it and the
// capture routine that reads options and pre-existing answers. Rules are
// configuration data: dispatch walks the engine's priority list and stops at
// the first rule whose selector matches, so a container is never
// double-classified (a radio group wins over coexisting checkboxes).
type rule struct {
	selector string
	capture  func(q *core.Question, controls *goquery.Selection)
}

var rules = map[core.Modality]rule{
	core.ModalityRadio:    {selector: `input[type="radio"]`, capture: captureChoices(false)},
	core.ModalityCheckbox: {selector: `input[type="checkbox"]`, capture: captureChoices(true)},
	core.ModalityTextarea: {selector: "textarea", capture: captureTextarea},
	core.ModalitySelect:   {selector: "select", capture: captureSelect},
}

// DefaultPriority is the documented, total detection order.
func DefaultPriority() []core.Modality {
	return []core.Modality{
		core.ModalityRadio,
		core.ModalityCheckbox,
		core.ModalityTextarea,
		core.ModalitySelect,
	}
}

// Engine infers questions from one parsed snapshot.
type Engine struct {
	priority []core.Modality
}

// New creates an Engine with the default modality priority.
func New() *Engine {
	return NewWithPriority(nil)
}

// NewWithPriority creates an Engine with an operator-supplied detection
// order. Unknown modality names are ignored; an empty list falls back to the
// default order.
func NewWithPriority(priority []core.Modality) *Engine {
	var valid []core.Modality
	for _, m := range priority {
		if _, ok := rules[m]; ok {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		valid = DefaultPriority()
	}
	return &Engine{priority: valid}
}

// Questions runs the primary container pass followed by the orphan-recovery
// pass and returns all inferred questions in document order, primaries first.
// Question ids are unique within the run.
func (e *Engine) Questions(doc *goquery.Document) []core.Question {
	var out []core.Question
	ids := make(map[string]bool)
	containers := make(map[*html.Node]bool)

	doc.Find(`div[id^="question-"]`).Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		if !containerPattern.MatchString(id) {
			return
		}
		containers[sel.Get(0)] = true
		out = append(out, e.inferContainer(sel, ids))
	})

	out = append(out, e.orphanRadios(doc, containers, ids)...)
	out = append(out, e.orphanTextareas(doc, containers, ids)...)
	return out
}

// inferContainer classifies one canonical question container.
func (e *Engine) inferContainer(sel *goquery.Selection, ids map[string]bool) core.Question {
	containerID, _ := sel.Attr("id")
	platformID, _ := sel.Attr(questionIDAttr)
	label, _ := sel.Attr(questionLabAttr)

	q := core.Question{
		ID:       platformID,
		Ordinal:  strings.TrimPrefix(containerID, "question-"),
		Label:    label,
		Text:     htmldoc.Text(sel.Find(`[data-testid="`+questionTextAttr+`"]`).First(), questionTextCap),
		Modality: core.ModalityUnknown,
	}
	if q.ID == "" {
		// No platform identifier: derive a key from the container id so the
		// question still has a stable handle.
		q.ID = containerID
	}
	q.ID = uniqueID(ids, q.ID)

	for _, m := range e.priority {
		r := rules[m]
		controls := sel.Find(r.selector)
		if controls.Length() == 0 {
			continue
		}
		q.Modality = m
		r.capture(&q, controls)
		break
	}
	// A container with no recognizable control stays unknown: reported,
	// excluded from command generation.
	return q
}

// captureChoices reads radio or checkbox inputs. The checked state comes from
// markup attribute presence (static snapshot, not live DOM state). multi
// selects the checkbox shape: every checked label, in option order.
func captureChoices(multi bool) func(q *core.Question, controls *goquery.Selection) {
	return func(q *core.Question, controls *goquery.Selection) {
		controls.Each(func(_ int, input *goquery.Selection) {
			value, _ := input.Attr("value")
			label := htmldoc.Text(input.Closest("label"), 0)
			_, checked := input.Attr("checked")

			q.Options = append(q.Options, core.Option{Value: value, Label: label, Checked: checked})
			if checked && (multi || !q.Existing.IsSet()) {
				q.Existing = append(q.Existing, label)
			}
		})
	}
}

// captureTextarea records any pre-filled value. Options stay empty.
func captureTextarea(q *core.Question, controls *goquery.Selection) {
	if text := htmldoc.Text(controls.First(), 0); text != "" {
		q.Existing = core.ExistingAnswer{text}
	}
}

// captureSelect reads the dropdown's option children; the selected option's
// text becomes the existing answer.
func captureSelect(q *core.Question, controls *goquery.Selection) {
	controls.First().Find("option").Each(func(_ int, opt *goquery.Selection) {
		value, _ := opt.Attr("value")
		label := htmldoc.Text(opt, 0)
		_, selected := opt.Attr("selected")

		q.Options = append(q.Options, core.Option{Value: value, Label: label, Checked: selected})
		if selected && !q.Existing.IsSet() {
			q.Existing = core.ExistingAnswer{label}
		}
	})
}

// orphanRadios consolidates radio inputs outside every known container into
// one question per control name, so a scattered group stays a single
// question.
func (e *Engine) orphanRadios(doc *goquery.Document, containers map[*html.Node]bool, ids map[string]bool) []core.Question {
	grouped := make(map[string]*core.Question)
	var order []string

	doc.Find(`input[type="radio"]`).Each(func(_ int, input *goquery.Selection) {
		if insideAny(input, containers) {
			return
		}
		name, _ := input.Attr("name")
		key := name
		if key == "" {
			// Nameless inputs still group together; Name stays empty so the
			// selector generator knows there is no attribute handle.
			key = "unnamed"
		}

		q, ok := grouped[key]
		if !ok {
			q = &core.Question{
				ID:       uniqueID(ids, "orphan-"+prefix(key, orphanPrefixLen)),
				Ordinal:  "orphan",
				Label:    key,
				Name:     name,
				Modality: core.ModalityRadio,
			}
			grouped[key] = q
			order = append(order, key)
		}

		value, _ := input.Attr("value")
		label := htmldoc.Text(input.Closest("label"), 0)
		_, checked := input.Attr("checked")

		q.Options = append(q.Options, core.Option{Value: value, Label: label, Checked: checked})
		if checked && !q.Existing.IsSet() {
			q.Existing = core.ExistingAnswer{label}
		}
	})

	out := make([]core.Question, 0, len(order))
	for _, name := range order {
		out = append(out, *grouped[name])
	}
	return out
}

// orphanTextareas captures free-standing text areas individually. Empty ones
// are noise (hidden editors, ghost renders) and are skipped.
func (e *Engine) orphanTextareas(doc *goquery.Document, containers map[*html.Node]bool, ids map[string]bool) []core.Question {
	var out []core.Question
	doc.Find("textarea").Each(func(_ int, ta *goquery.Selection) {
		if insideAny(ta, containers) {
			return
		}
		text := htmldoc.Text(ta, 0)
		if text == "" {
			return
		}

		name, _ := ta.Attr("name")
		label, _ := ta.Attr("placeholder")
		if label == "" {
			label = name
		}
		if label == "" {
			label = "textarea"
		}
		// Name keeps the attribute value verbatim; empty means the selector
		// generator must fall back to a positional form.
		seed := name
		if seed == "" {
			seed = "textarea"
		}

		out = append(out, core.Question{
			ID:       uniqueID(ids, "orphan-"+prefix(seed, orphanPrefixLen)),
			Ordinal:  "orphan",
			Label:    label,
			Name:     name,
			Modality: core.ModalityTextarea,
			Existing: core.ExistingAnswer{text},
		})
	})
	return out
}

// insideAny walks the control's ancestor chain and reports whether any
// ancestor is a container captured by the primary pass.
func insideAny(sel *goquery.Selection, containers map[*html.Node]bool) bool {
	if len(containers) == 0 || len(sel.Nodes) == 0 {
		return false
	}
	for n := sel.Get(0).Parent; n != nil; n = n.Parent {
		if containers[n] {
			return true
		}
	}
	return false
}

// uniqueID registers id in seen, appending a numeric suffix on collision so
// the per-run uniqueness invariant holds even against duplicate markup.
func uniqueID(seen map[string]bool, id string) string {
	candidate := id
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	seen[candidate] = true
	return candidate
}

// prefix bounds s to n runes.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
