// Package command turns an externally supplied answer map back into the
// ordered UI command list that reproduces those answers through the page's
// own controls. Command order follows question order: replay order is an
// observable contract, since later fields can depend on state set by earlier
// clicks.
//
// All per-question failures are contained: a missing key, an empty answer, an
// unknown modality, an empty selector or an unresolvable option drops that
// question's command and generation continues.
package command

import (
	"strings"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/schema"
)

// Generate produces the ordered command list for an answer map keyed by
// schema slug. Questions without a usable answer contribute nothing.
func Generate(questions []core.Question, s *schema.AnswerSchema, answers core.AnswerMap) []core.Command {
	var out []core.Command
	if s == nil || len(answers) == 0 {
		return out
	}

	for _, q := range questions {
		key := s.KeyFor(q.ID)
		if key == "" {
			continue
		}
		raw, ok := answers[key]
		if !ok {
			continue
		}
		values := trimmed(core.AnswerValues(raw))
		if len(values) == 0 {
			continue
		}
		if q.Modality == core.ModalityUnknown || q.Selector == "" {
			continue
		}

		switch q.Modality {
		case core.ModalityRadio:
			if label, ok := resolveOption(q.Options, values[0]); ok {
				out = append(out, core.Command{Kind: core.CommandClickOption, Selector: q.Selector, Payload: label})
			}

		case core.ModalityCheckbox:
			for _, v := range values {
				if label, ok := resolveOption(q.Options, v); ok {
					out = append(out, core.Command{Kind: core.CommandClickOption, Selector: q.Selector, Payload: label})
				}
			}

		case core.ModalityTextarea:
			out = append(out, core.Command{Kind: core.CommandFillField, Selector: q.Selector, Payload: strings.Join(values, "\n")})

			// ModalitySelect is extracted and schematized but not replayed: the
			// automation surface drives native dropdowns poorly, and no task page
			// observed so far uses one for a required answer.
		}
	}
	return out
}

// resolveOption matches an answer against the option list: case-insensitive
// exact match on label first, then on value. Returns the option's label (or
// value when the label is empty) as the click payload.
func resolveOption(opts []core.Option, answer string) (string, bool) {
	match := func(field func(core.Option) string) (string, bool) {
		for _, o := range opts {
			if strings.EqualFold(strings.TrimSpace(field(o)), answer) {
				payload := strings.TrimSpace(o.Label)
				if payload == "" {
					payload = strings.TrimSpace(o.Value)
				}
				if payload == "" {
					return "", false
				}
				return payload, true
			}
		}
		return "", false
	}

	if payload, ok := match(func(o core.Option) string { return o.Label }); ok {
		return payload, true
	}
	return match(func(o core.Option) string { return o.Value })
}

// trimmed drops empty values after whitespace-trimming each one.
func trimmed(values []string) []string {
	var out []string
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
