// Package core defines the shared data model and stage interfaces for the
// TaskLens pipeline. Extraction flows one direction (document → sections /
// questions → schema); command generation is a separate pass over the same
// Question entities. Every type here is created fresh per extraction run and
// treated as immutable afterwards.
package core

// Modality is the input-control kind a Question exposes.
type Modality string

// Recognized modalities, in the order the inference engine checks them.
// ModalityUnknown is terminal: such questions are reported but excluded from
// command generation.
const (
	ModalityRadio    Modality = "radio"
	ModalityCheckbox Modality = "checkbox"
	ModalityTextarea Modality = "textarea"
	ModalitySelect   Modality = "select"
	ModalityUnknown  Modality = "unknown"
)

// Option is one selectable choice belonging to exactly one Question.
// Checked reflects markup state in the snapshot (presence of the checked or
// selected attribute), not live DOM state.
type Option struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// ExistingAnswer reflects any pre-checked or pre-filled state found in the
// snapshot. Nil/empty means unanswered. Radio, select and textarea questions
// hold exactly one value; checkbox questions hold the checked option labels
// in option order.
//
// Wire shape: the field always marshals as a JSON array, including the
// single-value modalities. Consumers of the extract JSON read
// existing_answer[0] for radio/select/textarea rather than a scalar field.
type ExistingAnswer []string

// IsSet reports whether the snapshot carried any answer at all.
func (a ExistingAnswer) IsSet() bool { return len(a) > 0 }

// Single returns the first value, or "" when unanswered.
func (a ExistingAnswer) Single() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// Question is the central entity shared by extraction and command generation.
type Question struct {
	// ID is the platform-assigned identifier when present (it survives minor
	// re-renders); otherwise a derived key such as "orphan-<name>".
	ID string `json:"id"`
	// Ordinal is the declared position ("7" from "question-7"). Display and
	// debugging only, never identity.
	Ordinal string `json:"number,omitempty"`
	Label   string `json:"label"`
	Text    string `json:"text,omitempty"`
	// Name is the control's name attribute. Populated for orphan controls,
	// where it is the only stable handle for selector generation.
	Name string `json:"name,omitempty"`

	Modality Modality `json:"type"`
	Options  []Option `json:"options,omitempty"`

	Existing ExistingAnswer `json:"existing_answer,omitempty"`

	// Selector re-locates the question's container on the live page.
	// Populated by the selector generator; empty when no stable handle could
	// be derived.
	Selector string `json:"selector,omitempty"`
}

// Answered reports whether the snapshot already carried an answer for this
// question. Any answered question marks the whole task as a review task.
func (q Question) Answered() bool { return q.Existing.IsSet() }

// ContentSection is one rendered content block (prompt or response text).
// Index reflects document order. Text is whitespace-normalized and truncated;
// Markdown is the same block converted back to Markdown for prompt building.
type ContentSection struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
	// HTML is the block's markup sanitized for safe embedding in a results
	// view (scripts, handlers and unknown tags stripped).
	HTML string `json:"html,omitempty"`
}

// TableRow is either a header-keyed mapping (when the row's cell count
// matches the header count) or a raw ordered cell list. Exactly one of the
// two fields is populated.
type TableRow struct {
	Keyed map[string]string `json:"keyed,omitempty"`
	Cells []string          `json:"cells,omitempty"`
}

// Table holds an extracted table. The first row is only a header candidate:
// rows whose cell count mismatches degrade to raw cell lists rather than
// being dropped.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    []TableRow `json:"rows"`
}

// DownloadLink is a link or button that looks like it serves a file. A link
// can match several detection signals but appears once in the result.
type DownloadLink struct {
	Text            string `json:"text"`
	Href            string `json:"href"`
	HasDownloadAttr bool   `json:"has_download_attr"`
}

// TaskExtract is the structured record produced by one extraction run.
// Empty fields are omitted entirely (sparse-object contract).
type TaskExtract struct {
	File              string           `json:"file,omitempty"`
	Title             string           `json:"title,omitempty"`
	ConversationParts []ContentSection `json:"conversation_parts,omitempty"`
	Questions         []Question       `json:"questions,omitempty"`
	DownloadLinks     []DownloadLink   `json:"download_links,omitempty"`
	Instructions      []string         `json:"instructions,omitempty"`
	Tables            []Table          `json:"tables,omitempty"`
	HighlightedItems  []string         `json:"highlighted_items,omitempty"`
}

// AnswerMap is an externally supplied answer set keyed by schema slug.
// Values are either a string or a list of strings ([]string or []any as
// produced by a JSON decode); AnswerValues normalizes both.
type AnswerMap map[string]any

// AnswerValues flattens an answer map value into its string values.
// Returns nil for nil, empty strings, and unrecognized shapes.
func AnswerValues(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// CommandKind discriminates the two replayable UI actions.
type CommandKind string

const (
	// CommandClickOption clicks the option whose label equals the payload,
	// inside the element addressed by the selector.
	CommandClickOption CommandKind = "CLICK_OPTION"
	// CommandFillField types the payload into the field addressed by the
	// selector.
	CommandFillField CommandKind = "FILL_FIELD"
)

// Command is one atomic instruction for replay against a live page.
// Commands are transported as JSON; the historical comma-joined line form is
// available via Legacy for agents that still speak it.
type Command struct {
	Kind     CommandKind `json:"kind"`
	Selector string      `json:"selector"`
	Payload  string      `json:"payload"`
}

// Legacy renders the command in the original flat wire form
// "KIND,<selector>,<payload>". Commas inside the selector or payload are not
// escaped in this form, which is why JSON is the default transport.
func (c Command) Legacy() string {
	return string(c.Kind) + "," + c.Selector + "," + c.Payload
}

// Renderer converts a task extract into a final output format.
type Renderer interface {
	Render(extract *TaskExtract) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".json").
	Extension() string
}
