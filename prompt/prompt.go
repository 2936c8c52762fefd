// Package prompt assembles the evaluation prompts for the hosted answer
// generator. Everything is derived from the extract: the conversation text,
// the question descriptions with any pre-existing answers, the embedded
// answer-schema template, and the fresh-vs-review framing. The builder is
// pure: same extract, same prompts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/schema"
)

// TaskType distinguishes a fresh evaluation from a review of someone else's
// answers.
type TaskType string

const (
	TaskFresh  TaskType = "fresh"
	TaskReview TaskType = "review"
)

// currentValueCap bounds how much of a pre-filled textarea is echoed back.
const currentValueCap = 500

// Pair is one complete prompt set.
type Pair struct {
	System string
	User   string
	Type   TaskType
}

// DetectTaskType reports review when any question already carries an answer
// in the snapshot, fresh otherwise.
func DetectTaskType(extract *core.TaskExtract) TaskType {
	for _, q := range extract.Questions {
		if q.Answered() {
			return TaskReview
		}
	}
	return TaskFresh
}

// Build assembles the prompt pair. instructionsMD is the operator's general
// guideline file; an empty string is allowed.
func Build(extract *core.TaskExtract, s *schema.AnswerSchema, instructionsMD string) Pair {
	taskType := DetectTaskType(extract)
	return Pair{
		System: buildSystem(instructionsMD),
		User:   buildUser(extract, s, taskType),
		Type:   taskType,
	}
}

func buildSystem(instructionsMD string) string {
	return fmt.Sprintf(`You are an expert AI response evaluator for a data annotation platform.
You provide top-quality, expert-level evaluations of AI-generated responses.

The tasks and instructions you receive CHANGE between runs. Read the full
instructions for THIS task before evaluating; never assume they match a
previous run.

General evaluation guidelines:

%s

CRITICAL RULES:
- Always output your evaluation as a JSON code block.
- Use ONLY the exact option values provided for each question.
- The justification must be detailed and must quote specific evidence from
  the responses, not restate ratings.
- If questions already have answers selected, this is a review task: provide
  your own independent ratings AND assess the existing answers.
`, instructionsMD)
}

func buildUser(extract *core.TaskExtract, s *schema.AnswerSchema, taskType TaskType) string {
	intro := "Evaluate the following AI responses. Read the full conversation and all instructions carefully, then answer every question below."
	review := ""
	if taskType == TaskReview {
		intro = "You are reviewing another worker's evaluation of AI responses. Their existing answers are marked with ✓ below. Provide your own independent ratings AND assess the worker's quality."
		review = `Since this is a review task, also include:
- "worker_review_accuracy": "accurate | mostly_accurate | inaccurate"
- "worker_review_issues": ["specific issues with the existing answers"]
- "worker_review_recommendation": "approve | revise | reject"

`
	}

	return fmt.Sprintf(`%s

%s

---

## Task-Specific Instructions (from the platform)

%s

---

%s

---

## Your Task

Answer every question listed above. For radio/select questions pick EXACTLY
ONE of the listed options, using the exact text shown. For textarea questions
write your response. For checkbox questions list all that apply.

%sOutput as a JSON code block with this structure:

`+"```json\n%s\n```\n", intro, conversationText(extract), instructionsText(extract), questionsText(extract), review, s.Template())
}

// conversationText flattens the content sections, tables and download links
// into readable context.
func conversationText(extract *core.TaskExtract) string {
	var parts []string
	title := extract.Title
	if title == "" {
		title = "Unknown Task"
	}
	parts = append(parts, "# Task: "+title)

	if len(extract.ConversationParts) > 0 {
		parts = append(parts, "## Content Sections")
		for _, cs := range extract.ConversationParts {
			parts = append(parts, fmt.Sprintf("--- Section %d ---", cs.Index), cs.Text)
		}
	}

	for _, tbl := range extract.Tables {
		parts = append(parts, "## Table (headers: "+strings.Join(tbl.Headers, ", ")+")")
		for _, row := range tbl.Rows {
			parts = append(parts, "  "+tableRowText(tbl.Headers, row))
		}
	}

	for _, dl := range extract.DownloadLinks {
		parts = append(parts, fmt.Sprintf("[Download: %s](%s)", dl.Text, dl.Href))
	}

	return strings.Join(parts, "\n")
}

func tableRowText(headers []string, row core.TableRow) string {
	if row.Keyed != nil {
		parts := make([]string, 0, len(headers))
		for _, h := range headers {
			parts = append(parts, fmt.Sprintf("%s: %s", h, row.Keyed[h]))
		}
		return strings.Join(parts, " | ")
	}
	return strings.Join(row.Cells, " | ")
}

// questionsText describes every extracted question, its options and any
// existing answer.
func questionsText(extract *core.TaskExtract) string {
	if len(extract.Questions) == 0 {
		return "(No form questions found in this task)"
	}

	var parts []string
	parts = append(parts,
		"## Form Questions Found",
		"Below is every question/field extracted from the task form, with its available options and any existing selection.",
		"")

	for _, q := range extract.Questions {
		parts = append(parts, "### "+questionHeading(q), "  Type: "+string(q.Modality))

		if q.Modality == core.ModalityTextarea {
			if q.Existing.IsSet() {
				val := q.Existing.Single()
				runes := []rune(val)
				if len(runes) > currentValueCap {
					val = string(runes[:currentValueCap])
				}
				parts = append(parts, "  Current value: "+val)
			} else {
				parts = append(parts, "  Current value: (empty)")
			}
		} else {
			for _, o := range q.Options {
				label := o.Label
				if label == "" {
					label = o.Value
				}
				marker := ""
				if o.Checked {
					marker = " ✓"
				}
				parts = append(parts, "  - "+label+marker)
			}
			if q.Existing.IsSet() {
				parts = append(parts, "  Selected: "+strings.Join(q.Existing, ", "))
			}
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

func questionHeading(q core.Question) string {
	label := q.Label
	if label == "" {
		runes := []rune(q.Text)
		if len(runes) > 80 {
			runes = runes[:80]
		}
		label = string(runes)
	}
	if label == "" {
		label = "Question #" + q.Ordinal
	}
	if q.Ordinal != "" {
		return fmt.Sprintf("Q%s: %s", q.Ordinal, label)
	}
	return label
}

// instructionsText joins the extracted instruction blocks.
func instructionsText(extract *core.TaskExtract) string {
	if len(extract.Instructions) == 0 {
		return "(No instructions found embedded in this task)"
	}
	return strings.Join(extract.Instructions, "\n\n---\n\n")
}
