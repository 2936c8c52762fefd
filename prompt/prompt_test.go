package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/schema"
)

func sampleExtract() *core.TaskExtract {
	return &core.TaskExtract{
		Title: "Style Review Task",
		ConversationParts: []core.ContentSection{
			{Index: 0, Text: "Explain tidal locking to a child."},
		},
		Instructions: []string{"Rate factual accuracy first."},
		Questions: []core.Question{
			{ID: "q-apr", Ordinal: "1", Label: "Approved?", Modality: core.ModalityRadio,
				Options: []core.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}},
			{ID: "q-com", Ordinal: "2", Label: "Comments", Modality: core.ModalityTextarea},
		},
	}
}

func TestDetectTaskType(t *testing.T) {
	extract := sampleExtract()
	assert.Equal(t, TaskFresh, DetectTaskType(extract))

	extract.Questions[0].Existing = core.ExistingAnswer{"Yes"}
	extract.Questions[0].Options[0].Checked = true
	assert.Equal(t, TaskReview, DetectTaskType(extract))
}

func TestBuildFresh(t *testing.T) {
	extract := sampleExtract()
	s := schema.Build(extract.Questions)

	p := Build(extract, s, "Be precise.")
	assert.Equal(t, TaskFresh, p.Type)

	assert.Contains(t, p.System, "Be precise.")
	assert.Contains(t, p.System, "JSON code block")

	assert.Contains(t, p.User, "# Task: Style Review Task")
	assert.Contains(t, p.User, "Explain tidal locking to a child.")
	assert.Contains(t, p.User, "Rate factual accuracy first.")
	assert.Contains(t, p.User, "### Q1: Approved?")
	assert.Contains(t, p.User, "  - Yes\n  - No")
	assert.Contains(t, p.User, "Current value: (empty)")
	assert.Contains(t, p.User, "```json\n"+s.Template()+"\n```")
	assert.NotContains(t, p.User, "worker_review_accuracy")
}

func TestBuildReview(t *testing.T) {
	extract := sampleExtract()
	extract.Questions[0].Existing = core.ExistingAnswer{"Yes"}
	extract.Questions[0].Options[0].Checked = true
	extract.Questions[1].Existing = core.ExistingAnswer{"solid answer"}
	s := schema.Build(extract.Questions)

	p := Build(extract, s, "")
	assert.Equal(t, TaskReview, p.Type)

	assert.Contains(t, p.User, "reviewing another worker's evaluation")
	assert.Contains(t, p.User, "  - Yes ✓")
	assert.Contains(t, p.User, "Selected: Yes")
	assert.Contains(t, p.User, "Current value: solid answer")
	assert.Contains(t, p.User, `"worker_review_accuracy"`)
	assert.Contains(t, p.User, `"worker_review_recommendation"`)
}

func TestBuildCapsEchoedValue(t *testing.T) {
	extract := sampleExtract()
	extract.Questions[1].Existing = core.ExistingAnswer{strings.Repeat("x", 900)}
	s := schema.Build(extract.Questions)

	p := Build(extract, s, "")
	assert.Contains(t, p.User, "Current value: "+strings.Repeat("x", 500)+"\n")
	assert.NotContains(t, p.User, strings.Repeat("x", 501))
}

func TestBuildEmptyExtract(t *testing.T) {
	extract := &core.TaskExtract{}
	p := Build(extract, schema.Build(nil), "")

	assert.Contains(t, p.User, "# Task: Unknown Task")
	assert.Contains(t, p.User, "(No form questions found in this task)")
	assert.Contains(t, p.User, "(No instructions found embedded in this task)")
}

func TestBuildDeterministic(t *testing.T) {
	extract := sampleExtract()
	s := schema.Build(extract.Questions)
	require.Equal(t, Build(extract, s, "g"), Build(extract, s, "g"))
}
