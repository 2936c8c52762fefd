package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitgrid/tasklens/core"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Comments", "comments"},
		{"Approved?", "approved"},
		{"Overall Quality Rating", "overall_quality_rating"},
		{"re-check the facts!", "re_check_the_facts"},
		{"  padded  ", "padded"},
		{"数字 only 42", "only_42"},
		{"???", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.label))
			assert.Equal(t, Slug(tt.label), Slug(tt.label), "slug is deterministic")
		})
	}
}

func TestBuild(t *testing.T) {
	questions := []core.Question{
		{ID: "q-1", Ordinal: "1", Label: "Comments", Modality: core.ModalityTextarea},
		{ID: "q-2", Ordinal: "2", Label: "Approved?", Modality: core.ModalityRadio,
			Options: []core.Option{{Label: "Yes"}, {Label: "No"}}},
		{ID: "q-3", Ordinal: "3", Label: "Issues", Modality: core.ModalityCheckbox},
	}

	s := Build(questions)
	require.Len(t, s.Entries, 3)

	assert.Equal(t, Entry{Key: "comments", QuestionID: "q-1", Hint: "your text here"}, s.Entries[0])
	assert.Equal(t, Entry{Key: "approved", QuestionID: "q-2", Hint: "Yes | No"}, s.Entries[1])
	assert.Equal(t, Entry{Key: "issues", QuestionID: "q-3", Hint: "selected options", Multi: true}, s.Entries[2])

	assert.Equal(t, "approved", s.KeyFor("q-2"))
	assert.Equal(t, "", s.KeyFor("unknown"))
}

func TestBuildCollisionsAreDisambiguated(t *testing.T) {
	questions := []core.Question{
		{ID: "q-1", Ordinal: "1", Label: "Rating", Modality: core.ModalityTextarea},
		{ID: "q-2", Ordinal: "2", Label: "Rating!", Modality: core.ModalityTextarea},
		{ID: "q-3", Ordinal: "3", Label: "rating", Modality: core.ModalityTextarea},
	}

	s := Build(questions)
	require.Len(t, s.Entries, 3)
	assert.Equal(t, "rating", s.Entries[0].Key)
	assert.Equal(t, "rating_2", s.Entries[1].Key)
	assert.Equal(t, "rating_3", s.Entries[2].Key)

	keys := make(map[string]bool)
	for _, e := range s.Entries {
		assert.False(t, keys[e.Key], "keys must be injective")
		keys[e.Key] = true
	}
}

func TestBuildFallbackLabels(t *testing.T) {
	questions := []core.Question{
		{ID: "q-1", Ordinal: "4", Text: "What is the main failure mode here?", Modality: core.ModalityTextarea},
		{ID: "q-2", Ordinal: "5", Label: "???", Modality: core.ModalityTextarea},
		{ID: "q-3", Modality: core.ModalityTextarea},
	}

	s := Build(questions)
	require.Len(t, s.Entries, 3)
	assert.Equal(t, "what_is_the_main_failure_mode_here", s.Entries[0].Key, "text stands in for missing label")
	assert.Equal(t, "q5", s.Entries[1].Key, "unsluggable label falls back to ordinal")
	assert.Equal(t, "question_x", s.Entries[2].Key)
}

func TestHintCapsOptionList(t *testing.T) {
	var opts []core.Option
	for _, l := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		opts = append(opts, core.Option{Label: l})
	}
	q := core.Question{Modality: core.ModalityRadio, Options: opts}
	hint := hintFor(q)
	assert.Equal(t, 10, len(strings.Split(hint, " | ")))
	assert.NotContains(t, hint, "k")
}

func TestTemplate(t *testing.T) {
	s := Build([]core.Question{
		{ID: "q-1", Ordinal: "1", Label: "Approved?", Modality: core.ModalityRadio,
			Options: []core.Option{{Label: "Yes"}, {Label: "No"}}},
		{ID: "q-2", Ordinal: "2", Label: "Issues", Modality: core.ModalityCheckbox},
	})

	tpl := s.Template()
	assert.True(t, strings.HasPrefix(tpl, "{\n"))
	assert.True(t, strings.HasSuffix(tpl, "}"))
	assert.Contains(t, tpl, `"approved": "Yes | No",`)
	assert.Contains(t, tpl, `"issues": ["selected option 1", "selected option 2"],`)
	assert.Contains(t, tpl, `"justification": "your detailed evidence-based explanation"`)
}
