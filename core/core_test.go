package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerValues(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty string", in: "", want: nil},
		{name: "string", in: "yes", want: []string{"yes"}},
		{name: "string slice", in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "decoded json list", in: []any{"a", 3, "b"}, want: []string{"a", "b"}},
		{name: "number", in: 42, want: nil},
		{name: "nested map", in: map[string]any{"x": "y"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnswerValues(tt.in))
		})
	}
}

func TestExistingAnswer(t *testing.T) {
	var none ExistingAnswer
	assert.False(t, none.IsSet())
	assert.Equal(t, "", none.Single())

	one := ExistingAnswer{"Yes"}
	assert.True(t, one.IsSet())
	assert.Equal(t, "Yes", one.Single())
}

func TestTaskExtractSparseJSON(t *testing.T) {
	raw, err := json.Marshal(&TaskExtract{Title: "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t"}`, string(raw), "empty collections are omitted, not nulled")
}

func TestExistingAnswerWireShape(t *testing.T) {
	raw, err := json.Marshal(Question{
		ID:       "q-1",
		Modality: ModalityRadio,
		Existing: ExistingAnswer{"Yes"},
	})
	require.NoError(t, err)
	// Single-value modalities still marshal as an array; consumers read
	// existing_answer[0].
	assert.Contains(t, string(raw), `"existing_answer":["Yes"]`)
}

func TestCommandLegacy(t *testing.T) {
	c := Command{Kind: CommandFillField, Selector: `textarea[name="extra"]`, Payload: "done"}
	assert.Equal(t, `FILL_FIELD,textarea[name="extra"],done`, c.Legacy())
}
