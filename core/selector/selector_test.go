package selector

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/htmldoc"
	"github.com/circuitgrid/tasklens/core/inference"
)

func infer(t *testing.T, raw string) (*goquery.Document, []core.Question) {
	t.Helper()
	doc, err := htmldoc.Parse([]byte(raw))
	require.NoError(t, err)
	return doc, inference.New().Questions(doc)
}

func TestGeneratePrefersPlatformID(t *testing.T) {
	doc, questions := infer(t, `
		<div id="question-1" data-question-id="q-abc" data-label="Pick">
			<label><input type="radio" name="p" value="a">A</label>
		</div>`)

	warnings := Generate(doc, questions)
	assert.Empty(t, warnings)
	require.Len(t, questions, 1)
	assert.Equal(t, `[data-question-id="q-abc"]`, questions[0].Selector)
}

func TestGenerateTextareaTargetsControl(t *testing.T) {
	doc, questions := infer(t, `
		<div id="question-1" data-question-id="q-txt" data-label="Comments">
			<textarea>hello</textarea>
		</div>`)

	warnings := Generate(doc, questions)
	assert.Empty(t, warnings)
	assert.Equal(t, `[data-question-id="q-txt"] textarea`, questions[0].Selector)
}

func TestGenerateFallsBackToContainerID(t *testing.T) {
	// Two ghost renders share the platform id; only the container id is
	// unique, so the positional form wins.
	doc, questions := infer(t, `
		<div id="question-1" data-question-id="q-dup">
			<label><input type="radio" name="d" value="a">A</label>
		</div>
		<div id="question-2" data-question-id="q-dup">
			<label><input type="radio" name="d2" value="b">B</label>
		</div>`)

	warnings := Generate(doc, questions)
	assert.Empty(t, warnings)
	require.Len(t, questions, 2)
	assert.Equal(t, `div[id="question-1"]`, questions[0].Selector)
	assert.Equal(t, `div[id="question-2"]`, questions[1].Selector)
}

func TestGenerateOrphanSelectors(t *testing.T) {
	doc, questions := infer(t, `
		<textarea name="extra">note</textarea>
		<label><input type="radio" name="rate" value="1" checked>One</label>`)

	warnings := Generate(doc, questions)
	assert.Empty(t, warnings)
	require.Len(t, questions, 2)
	assert.Equal(t, `input[type="radio"][name="rate"]`, questions[0].Selector)
	assert.Equal(t, `textarea[name="extra"]`, questions[1].Selector)
}

func TestGeneratePositionalFallbackForNamelessOrphans(t *testing.T) {
	doc, questions := infer(t, `
		<textarea placeholder="Anything else?">one more thing</textarea>`)

	warnings := Generate(doc, questions)
	assert.Empty(t, warnings)
	require.Len(t, questions, 1)
	assert.Equal(t, "textarea", questions[0].Selector, "sole textarea resolves positionally")
}

func TestGeneratePositionalFallbackForNamelessRadios(t *testing.T) {
	doc, questions := infer(t, `
		<label><input type="radio" value="a" checked>A</label>`)

	warnings := Generate(doc, questions)
	assert.Empty(t, warnings)
	require.Len(t, questions, 1)
	assert.Equal(t, `input[type="radio"]`, questions[0].Selector)
}

func TestGenerateNonUniqueKeptWithWarning(t *testing.T) {
	doc, questions := infer(t, `
		<label><input type="radio" name="rate" value="1">One</label>
		<label><input type="radio" name="rate" value="2">Two</label>`)

	warnings := Generate(doc, questions)
	require.Len(t, questions, 1)
	assert.Equal(t, `input[type="radio"][name="rate"]`, questions[0].Selector)
	require.Len(t, warnings, 1)
	assert.Equal(t, questions[0].ID, warnings[0].QuestionID)
	assert.Contains(t, warnings[0].Reason, "2 elements")
}

func TestGenerateNoCandidate(t *testing.T) {
	doc, err := htmldoc.Parse([]byte("<p>empty page</p>"))
	require.NoError(t, err)

	questions := []core.Question{{ID: "orphan-x", Ordinal: "orphan", Modality: core.ModalityRadio}}
	warnings := Generate(doc, questions)
	assert.Equal(t, "", questions[0].Selector)
	require.Len(t, warnings, 1)
	assert.Equal(t, "no candidate resolved", warnings[0].Reason)
}

func TestQuoteAttr(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteAttr("plain"))
	assert.Equal(t, `"a\"b"`, quoteAttr(`a"b`))
	assert.Equal(t, `"a\\b"`, quoteAttr(`a\b`))
}
