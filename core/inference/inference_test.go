package inference

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/htmldoc"
)

func parse(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := htmldoc.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestQuestionsTextareaContainer(t *testing.T) {
	doc := parse(t, `
		<div id="question-1" data-question-id="q-abc" data-label="Comments">
			<span data-testid="question-text">Any comments?</span>
			<textarea>looks good</textarea>
		</div>`)

	got := New().Questions(doc)
	require.Len(t, got, 1)

	q := got[0]
	assert.Equal(t, "q-abc", q.ID)
	assert.Equal(t, "1", q.Ordinal)
	assert.Equal(t, "Comments", q.Label)
	assert.Equal(t, "Any comments?", q.Text)
	assert.Equal(t, core.ModalityTextarea, q.Modality)
	assert.Equal(t, core.ExistingAnswer{"looks good"}, q.Existing)
	assert.Empty(t, q.Options)
}

func TestQuestionsRadioContainer(t *testing.T) {
	doc := parse(t, `
		<div id="question-2" data-question-id="q-apr" data-label="Approved?">
			<label><input type="radio" name="apr" value="yes" checked>Yes</label>
			<label><input type="radio" name="apr" value="no">No</label>
		</div>`)

	got := New().Questions(doc)
	require.Len(t, got, 1)

	q := got[0]
	assert.Equal(t, core.ModalityRadio, q.Modality)
	require.Len(t, q.Options, 2)
	assert.Equal(t, core.Option{Value: "yes", Label: "Yes", Checked: true}, q.Options[0])
	assert.Equal(t, core.Option{Value: "no", Label: "No"}, q.Options[1])
	assert.Equal(t, core.ExistingAnswer{"Yes"}, q.Existing)
	assert.Equal(t, "Yes", q.Existing.Single())
}

func TestQuestionsCheckboxMultipleChecked(t *testing.T) {
	doc := parse(t, `
		<div id="question-3" data-question-id="q-iss" data-label="Issues">
			<label><input type="checkbox" value="tone" checked>Tone</label>
			<label><input type="checkbox" value="facts">Facts</label>
			<label><input type="checkbox" value="format" checked>Format</label>
		</div>`)

	got := New().Questions(doc)
	require.Len(t, got, 1)
	assert.Equal(t, core.ModalityCheckbox, got[0].Modality)
	assert.Equal(t, core.ExistingAnswer{"Tone", "Format"}, got[0].Existing)
}

func TestQuestionsSelectContainer(t *testing.T) {
	doc := parse(t, `
		<div id="question-4" data-question-id="q-sev" data-label="Severity">
			<select name="sev">
				<option value="1">Low</option>
				<option value="2" selected>High</option>
			</select>
		</div>`)

	got := New().Questions(doc)
	require.Len(t, got, 1)
	assert.Equal(t, core.ModalitySelect, got[0].Modality)
	assert.Equal(t, core.ExistingAnswer{"High"}, got[0].Existing)
	require.Len(t, got[0].Options, 2)
	assert.True(t, got[0].Options[1].Checked)
}

func TestPriorityFirstMatchWins(t *testing.T) {
	mixed := `
		<div id="question-7" data-question-id="q-mix" data-label="Mixed">
			<label><input type="radio" name="m" value="a">A</label>
			<textarea>side note</textarea>
		</div>`

	got := New().Questions(parse(t, mixed))
	require.Len(t, got, 1)
	assert.Equal(t, core.ModalityRadio, got[0].Modality, "radio outranks textarea by default")

	reordered := NewWithPriority([]core.Modality{core.ModalityTextarea, core.ModalityRadio})
	got = reordered.Questions(parse(t, mixed))
	require.Len(t, got, 1)
	assert.Equal(t, core.ModalityTextarea, got[0].Modality)
}

func TestNewWithPriorityFiltersInvalid(t *testing.T) {
	e := NewWithPriority([]core.Modality{"bogus"})
	doc := parse(t, `
		<div id="question-1" data-question-id="q-a" data-label="A">
			<label><input type="radio" name="a" value="x">X</label>
		</div>`)
	got := e.Questions(doc)
	require.Len(t, got, 1)
	assert.Equal(t, core.ModalityRadio, got[0].Modality, "all-invalid priority falls back to default")
}

func TestContainerWithoutControlsStaysUnknown(t *testing.T) {
	doc := parse(t, `
		<div id="question-5" data-question-id="q-empty" data-label="Empty">
			<span data-testid="question-text">Nothing to answer here.</span>
		</div>`)

	got := New().Questions(doc)
	require.Len(t, got, 1)
	assert.Equal(t, core.ModalityUnknown, got[0].Modality)
	assert.False(t, got[0].Answered())
}

func TestContainerWithoutPlatformIDFallsBackToContainerID(t *testing.T) {
	doc := parse(t, `
		<div id="question-9">
			<textarea>something</textarea>
		</div>`)

	got := New().Questions(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "question-9", got[0].ID)
	assert.Equal(t, "9", got[0].Ordinal)
}

func TestContainerIDPatternIsStrict(t *testing.T) {
	doc := parse(t, `
		<div id="question-wrapper"><textarea>nope</textarea></div>
		<div id="question-10"><textarea>yes</textarea></div>`)

	got := New().Questions(doc)
	// The misnamed wrapper is not a container, so its textarea is recovered
	// as an orphan instead.
	require.Len(t, got, 2)
	assert.Equal(t, "question-10", got[0].ID)
	assert.Equal(t, "orphan", got[1].Ordinal)
}

func TestOrphanRadiosGroupedByName(t *testing.T) {
	doc := parse(t, `
		<div id="question-1" data-question-id="q-in" data-label="Inside">
			<label><input type="radio" name="inside" value="a">A</label>
		</div>
		<label><input type="radio" name="quality_rating" value="good" checked>Good</label>
		<p>unrelated markup between group members</p>
		<label><input type="radio" name="quality_rating" value="bad">Bad</label>`)

	got := New().Questions(doc)
	require.Len(t, got, 2, "container radio must not be captured twice")

	orphan := got[1]
	assert.Equal(t, "orphan-quality_", orphan.ID)
	assert.Equal(t, "orphan", orphan.Ordinal)
	assert.Equal(t, "quality_rating", orphan.Label)
	assert.Equal(t, "quality_rating", orphan.Name)
	assert.Equal(t, core.ModalityRadio, orphan.Modality)
	require.Len(t, orphan.Options, 2)
	assert.Equal(t, core.ExistingAnswer{"Good"}, orphan.Existing)
}

func TestOrphanTextareas(t *testing.T) {
	doc := parse(t, `
		<textarea name="extra" placeholder="Anything else?">one more thing</textarea>
		<textarea name="ghost"></textarea>`)

	got := New().Questions(doc)
	require.Len(t, got, 1, "empty orphan textarea is skipped")

	q := got[0]
	assert.Equal(t, "orphan-extra", q.ID)
	assert.Equal(t, "Anything else?", q.Label)
	assert.Equal(t, "extra", q.Name)
	assert.Equal(t, core.ModalityTextarea, q.Modality)
	assert.Equal(t, core.ExistingAnswer{"one more thing"}, q.Existing)
	assert.True(t, q.Answered())
}

func TestOrphanTextareaWithoutName(t *testing.T) {
	doc := parse(t, `<textarea placeholder="Anything else?">one more thing</textarea>`)

	got := New().Questions(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "orphan-textarea", got[0].ID)
	assert.Equal(t, "Anything else?", got[0].Label)
	assert.Equal(t, "", got[0].Name, "no name attribute means no name handle")
	assert.Equal(t, core.ExistingAnswer{"one more thing"}, got[0].Existing)
}

func TestOrphanRadiosWithoutName(t *testing.T) {
	doc := parse(t, `
		<label><input type="radio" value="a" checked>A</label>
		<label><input type="radio" value="b">B</label>`)

	got := New().Questions(doc)
	require.Len(t, got, 1, "nameless radios still form one group")
	assert.Equal(t, "orphan-unnamed", got[0].ID)
	assert.Equal(t, "unnamed", got[0].Label)
	assert.Equal(t, "", got[0].Name)
	require.Len(t, got[0].Options, 2)
	assert.Equal(t, core.ExistingAnswer{"A"}, got[0].Existing)
}

func TestDuplicateIDsGetSuffixed(t *testing.T) {
	doc := parse(t, `
		<div id="question-1" data-question-id="q-dup"><textarea>a</textarea></div>
		<div id="question-2" data-question-id="q-dup"><textarea>b</textarea></div>`)

	got := New().Questions(doc)
	require.Len(t, got, 2)
	assert.Equal(t, "q-dup", got[0].ID)
	assert.Equal(t, "q-dup-2", got[1].ID)
}

func TestQuestionsIdempotent(t *testing.T) {
	raw := `
		<div id="question-1" data-question-id="q-a" data-label="A">
			<label><input type="radio" name="a" value="x" checked>X</label>
		</div>
		<textarea name="extra">note</textarea>`

	e := New()
	first := e.Questions(parse(t, raw))
	second := e.Questions(parse(t, raw))
	assert.Equal(t, first, second)
}
