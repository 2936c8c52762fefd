// Package report provides renderers that turn a task extract into a final
// output format (JSON, Markdown, PDF). JSON is the canonical machine format;
// Markdown is the human summary and feeds the PDF renderer.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/circuitgrid/tasklens/core"
)

// JSONRenderer writes the extract as indented JSON. Empty fields are omitted
// by the extract's own marshaling (sparse-object contract).
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the extract.
func (r *JSONRenderer) Render(extract *core.TaskExtract) ([]byte, error) {
	data, err := json.MarshalIndent(extract, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling extract: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
