// Package extract wires the extraction stages into one pass: document loader
// → section extractors → question inference → selector generation. Each run
// is synchronous, side-effect-free and idempotent; distinct documents can be
// extracted concurrently because the pipeline holds no shared mutable state.
package extract

import (
	"fmt"
	"os"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/htmldoc"
	"github.com/circuitgrid/tasklens/core/inference"
	"github.com/circuitgrid/tasklens/core/sections"
	"github.com/circuitgrid/tasklens/core/selector"
)

// Pipeline runs the full extraction pass.
type Pipeline struct {
	sections *sections.Extractor
	engine   *inference.Engine
}

// New creates a Pipeline with the default vocabulary and modality priority.
func New() *Pipeline {
	return NewWithConfig(sections.DefaultConfig(), nil)
}

// NewWithConfig creates a Pipeline with an operator-supplied section
// vocabulary and modality detection order.
func NewWithConfig(cfg sections.Config, priority []core.Modality) *Pipeline {
	return &Pipeline{
		sections: sections.NewWithConfig(cfg),
		engine:   inference.NewWithPriority(priority),
	}
}

// Run extracts one snapshot. file is recorded verbatim in the result for
// provenance; pass "" for in-memory documents. The only fatal failure is an
// unparsable document; everything below that degrades per section.
func (p *Pipeline) Run(raw []byte, file string) (*core.TaskExtract, []selector.Warning, error) {
	doc, err := htmldoc.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("extract: %w", err)
	}

	questions := p.engine.Questions(doc)
	warnings := selector.Generate(doc, questions)

	result := &core.TaskExtract{
		File:              file,
		Title:             p.sections.Title(doc),
		ConversationParts: p.sections.ContentSections(doc),
		Questions:         questions,
		DownloadLinks:     p.sections.DownloadLinks(doc),
		Instructions:      p.sections.Instructions(doc),
		Tables:            p.sections.Tables(doc),
		HighlightedItems:  p.sections.Highlights(doc),
	}
	return result, warnings, nil
}

// RunFile extracts a snapshot from disk.
func (p *Pipeline) RunFile(path string) (*core.TaskExtract, []selector.Warning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return p.Run(raw, path)
}
