// Rules file: the recognition vocabulary as data. Keeping the modality
// priority and the pattern vocabularies in a YAML file means new page layouts
// can be accommodated without touching dispatch logic.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/sections"
)

// Rules is the YAML shape of the vocabulary file. Zero-valued fields keep
// their built-in defaults.
type Rules struct {
	ModalityPriority []string `yaml:"modality_priority"`

	ContentClass     string `yaml:"content_class"`
	InstructionClass string `yaml:"instruction_class"`

	DownloadHrefPattern   string `yaml:"download_href_pattern"`
	DownloadTextPattern   string `yaml:"download_text_pattern"`
	HighlightClassPattern string `yaml:"highlight_class_pattern"`
}

// LoadRules reads the rules file. An empty path returns defaults; a missing
// file is an error (a configured path that doesn't exist is a mistake worth
// surfacing).
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return &Rules{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return &r, nil
}

// SectionConfig merges the rules onto the default section vocabulary.
func (r *Rules) SectionConfig() (sections.Config, error) {
	cfg := sections.DefaultConfig()
	if r.ContentClass != "" {
		cfg.ContentClass = r.ContentClass
	}
	if r.InstructionClass != "" {
		cfg.InstructionClass = r.InstructionClass
	}

	var err error
	if cfg.DownloadHref, err = override(cfg.DownloadHref, r.DownloadHrefPattern); err != nil {
		return cfg, fmt.Errorf("download_href_pattern: %w", err)
	}
	if cfg.DownloadText, err = override(cfg.DownloadText, r.DownloadTextPattern); err != nil {
		return cfg, fmt.Errorf("download_text_pattern: %w", err)
	}
	if cfg.HighlightClasses, err = override(cfg.HighlightClasses, r.HighlightClassPattern); err != nil {
		return cfg, fmt.Errorf("highlight_class_pattern: %w", err)
	}
	return cfg, nil
}

// Priority maps the configured modality names onto the engine's order.
func (r *Rules) Priority() []core.Modality {
	var out []core.Modality
	for _, name := range r.ModalityPriority {
		out = append(out, core.Modality(name))
	}
	return out
}

func override(current *regexp.Regexp, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return current, nil
	}
	return regexp.Compile(pattern)
}
