// The extract command parses a saved task page and writes the
// structured extraction result as JSON, Markdown or PDF.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/circuitgrid/tasklens/config"
	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/extract"
	"github.com/circuitgrid/tasklens/core/report"
)

var (
	flagExtractOut      string
	flagExtractFormat   string
	flagExtractRules    string
	flagExtractWarnings bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.html>",
	Short: "Extract the form schema and sections from a saved task page",
	Long: `Extract parses one saved HTML snapshot, infers every question, option and
pre-existing answer, and writes the result.

Examples:
  tasklens extract task.html
  tasklens extract task.html -o current.json
  tasklens extract task.html --format markdown
  tasklens extract task.html --rules rules.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&flagExtractOut, "output", "o", "", "Output file (default: <input>.<ext>)")
	extractCmd.Flags().StringVar(&flagExtractFormat, "format", "json", "Output format: json, markdown, pdf")
	extractCmd.Flags().StringVar(&flagExtractRules, "rules", "", "Vocabulary rules YAML file")
	extractCmd.Flags().BoolVar(&flagExtractWarnings, "warnings", false, "Print selector warnings to stderr")
}

func runExtract(cmd *cobra.Command, args []string) error {
	pipeline, err := buildPipeline(flagExtractRules)
	if err != nil {
		return err
	}

	renderer, err := selectRenderer(flagExtractFormat)
	if err != nil {
		return err
	}

	result, warnings, err := pipeline.RunFile(args[0])
	if err != nil {
		return err
	}
	if flagExtractWarnings {
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "selector warning: %s (%s): %s\n", w.QuestionID, w.Selector, w.Reason)
		}
	}

	data, err := renderer.Render(result)
	if err != nil {
		return fmt.Errorf("rendering result: %w", err)
	}

	out := flagExtractOut
	if out == "" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + renderer.Extension()
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	answered := 0
	for _, q := range result.Questions {
		if q.Answered() {
			answered++
		}
	}
	fmt.Fprintf(os.Stdout, "✓ %s: %d sections, %d questions (%d answered), %d downloads → %s\n",
		args[0], len(result.ConversationParts), len(result.Questions), answered, len(result.DownloadLinks), out)
	return nil
}

// buildPipeline builds the extraction pipeline honoring an optional rules
// file. Shared by every command that extracts.
func buildPipeline(rulesPath string) (*extract.Pipeline, error) {
	rules, err := config.LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	cfg, err := rules.SectionConfig()
	if err != nil {
		return nil, err
	}
	return extract.NewWithConfig(cfg, rules.Priority()), nil
}

// selectRenderer picks the report renderer for a format name.
func selectRenderer(format string) (core.Renderer, error) {
	switch strings.ToLower(format) {
	case "json":
		return report.NewJSONRenderer(), nil
	case "markdown", "md":
		return report.NewMarkdownRenderer(), nil
	case "pdf":
		return report.NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json, markdown or pdf)", format)
	}
}
