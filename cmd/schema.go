// The schema command prints the answer-schema template derived
// from a saved task page, the exact shape an answer generator must fill.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/circuitgrid/tasklens/core/schema"
)

var flagSchemaRules string

var schemaCmd = &cobra.Command{
	Use:   "schema <file.html>",
	Short: "Print the answer-schema template for a saved task page",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVar(&flagSchemaRules, "rules", "", "Vocabulary rules YAML file")
}

func runSchema(cmd *cobra.Command, args []string) error {
	pipeline, err := buildPipeline(flagSchemaRules)
	if err != nil {
		return err
	}
	result, _, err := pipeline.RunFile(args[0])
	if err != nil {
		return err
	}

	s := schema.Build(result.Questions)
	fmt.Fprintln(os.Stdout, s.Template())
	return nil
}
