// Package cmd implements the CLI commands for TaskLens using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tasklens",
	Short: "TaskLens — turn saved annotation task pages into schemas and replay commands",
	Long: `TaskLens parses a saved annotation-platform HTML page, infers every form
question it presents, derives an answer schema, and can turn an answer set
back into UI commands that reproduce those answers on the live page.

Usage:
  tasklens extract <file.html> [flags]
  tasklens schema <file.html>
  tasklens plan <file.html> <answers.json> [flags]
  tasklens serve [flags]`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
