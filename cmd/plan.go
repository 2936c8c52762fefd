// The plan command resolves an answer map against a saved task
// page and emits the ordered UI command list, optionally delivering it to an
// automation agent or replaying it directly over DevTools.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/circuitgrid/tasklens/agent"
	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/command"
	"github.com/circuitgrid/tasklens/core/schema"
)

var (
	flagPlanRules    string
	flagPlanLegacy   bool
	flagPlanSend     string
	flagPlanDevtools string
	flagPlanTimeout  int
)

var planCmd = &cobra.Command{
	Use:   "plan <file.html> <answers.json>",
	Short: "Generate UI replay commands from an answer map",
	Long: `Plan extracts the questions from a saved task page, matches the supplied
answer map (keyed by schema slug) against them, and emits the ordered command
list.

Examples:
  tasklens plan task.html answers.json
  tasklens plan task.html answers.json --legacy
  tasklens plan task.html answers.json --send http://localhost:3004/automation
  tasklens plan task.html answers.json --devtools ws://127.0.0.1:9222/devtools/browser/abc`,
	Args: cobra.ExactArgs(2),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&flagPlanRules, "rules", "", "Vocabulary rules YAML file")
	planCmd.Flags().BoolVar(&flagPlanLegacy, "legacy", false, "Print flat comma-joined command lines instead of JSON")
	planCmd.Flags().StringVar(&flagPlanSend, "send", "", "POST the command batch to this automation endpoint")
	planCmd.Flags().StringVar(&flagPlanDevtools, "devtools", "", "Replay directly via this DevTools websocket URL")
	planCmd.Flags().IntVar(&flagPlanTimeout, "timeout", 30, "Delivery/replay timeout in seconds")
}

func runPlan(cmd *cobra.Command, args []string) error {
	pipeline, err := buildPipeline(flagPlanRules)
	if err != nil {
		return err
	}
	result, _, err := pipeline.RunFile(args[0])
	if err != nil {
		return err
	}

	answers, err := readAnswers(args[1])
	if err != nil {
		return err
	}

	commands := command.Generate(result.Questions, schema.Build(result.Questions), answers)
	if len(commands) == 0 {
		fmt.Fprintln(os.Stderr, "no commands generated (no matched questions)")
		return nil
	}

	if err := printCommands(commands); err != nil {
		return err
	}

	timeout := time.Duration(flagPlanTimeout) * time.Second
	if flagPlanSend != "" {
		d := agent.NewDispatcher(flagPlanSend, timeout, flagPlanLegacy)
		if err := d.Dispatch(context.Background(), commands); err != nil {
			return fmt.Errorf("delivering commands: %w", err)
		}
		fmt.Fprintf(os.Stdout, "✓ %d commands delivered to %s\n", len(commands), flagPlanSend)
	}
	if flagPlanDevtools != "" {
		e := agent.NewExecutor(flagPlanDevtools, timeout)
		if err := e.Execute(context.Background(), commands); err != nil {
			return fmt.Errorf("replaying commands: %w", err)
		}
		fmt.Fprintf(os.Stdout, "✓ %d commands replayed\n", len(commands))
	}
	return nil
}

func readAnswers(path string) (core.AnswerMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var answers core.AnswerMap
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("parsing answer map: %w", err)
	}
	return answers, nil
}

func printCommands(commands []core.Command) error {
	if flagPlanLegacy {
		for _, c := range commands {
			fmt.Fprintln(os.Stdout, c.Legacy())
		}
		return nil
	}
	data, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling commands: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
