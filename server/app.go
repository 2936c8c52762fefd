// App orchestrates the full flow around the extraction core: snapshot file →
// extract → persist → (optionally) evaluate → generate commands → dispatch.
// The core stages stay pure; everything stateful lives here or in the
// history store.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/circuitgrid/tasklens/agent"
	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/core/command"
	"github.com/circuitgrid/tasklens/core/extract"
	"github.com/circuitgrid/tasklens/core/schema"
	"github.com/circuitgrid/tasklens/history"
	"github.com/circuitgrid/tasklens/llm"
	"github.com/circuitgrid/tasklens/prompt"
)

// Status is the dashboard's view of what the service is doing.
type Status struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// App wires the pipeline to its collaborators. Evaluator and dispatcher may
// be nil: extraction then simply stops after persisting.
type App struct {
	Pipeline   *extract.Pipeline
	Store      *history.Store
	Evaluator  llm.Evaluator
	Dispatcher *agent.Dispatcher

	// InstructionsPath points at the operator's general guidelines markdown.
	InstructionsPath string

	mu     sync.Mutex
	status Status
}

// NewApp creates an App in the idle state.
func NewApp(pipeline *extract.Pipeline, store *history.Store, evaluator llm.Evaluator, dispatcher *agent.Dispatcher, instructionsPath string) *App {
	return &App{
		Pipeline:         pipeline,
		Store:            store,
		Evaluator:        evaluator,
		Dispatcher:       dispatcher,
		InstructionsPath: instructionsPath,
		status:           Status{State: "idle", Message: "Waiting for tasks..."},
	}
}

// Status returns the current state snapshot.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *App) setStatus(state, message string) {
	a.mu.Lock()
	a.status = Status{State: state, Message: message}
	a.mu.Unlock()
}

// ProcessFile runs the full flow for one snapshot. All failures end in an
// error status; none of them panic or stop the service.
func (a *App) ProcessFile(ctx context.Context, path string) {
	a.setStatus("extracting", "Extracting: "+path)
	slog.Info("processing snapshot", "path", path)

	result, warnings, err := a.Pipeline.RunFile(path)
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		a.setStatus("error", err.Error())
		slog.Error("extraction failed", "path", path, "error", err)
		return
	}
	extractionsTotal.WithLabelValues("ok").Inc()
	for _, w := range warnings {
		slog.Warn("selector warning", "question", w.QuestionID, "selector", w.Selector, "reason", w.Reason)
	}

	runID, err := a.Store.SaveExtract(path, result)
	if err != nil {
		a.setStatus("error", err.Error())
		slog.Error("persisting extract failed", "path", path, "error", err)
		return
	}
	slog.Info("extraction stored", "run", runID, "questions", len(result.Questions))

	if a.Evaluator == nil {
		a.setStatus("extracted", "Extracted — no evaluator configured")
		return
	}

	a.setStatus("evaluating", "Evaluating extracted task...")
	if err := a.evaluate(ctx, runID, result); err != nil {
		a.setStatus("error", err.Error())
		return
	}
	a.setStatus("complete", "Evaluation complete — ready to fill")
}

// evaluate runs the hosted evaluator and dispatches the resulting commands.
func (a *App) evaluate(ctx context.Context, runID string, result *core.TaskExtract) error {
	p := prompt.Build(result, schema.Build(result.Questions), a.instructions())

	eval, err := a.Evaluator.Evaluate(ctx, p)
	if err != nil {
		evaluationsTotal.WithLabelValues("error").Inc()
		if eval != nil {
			// Keep the raw reply around even when answer parsing failed.
			_ = a.Store.AttachEvaluation(runID, eval)
		}
		_ = a.Store.SetStatus(runID, "error")
		slog.Error("evaluation failed", "run", runID, "error", err)
		return fmt.Errorf("evaluation: %w", err)
	}
	evaluationsTotal.WithLabelValues("ok").Inc()

	if err := a.Store.AttachEvaluation(runID, eval); err != nil {
		return fmt.Errorf("persisting evaluation: %w", err)
	}
	slog.Info("evaluation stored", "run", runID,
		"input_tokens", eval.Usage.InputTokens, "output_tokens", eval.Usage.OutputTokens)

	a.dispatch(result, eval.Answers)
	return nil
}

// dispatch generates and fires commands; absence of a dispatcher or of any
// matched answers is not an error.
func (a *App) dispatch(result *core.TaskExtract, answers core.AnswerMap) {
	if a.Dispatcher == nil || len(answers) == 0 {
		return
	}
	commands := command.Generate(result.Questions, schema.Build(result.Questions), answers)
	if len(commands) == 0 {
		slog.Info("no automation commands generated")
		return
	}
	commandsGenerated.Add(float64(len(commands)))
	a.Dispatcher.DispatchAsync(commands)
}

// EvaluateLatest re-runs the evaluator against the most recent run.
func (a *App) EvaluateLatest(ctx context.Context) error {
	if a.Evaluator == nil {
		return fmt.Errorf("no evaluator configured")
	}
	run, err := a.Store.Latest()
	if err != nil {
		return err
	}
	a.setStatus("evaluating", "Re-evaluating latest task...")
	if err := a.evaluate(ctx, run.ID, run.Extract); err != nil {
		a.setStatus("error", err.Error())
		return err
	}
	a.setStatus("complete", "Evaluation complete")
	return nil
}

// FillLatest regenerates commands from the latest evaluated run and
// dispatches them.
func (a *App) FillLatest() error {
	run, err := a.Store.Latest()
	if err != nil {
		return err
	}
	if run.Evaluation == nil {
		return fmt.Errorf("latest run has no evaluation yet")
	}
	var eval llm.Result
	if err := json.Unmarshal(run.Evaluation, &eval); err != nil {
		return fmt.Errorf("unmarshaling stored evaluation: %w", err)
	}
	if len(eval.Answers) == 0 {
		return fmt.Errorf("stored evaluation has no parsed answers")
	}
	a.dispatch(run.Extract, eval.Answers)
	return nil
}

// instructions loads the operator guideline file; a missing file simply
// means no general guidelines.
func (a *App) instructions() string {
	if a.InstructionsPath == "" {
		return ""
	}
	raw, err := os.ReadFile(a.InstructionsPath)
	if err != nil {
		return ""
	}
	return string(raw)
}
