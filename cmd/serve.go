// The serve command runs the full automation loop: watch a
// directory for saved task pages, extract, evaluate, generate commands, and
// expose the dashboard/API.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/circuitgrid/tasklens/agent"
	"github.com/circuitgrid/tasklens/config"
	"github.com/circuitgrid/tasklens/history"
	"github.com/circuitgrid/tasklens/llm"
	"github.com/circuitgrid/tasklens/logging"
	"github.com/circuitgrid/tasklens/server"
	"github.com/circuitgrid/tasklens/watch"
)

var flagServeNoEval bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch for task snapshots and serve the dashboard",
	Long: `Serve watches the configured directory for saved task pages, runs the full
extract → evaluate → command pipeline on each one, and exposes the results
over HTTP. Configuration comes from the environment (TASKLENS_* variables).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&flagServeNoEval, "no-eval", false, "Extract only, skip the hosted evaluator")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logging.Init(os.Stderr, cfg.LogLevel)

	pipeline, err := buildPipeline(cfg.RulesPath)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var evaluator llm.Evaluator
	if !flagServeNoEval && cfg.APIKey != "" {
		evaluator = llm.NewClient(cfg.APIURL, cfg.APIKey, cfg.Model, cfg.MaxTokens)
	} else {
		slog.Info("evaluator disabled", "no_eval", flagServeNoEval, "key_present", cfg.APIKey != "")
	}

	var dispatcher *agent.Dispatcher
	if cfg.AutomationURL != "" {
		dispatcher = agent.NewDispatcher(cfg.AutomationURL, cfg.AutomationTimeout, cfg.AutomationLegacy)
	}

	app := server.NewApp(pipeline, store, evaluator, dispatcher, cfg.InstructionsPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := watch.New(cfg.WatchDir, cfg.WatchKeywords, cfg.SettleDelay, func(path string) {
		app.ProcessFile(ctx, path)
	})
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("watcher stopped", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: server.New(app).Router(),
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	fmt.Fprintf(os.Stdout, "TaskLens listening on http://localhost:%s (watching %s)\n", cfg.ServerPort, cfg.WatchDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
