// Package agent delivers generated UI commands to the page-automation
// surface. Delivery is best-effort and fire-and-forget: a bounded-timeout
// POST that is logged on failure, never retried, and never blocks a
// subsequent extraction. The package also ships a chromedp executor that can
// replay commands against a live page directly when no external agent is
// running.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/circuitgrid/tasklens/core"
)

const defaultDispatchTimeout = 5 * time.Second

// Dispatcher POSTs command batches to an automation endpoint.
type Dispatcher struct {
	url     string
	legacy  bool
	timeout time.Duration
	client  *http.Client
}

// NewDispatcher creates a Dispatcher for the given endpoint. legacy selects
// the historical flat comma-joined command strings instead of structured
// JSON, for agents that still speak that form.
func NewDispatcher(url string, timeout time.Duration, legacy bool) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		url:     url,
		legacy:  legacy,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// batch is the structured wire payload.
type batch struct {
	Commands []core.Command `json:"commands"`
}

// legacyBatch mirrors the original automation server's payload shape.
type legacyBatch struct {
	Commands []string `json:"commands"`
	CursorX  int      `json:"cursorX"`
	CursorY  int      `json:"cursorY"`
}

// Dispatch sends one command batch. An empty batch is a no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, commands []core.Command) error {
	if len(commands) == 0 {
		return nil
	}

	var payload any
	if d.legacy {
		lines := make([]string, len(commands))
		for i, c := range commands {
			lines[i] = c.Legacy()
		}
		payload = legacyBatch{Commands: lines}
	} else {
		payload = batch{Commands: commands}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling command batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to automation agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("automation agent returned %d", resp.StatusCode)
	}
	return nil
}

// DispatchAsync fires Dispatch on its own goroutine and logs the outcome.
// Failure is never surfaced to the caller.
func (d *Dispatcher) DispatchAsync(commands []core.Command) {
	go func() {
		if err := d.Dispatch(context.Background(), commands); err != nil {
			slog.Warn("command dispatch failed", "commands", len(commands), "error", err)
			return
		}
		slog.Info("commands dispatched", "commands", len(commands))
	}()
}
