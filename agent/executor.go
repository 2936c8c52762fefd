// chromedp executor: replays commands against a live browser tab attached
// via the DevTools protocol.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/circuitgrid/tasklens/core"
)

// Executor replays commands in an already-running browser. It attaches to
// the browser's DevTools websocket, so the page keeps whatever session state
// the human left it in.
type Executor struct {
	devtoolsURL string
	timeout     time.Duration
}

// NewExecutor creates an Executor for the given DevTools websocket URL
// (e.g. ws://127.0.0.1:9222/devtools/browser/...).
func NewExecutor(devtoolsURL string, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{devtoolsURL: devtoolsURL, timeout: timeout}
}

// Execute replays the batch in order. Per-command failures are logged and
// skipped so replay continues, and reported in aggregate.
func (e *Executor) Execute(ctx context.Context, commands []core.Command) error {
	if len(commands) == 0 {
		return nil
	}

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, e.devtoolsURL)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, e.timeout)
	defer cancelTimeout()

	var failed int
	for _, c := range commands {
		if err := e.run(taskCtx, c); err != nil {
			failed++
			slog.Warn("command failed", "kind", c.Kind, "selector", c.Selector, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d commands failed", failed, len(commands))
	}
	return nil
}

func (e *Executor) run(ctx context.Context, c core.Command) error {
	switch c.Kind {
	case core.CommandFillField:
		return chromedp.Run(ctx, chromedp.SetValue(c.Selector, c.Payload, chromedp.ByQuery))
	case core.CommandClickOption:
		var clicked bool
		script := clickOptionScript(c.Selector, c.Payload)
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
			return err
		}
		if !clicked {
			return fmt.Errorf("no option labeled %q under %q", c.Payload, c.Selector)
		}
		return nil
	default:
		return fmt.Errorf("unknown command kind %q", c.Kind)
	}
}

// clickOptionScript builds the in-page routine that clicks the option whose
// label text equals the payload (case-insensitive). The selector may address
// either a question container or the inputs themselves (orphan groups).
func clickOptionScript(selector, label string) string {
	sel, _ := json.Marshal(selector)
	want, _ := json.Marshal(label)
	return fmt.Sprintf(`(() => {
  const want = %s.trim().toLowerCase();
  for (const root of document.querySelectorAll(%s)) {
    if (root.matches('input')) {
      const lab = root.closest('label');
      const text = (lab ? lab.textContent : root.value || '').trim().toLowerCase();
      if (text === want) { (lab || root).click(); return true; }
      continue;
    }
    for (const lab of root.querySelectorAll('label')) {
      if (lab.textContent.trim().toLowerCase() === want) { lab.click(); return true; }
    }
  }
  return false;
})()`, want, sel)
}
