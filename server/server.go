// HTTP surface: the dashboard page plus the JSON API the dashboard polls.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/circuitgrid/tasklens/history"
)

// Server exposes the dashboard and API for one App.
type Server struct {
	app *App
}

// New creates a Server.
func New(app *App) *Server {
	return &Server{app: app}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/", s.handleIndex)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/tasks", s.handleTasks)
		r.Get("/tasks/{id}", s.handleTask)
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/fill-form", s.handleFill)
		r.Post("/history/clear", s.handleClear)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	runs, err := s.app.Store.List(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     s.app.Status(),
		"task_count": len(runs),
	})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	runs, err := s.app.Store.List(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	run, err := s.app.Store.Get(chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	// Detached from the request context: evaluation outlives the HTTP call.
	go func() {
		if err := s.app.EvaluateLatest(context.Background()); err != nil {
			slog.Error("manual evaluation failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	if err := s.app.FillLatest(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	remaining, err := s.app.Store.ClearKeepLatest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "remaining": remaining})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>TaskLens</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
.status { color: #666; }
.question { border-left: 3px solid #ddd; padding-left: .8rem; margin: .8rem 0; }
.section { background: #fafafa; padding: .6rem; margin: .6rem 0; }
</style></head>
<body>
<h1>TaskLens</h1>
<p class="status">{{.Status.State}} — {{.Status.Message}}</p>
{{if .Run}}
<h2>{{if .Run.Extract.Title}}{{.Run.Extract.Title}}{{else}}{{.Run.Filename}}{{end}}</h2>
<p class="status">Run {{.Run.ID}} · {{.Run.Status}} · {{.Run.CreatedAt}}</p>
{{range .Run.Extract.Questions}}
<div class="question">
	<strong>{{if .Label}}{{.Label}}{{else}}{{.ID}}{{end}}</strong> ({{.Modality}})
	{{if .Existing}}<div>Existing: {{range .Existing}}{{.}} {{end}}</div>{{end}}
</div>
{{end}}
{{range .Run.Extract.ConversationParts}}
<div class="section">{{if .HTML}}{{.SafeHTML}}{{else}}{{.Text}}{{end}}</div>
{{end}}
{{else}}
<p>No tasks processed yet.</p>
{{end}}
</body></html>`))

// sectionView wraps a content section so the template can embed the
// already-sanitized HTML fragment.
type sectionView struct {
	Text string
	HTML string
}

// SafeHTML exposes the sanitized fragment as template-trusted HTML. The
// fragment was cleaned with a UGC policy at extraction time.
func (v sectionView) SafeHTML() template.HTML { return template.HTML(v.HTML) }

type indexView struct {
	Status Status
	Run    *runView
}

type runView struct {
	ID        string
	Filename  string
	Status    string
	CreatedAt string
	Extract   extractView
}

type extractView struct {
	Title             string
	Questions         []questionView
	ConversationParts []sectionView
}

type questionView struct {
	ID       string
	Label    string
	Modality string
	Existing []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := indexView{Status: s.app.Status()}

	if run, err := s.app.Store.Latest(); err == nil {
		rv := &runView{
			ID:        run.ID,
			Filename:  run.Filename,
			Status:    run.Status,
			CreatedAt: run.CreatedAt.Format(time.RFC3339),
			Extract:   extractView{Title: run.Extract.Title},
		}
		for _, q := range run.Extract.Questions {
			rv.Extract.Questions = append(rv.Extract.Questions, questionView{
				ID:       q.ID,
				Label:    q.Label,
				Modality: string(q.Modality),
				Existing: q.Existing,
			})
		}
		for _, cs := range run.Extract.ConversationParts {
			rv.Extract.ConversationParts = append(rv.Extract.ConversationParts, sectionView{Text: cs.Text, HTML: cs.HTML})
		}
		view.Run = rv
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, view); err != nil {
		slog.Error("rendering index", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
