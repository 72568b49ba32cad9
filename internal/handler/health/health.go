// Package health reports whether the service's backing infrastructure is
// reachable.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/syntaxarena/arena/internal/handler/respond"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks  map[string]Checker
	timeout time.Duration
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, timeout: 3 * time.Second, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type Result struct {
	Status    string `json:"status" enum:"ok,error"`
	LatencyMS int64  `json:"latencyMs"`
}

// Report maps each dependency name to its result.
type Report map[string]Result

// Run checks every dependency concurrently.
func (h *Handler) Run(ctx context.Context) (Report, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		report  = make(Report, len(h.checks))
	)
	for name, c := range h.checks {
		wg.Add(1)
		go func(name string, c Checker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			res := Result{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				res.Status = "error"
			}

			mu.Lock()
			report[name] = res
			if err != nil {
				healthy = false
			}
			mu.Unlock()
		}(name, c)
	}
	wg.Wait()
	return report, healthy
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	report, healthy := h.Run(r.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	respond.JSON(w, status, report)
}
