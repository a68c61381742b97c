package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks the liveness of one backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint, reporting per-dependency
// status so operators can tell a degraded instance from a dead one.
type HealthHandler struct {
	deps   map[string]Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. The deps map names each backing
// dependency to probe; nil entries are skipped.
func NewHealthHandler(deps map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{deps: deps, logger: logger}
}

// HealthCheck reports overall and per-dependency status.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
