package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/sketch-gateway/services/backend"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker verifies the audit database answers queries
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// BackendProber runs a backend liveness probe
type BackendProber interface {
	BackendHealth(ctx context.Context) backend.HealthStatus
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     DatabaseChecker
	prober BackendProber
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when no audit database is configured.
func NewHealthHandler(db DatabaseChecker, prober BackendProber, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		prober: prober,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz.
// Only the audit database can make the gateway unready; an unreachable
// backend is reported but the gateway still serves degraded responses.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	switch {
	case h.db == nil:
		checks["database"] = "not_configured"
	default:
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			ready = false
		} else {
			checks["database"] = "healthy"
		}
	}

	if h.prober != nil {
		checks["backend"] = string(h.prober.BackendHealth(ctx).Outcome)
	}

	if !ready {
		if err := utils.WriteFailure(w, http.StatusServiceUnavailable, "NOT_READY", fmt.Sprintf("database: %s", checks["database"])); err != nil {
			h.logger.Error("failed to write readiness response", zap.Error(err))
		}
		return
	}

	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// HandleBackendHealth handles GET /api/backend/health
func (h *HealthHandler) HandleBackendHealth(w http.ResponseWriter, r *http.Request) {
	status := h.prober.BackendHealth(r.Context())

	if err := utils.WriteOK(w, status); err != nil {
		h.logger.Error("failed to write backend health response", zap.Error(err))
	}
}
