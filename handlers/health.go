package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/sketch-gateway/internal/observability"
	"github.com/upb/sketch-gateway/services"
	"github.com/upb/sketch-gateway/services/audit"
	"github.com/upb/sketch-gateway/services/fallback"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// Version is the gateway release reported by /api/status
const Version = "0.1.0"

// statusWindowHours is how far back persisted dispatch counts reach
const statusWindowHours = 24

// DispatchStatsSource exposes the persisted dispatch trail
type DispatchStatsSource interface {
	GetStats() audit.Stats
	CountByPath(ctx context.Context, operation string, sinceHours int) (map[string]int, error)
}

// StatusInfo is static deployment information
type StatusInfo struct {
	Environment  string
	BackendURL   string
	LiveGenerate bool
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Version      string                                        `json:"version"`
	Environment  string                                        `json:"environment"`
	BackendURL   string                                        `json:"backendUrl"`
	LiveGenerate bool                                          `json:"liveGenerate"`
	StartedAt    time.Time                                     `json:"startedAt"`
	Dispatches   map[string]map[string]observability.PathStats `json:"dispatches"`
	Audit        *audit.Stats                                  `json:"audit,omitempty"`
	RecentPaths  map[string]map[string]int                     `json:"recentPaths,omitempty"`
}

// StatusHandler reports how the gateway has been serving requests
type StatusHandler struct {
	info    StatusInfo
	metrics *observability.DispatchMetrics
	audit   DispatchStatsSource
	logger  *zap.Logger
}

// NewStatusHandler creates a new StatusHandler. audit may be nil.
func NewStatusHandler(info StatusInfo, metrics *observability.DispatchMetrics, audit DispatchStatsSource, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		info:    info,
		metrics: metrics,
		audit:   audit,
		logger:  logger,
	}
}

// HandleStatus handles GET /api/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Version:      Version,
		Environment:  h.info.Environment,
		BackendURL:   h.info.BackendURL,
		LiveGenerate: h.info.LiveGenerate,
		StartedAt:    h.metrics.StartedAt(),
		Dispatches:   h.metrics.Snapshot(),
	}

	if h.audit != nil {
		stats := h.audit.GetStats()
		response.Audit = &stats
		response.RecentPaths = make(map[string]map[string]int)

		for _, op := range []fallback.Operation{
			fallback.OperationHistoryRead,
			fallback.OperationGenerate,
			fallback.OperationStylesRead,
			fallback.OperationFeedback,
		} {
			counts, err := h.audit.CountByPath(r.Context(), string(op), statusWindowHours)
			if err != nil {
				HandleServiceError(w, services.WrapInternal("failed to read dispatch trail", err), CodeStatusError, h.logger)
				return
			}
			response.RecentPaths[string(op)] = counts
		}
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}
