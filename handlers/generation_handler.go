package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/sketch-gateway/models"
	"github.com/upb/sketch-gateway/services/backend"
	"github.com/upb/sketch-gateway/services/gateway"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// GatewayService defines the gateway operations the handlers expose
type GatewayService interface {
	History(ctx context.Context, rawQuery string) (*models.HistoryResponse, gateway.Dispatch, error)
	Styles(ctx context.Context) (*models.StylesResponse, gateway.Dispatch, error)
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, gateway.Dispatch, error)
	SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, gateway.Dispatch, error)
	SummarizeFeedback(ctx context.Context, req models.SummarizeRequest) (*models.SummarizeResponse, gateway.Dispatch, error)
	Refine(ctx context.Context, req models.RefineRequest) (*models.GenerationResult, gateway.Dispatch, error)
	GenerateStream(ctx context.Context, req models.GenerationRequest) (io.ReadCloser, gateway.Dispatch, error)
	BackendHealth(ctx context.Context) backend.HealthStatus
}

// GenerationHandler handles generation, history and style requests
type GenerationHandler struct {
	service GatewayService
	logger  *zap.Logger
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(service GatewayService, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		logger:  logger,
	}
}

// HandleHistory handles GET /api/generations.
// The query string is forwarded to the backend untouched.
func (h *GenerationHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	history, d, err := h.service.History(ctx, r.URL.RawQuery)
	setPath(w, d)
	if err != nil {
		HandleServiceError(w, err, CodeGenerationsError, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, history); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.Error(err))
	}
}

// HandleGenerate handles POST /api/generate
func (h *GenerationHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req models.GenerationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, CodeGenerationError, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, CodeGenerationError, h.logger)
		return
	}

	result, d, err := h.service.Generate(ctx, req)
	setPath(w, d)
	if err != nil {
		HandleServiceError(w, err, CodeGenerationError, h.logger)
		return
	}

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleRefine handles POST /api/refine
func (h *GenerationHandler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req models.RefineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, CodeRefineError, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, CodeRefineError, h.logger)
		return
	}

	result, d, err := h.service.Refine(ctx, req)
	setPath(w, d)
	if err != nil {
		HandleServiceError(w, err, CodeRefineError, h.logger)
		return
	}

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleStyles handles GET /api/styles
func (h *GenerationHandler) HandleStyles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	styles, d, err := h.service.Styles(ctx)
	setPath(w, d)
	if err != nil {
		HandleServiceError(w, err, CodeStylesError, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, styles); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.Error(err))
	}
}
