package handlers

import (
	"net/http"

	"github.com/upb/sketch-gateway/models"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// FeedbackHandler forwards designer feedback to the backend
type FeedbackHandler struct {
	service GatewayService
	logger  *zap.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(service GatewayService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSubmit handles POST /api/feedback
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, err, CodeFeedbackError, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, CodeFeedbackError, h.logger)
		return
	}

	resp, d, err := h.service.SubmitFeedback(r.Context(), req)
	setPath(w, d)
	if err != nil {
		HandleServiceError(w, err, CodeFeedbackError, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleSummarize handles POST /api/feedback/summarize
func (h *FeedbackHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, err, CodeSummarizeError, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, CodeSummarizeError, h.logger)
		return
	}

	resp, d, err := h.service.SummarizeFeedback(r.Context(), req)
	setPath(w, d)
	if err != nil {
		HandleServiceError(w, err, CodeSummarizeError, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
