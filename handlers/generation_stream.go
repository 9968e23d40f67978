package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/sketch-gateway/models"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

const streamChunkSize = 4096

// HandleGenerateStream handles POST /api/generate-stream.
// Server-sent events from the backend are relayed as they arrive. Failures
// before the stream opens use the usual envelope; once events have started
// only an error event can be sent.
func (h *GenerationHandler) HandleGenerateStream(w http.ResponseWriter, r *http.Request) {
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

	stream, d, err := h.service.GenerateStream(ctx, req)
	setPath(w, d)
	if err != nil {
		HandleServiceError(w, err, CodeGenerationError, h.logger)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, streamChunkSize)
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				h.logger.Debug("client left the event stream",
					zap.String("request_id", requestID),
					zap.Error(err))
				return
			}
			_ = rc.Flush()
		}
		if readErr == nil {
			continue
		}
		if !errors.Is(readErr, io.EOF) && ctx.Err() == nil {
			h.logger.Warn("backend event stream interrupted",
				zap.String("request_id", requestID),
				zap.Error(readErr))
			writeErrorEvent(w, "generation stream interrupted")
			_ = rc.Flush()
		}
		return
	}
}

// writeErrorEvent emits a terminal error event in the backend's event format
func writeErrorEvent(w io.Writer, message string) {
	data, _ := json.Marshal(map[string]string{"message": message})
	_, _ = w.Write([]byte("event: error\ndata: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
}
