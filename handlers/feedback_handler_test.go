package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/sketch-gateway/models"
	"github.com/upb/sketch-gateway/services"
	"github.com/upb/sketch-gateway/services/fallback"
	"go.uber.org/zap"
)

func TestHandleSubmitFeedback(t *testing.T) {
	logger := zap.NewNop()

	t.Run("feedback is forwarded", func(t *testing.T) {
		mockService := new(MockGatewayService)
		handler := NewFeedbackHandler(mockService, logger)

		expected := models.FeedbackRequest{SessionID: "s-1", StyleID: "bold", Feedback: "thicker outlines"}
		mockService.On("SubmitFeedback", mock.Anything, expected).Return(
			&models.FeedbackResponse{Success: true, TurnNumber: 3, Summarized: false},
			dispatch(fallback.OperationFeedback, fallback.PathLive), nil)

		body := `{"sessionId":"s-1","styleId":"bold","feedback":"thicker outlines"}`
		req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		handler.HandleSubmit(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "live", w.Header().Get(PathHeader))
		assert.JSONEq(t, `{"success":true,"turnNumber":3,"summarized":false}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("missing feedback text", func(t *testing.T) {
		mockService := new(MockGatewayService)
		handler := NewFeedbackHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewBufferString(`{"sessionId":"s-1","styleId":"bold"}`))
		w := httptest.NewRecorder()
		handler.HandleSubmit(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "FEEDBACK_ERROR", env.Error.Code)
		assert.Contains(t, env.Error.Message, "feedback is required")
		mockService.AssertNotCalled(t, "SubmitFeedback", mock.Anything, mock.Anything)
	})

	t.Run("unavailable backend", func(t *testing.T) {
		mockService := new(MockGatewayService)
		handler := NewFeedbackHandler(mockService, logger)

		mockService.On("SubmitFeedback", mock.Anything, mock.Anything).Return(nil,
			dispatch(fallback.OperationFeedback, fallback.PathError),
			services.WrapUnavailable("backend unavailable: connection_refused", nil))

		body := `{"sessionId":"s-1","styleId":"bold","feedback":"more contrast"}`
		req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		handler.HandleSubmit(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "error", w.Header().Get(PathHeader))
		assert.JSONEq(t, `{"success":false,"error":{"code":"FEEDBACK_ERROR","message":"backend unavailable: connection_refused"}}`, w.Body.String())
	})
}

func TestHandleSummarizeFeedback(t *testing.T) {
	logger := zap.NewNop()

	t.Run("summary returned", func(t *testing.T) {
		mockService := new(MockGatewayService)
		handler := NewFeedbackHandler(mockService, logger)

		summary := "prefers heavy outlines"
		mockService.On("SummarizeFeedback", mock.Anything, models.SummarizeRequest{SessionID: "s-1", StyleID: "bold"}).
			Return(&models.SummarizeResponse{Success: true, Summary: &summary},
				dispatch(fallback.OperationFeedback, fallback.PathLive), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/feedback/summarize", bytes.NewBufferString(`{"sessionId":"s-1","styleId":"bold"}`))
		w := httptest.NewRecorder()
		handler.HandleSummarize(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"summary":"prefers heavy outlines"}`, w.Body.String())
	})

	t.Run("nothing to summarize", func(t *testing.T) {
		mockService := new(MockGatewayService)
		handler := NewFeedbackHandler(mockService, logger)

		mockService.On("SummarizeFeedback", mock.Anything, mock.Anything).
			Return(&models.SummarizeResponse{Success: true},
				dispatch(fallback.OperationFeedback, fallback.PathLive), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/feedback/summarize", bytes.NewBufferString(`{"sessionId":"s-1","styleId":"bold"}`))
		w := httptest.NewRecorder()
		handler.HandleSummarize(w, req)

		assert.JSONEq(t, `{"success":true,"summary":null}`, w.Body.String())
	})

	t.Run("trailing data rejected", func(t *testing.T) {
		mockService := new(MockGatewayService)
		handler := NewFeedbackHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/feedback/summarize", bytes.NewBufferString(`{"sessionId":"s-1","styleId":"bold"} {}`))
		w := httptest.NewRecorder()
		handler.HandleSummarize(w, req)

		env := decodeEnvelope(t, w)
		assert.Equal(t, "SUMMARIZE_ERROR", env.Error.Code)
		assert.Contains(t, env.Error.Message, "trailing data")
	})
}
