package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/upb/sketch-gateway/services/gateway"
)

// Error codes carried in the failure envelope, one per operation
const (
	CodeGenerationsError = "GENERATIONS_ERROR"
	CodeGenerationError  = "GENERATION_ERROR"
	CodeRefineError      = "REFINE_ERROR"
	CodeStylesError      = "STYLES_ERROR"
	CodeFeedbackError    = "FEEDBACK_ERROR"
	CodeSummarizeError   = "SUMMARIZE_ERROR"
	CodeStatusError      = "STATUS_ERROR"
)

// PathHeader tells the client how a response was produced (live, degraded-empty, mock)
const PathHeader = "X-Gateway-Path"

// maxBodyBytes bounds inbound JSON bodies
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: trailing data after JSON object")
	}
	return nil
}

// setPath exposes the dispatch path of a served request
func setPath(w http.ResponseWriter, d gateway.Dispatch) {
	if d.Path != "" {
		w.Header().Set(PathHeader, string(d.Path))
	}
}
