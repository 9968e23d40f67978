package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorDetail is the error branch of the response envelope
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the failure envelope: {success:false, error:{code, message}}
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// SuccessResponse wraps a payload in the success envelope
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 response with data in the success envelope
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// WriteFailure writes the failure envelope with the given status and code
func WriteFailure(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// WriteInternalServerError writes a 500 failure envelope.
// Every gateway-level failure uses this status; the code tells them apart.
func WriteInternalServerError(w http.ResponseWriter, code, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteFailure(w, http.StatusInternalServerError, code, message)
}

// WriteUnauthorized writes a 401 failure envelope
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// WriteNotFound writes a 404 failure envelope
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteFailure(w, http.StatusNotFound, "NOT_FOUND", message)
}

// WriteMethodNotAllowed writes a 405 failure envelope
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteFailure(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}
