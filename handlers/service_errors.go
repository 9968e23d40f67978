package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/sketch-gateway/services"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to the failure envelope.
// Gateway failures are all reported as HTTP 500; code names the operation.
func HandleServiceError(w http.ResponseWriter, err error, code string, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	message := err.Error()
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		message = domainErr.Message
	}

	switch {
	case services.IsUnauthorizedError(err):
		if err := utils.WriteUnauthorized(w, message); err != nil {
			logger.Error("failed to write unauthorized response", zap.Error(err))
		}
		return

	case services.IsValidationError(err):
		// Keep the underlying parse detail for malformed input
		if domainErr != nil && domainErr.Err != nil {
			message = domainErr.Message + ": " + domainErr.Err.Error()
		}

	case services.IsExternalError(err), services.IsUnavailableError(err):
		// Backend status and body text are already in the message

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		message = "An internal error occurred"

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		message = "An unexpected error occurred"
	}

	if err := utils.WriteInternalServerError(w, code, message); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}

	if domainErr != nil {
		logger.Debug("handled service error",
			zap.String("type", string(domainErr.Type)),
			zap.String("message", domainErr.Message),
			zap.Any("details", domainErr.Details))
	}
}

// HandleValidationError writes a failed request decode or validation
func HandleValidationError(w http.ResponseWriter, err error, code string, logger *zap.Logger) {
	message := err.Error()

	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		message = validationErr.Summary()
	}

	if err := utils.WriteInternalServerError(w, code, message); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
