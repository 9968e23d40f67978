package models

import (
	"time"

	"github.com/google/uuid"
)

// DispatchLog records how the gateway served one request
type DispatchLog struct {
	ID            uuid.UUID `json:"id" db:"id"`
	RequestID     string    `json:"request_id" db:"request_id"`
	Operation     string    `json:"operation" db:"operation"`           // history-read, generate, styles-read, feedback
	Path          string    `json:"path" db:"path"`                     // live, degraded-empty, mock, error
	HealthOutcome string    `json:"health_outcome" db:"health_outcome"` // healthy, timeout, connection_refused, ...
	StatusCode    int       `json:"status_code" db:"status_code"`
	LatencyMs     int       `json:"latency_ms" db:"latency_ms"`
	ErrorMessage  *string   `json:"error_message,omitempty" db:"error_message"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the DispatchLog model
func (DispatchLog) TableName() string {
	return "gateway_dispatch_logs"
}

// NewDispatchLog creates a new DispatchLog instance
func NewDispatchLog(requestID, operation string) *DispatchLog {
	return &DispatchLog{
		ID:        uuid.New(),
		RequestID: requestID,
		Operation: operation,
		Timestamp: time.Now().UTC(),
	}
}

// WithDecision sets the chosen path and the health outcome it was based on
func (d *DispatchLog) WithDecision(path, healthOutcome string) *DispatchLog {
	d.Path = path
	d.HealthOutcome = healthOutcome
	return d
}

// WithResult sets the response status and total latency
func (d *DispatchLog) WithResult(statusCode int, latency time.Duration) *DispatchLog {
	d.StatusCode = statusCode
	d.LatencyMs = int(latency.Milliseconds())
	return d
}

// WithError sets error information
func (d *DispatchLog) WithError(err error) *DispatchLog {
	if err != nil {
		msg := err.Error()
		d.ErrorMessage = &msg
	}
	return d
}
