// Package observability provides structured logging and in-process
// dispatch metrics for the sketch gateway.
//
// Loggers are zap-based. Request ids set by the chi RequestID middleware
// are attached to log lines through ForRequest.
package observability
