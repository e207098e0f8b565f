package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldDomainID  = "domain_id"

	// Components
	FieldComponent = "component"
	FieldOperation = "operation"

	// Routing
	FieldConfidence = "confidence"
	FieldThreshold  = "threshold"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"

	// Status
	FieldStatus  = "status"
	FieldHealthy = "healthy"

	// Files and network
	FieldPath    = "path"
	FieldAddress = "address"
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	domainIDKey  contextKey = "logger_domain_id"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithDomainID adds a domain ID to the context for logging
func WithDomainID(ctx context.Context, domainID string) context.Context {
	return context.WithValue(ctx, domainIDKey, domainID)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if domainID, ok := ctx.Value(domainIDKey).(string); ok && domainID != "" {
		fields = append(fields, FieldDomainID, domainID)
	}

	return fields
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Processor struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewProcessor() *Processor {
//	    return &Processor{
//	        logger: logger.ComponentLogger("registry.dispatch"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
// Use for sub-operations that need extra context fields.
//
// Example:
//
//	reqLogger := logger.ChildLogger(baseLogger, "request_id", id)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
