package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	RequestID string    // Request ID assigned by the router middleware
	ClientIP  string    // Client IP address (without port)
	Method    string    // HTTP method
	Path      string    // Request path
	UserID    string    // Authenticated user ID, empty before authentication
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for an inbound request
func NewLogContext(requestID, clientIP, method, path string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		ClientIP:  clientIP,
		Method:    method,
		Path:      path,
		StartTime: time.Now(),
	}
}

// SetUser records the authenticated user on the LogContext. The
// middleware calls this once authentication succeeds so later log lines
// in the same request carry the identity.
func (lc *LogContext) SetUser(userID string) {
	if lc != nil {
		lc.UserID = userID
	}
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
