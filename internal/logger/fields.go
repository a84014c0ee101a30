package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log
// aggregation and querying.
const (
	// Request
	KeyRequestID = "request_id" // Router-assigned request ID
	KeyClientIP  = "client_ip"  // Client IP address
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // Request path
	KeyStatus    = "status"     // HTTP status code
	KeyDuration  = "duration_ms"

	// Identity
	KeyUserID      = "user_id"
	KeyEmail       = "email"
	KeyRole        = "role"
	KeyTokenType   = "token_type"
	KeyFingerprint = "fingerprint"

	// Errors
	KeyError = "error"
)

// Field constructors for type safety.

// RequestID returns a slog.Attr for the request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for the client IP
func ClientIP(ip string) slog.Attr {
	return slog.String(KeyClientIP, ip)
}

// Status returns a slog.Attr for the HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// UserID returns a slog.Attr for the user ID
func UserID(id string) slog.Attr {
	return slog.String(KeyUserID, id)
}

// Email returns a slog.Attr for the user email
func Email(email string) slog.Attr {
	return slog.String(KeyEmail, email)
}

// TokenType returns a slog.Attr for a token type
func TokenType(t string) slog.Attr {
	return slog.String(KeyTokenType, t)
}

// Fingerprint returns a slog.Attr for a key or token fingerprint
func Fingerprint(fp string) slog.Attr {
	return slog.String(KeyFingerprint, fp)
}

// Err returns a slog.Attr for an error value
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
