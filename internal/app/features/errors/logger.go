// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorLogger logs a failure with a short reference id and renders a
// friendly error page carrying the same id, so a user report can be matched
// to a log line.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// NewReference returns a fresh error reference id.
func NewReference() string {
	return uuid.NewString()[:8]
}

// LogServerError logs msg/err at error level and renders a 500 page with
// userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.logAndRender(w, r, http.StatusInternalServerError, "Something went wrong", msg, err, userMsg, backURL)
}

// LogUnavailable is LogServerError for store failures: 503 with the generic
// "check configuration" wording when userMsg is empty.
func (e *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	if userMsg == "" {
		userMsg = "The operation failed. Please check your connection or configuration and try again."
	}
	e.logAndRender(w, r, http.StatusServiceUnavailable, "Service unavailable", msg, err, userMsg, backURL)
}

// LogBadRequest logs at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	ref := NewReference()
	e.Log.Warn(msg, requestFields(r, ref, err)...)
	render(w, r, http.StatusBadRequest, "Bad request", userMsg, ref, backURL)
}

func (e *ErrorLogger) logAndRender(w http.ResponseWriter, r *http.Request, status int, heading, msg string, err error, userMsg, backURL string) {
	ref := NewReference()
	e.Log.Error(msg, requestFields(r, ref, err)...)
	render(w, r, status, heading, userMsg, ref, backURL)
}

func requestFields(r *http.Request, ref string, err error) []zap.Field {
	return []zap.Field{
		zap.String("error_ref", ref),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}
