package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger for FromContext.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// ComponentMiddleware creates middleware that adds component context to the logger
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get logger from context and add component
			logger := FromContext(r.Context()).WithComponent(component)

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogEntryAdded logs a ledger entry appended for a session
func (sl *StructuredLogger) LogEntryAdded(ctx context.Context, sessionID, date, kind, category string, amountWon int64, ref string) {
	fields := NewFields().
		WithEntry(date, kind, category, amountWon).
		WithSessionID(sessionID).
		WithOperation(OpAppend).
		WithComponent(ComponentLedger).
		ToSlice()

	fields = append(fields, FieldEntryRef, ref)

	sl.logger.InfoContext(ctx, "Ledger entry added", fields...)
}

// LogUploadLoaded logs a spreadsheet that was parsed into a dataset
func (sl *StructuredLogger) LogUploadLoaded(ctx context.Context, sessionID, source, name string, rows, dropped int) {
	fields := NewFields().
		WithUpload(source, name, rows, dropped).
		WithSessionID(sessionID).
		WithOperation(OpUpload).
		WithComponent(ComponentAnalyzer)

	sl.logger.InfoContext(ctx, "Spreadsheet loaded", fields.ToSlice()...)
}

// LogReportBuilt logs a generated period summary
func (sl *StructuredLogger) LogReportBuilt(ctx context.Context, sessionID, period string, rows int) {
	fields := NewFields().
		WithPeriod(period).
		WithSessionID(sessionID).
		WithOperation(OpReport).
		WithComponent(ComponentAnalyzer)
	fields[FieldRows] = rows

	sl.logger.InfoContext(ctx, "Period report built", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}