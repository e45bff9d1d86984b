package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger *zap.SugaredLogger

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var cfg zap.Config
	if strings.ToLower(format) == "json" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	defaultLogger = base.With(zap.String("service", "sponsorhub")).Sugar()
}

// Get returns the default logger
func Get() *zap.SugaredLogger {
	if defaultLogger == nil {
		// Initialize with default settings if not yet initialized
		Initialize("info", "text")
	}
	return defaultLogger
}

// Sync flushes buffered log entries
func Sync() {
	if defaultLogger != nil {
		_ = defaultLogger.Sync()
	}
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Get().Debugw(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Get().Infow(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Get().Warnw(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Get().Errorw(msg, args...)
}

// InfoContext logs an info message with the request id carried by ctx, if any
func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().Infow(msg, withRequestID(ctx, args)...)
}

// ErrorContext logs an error message with the request id carried by ctx, if any
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().Errorw(msg, withRequestID(ctx, args)...)
}

type requestIDKey struct{}

// WithRequestID returns a context that carries a request id for log correlation
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func withRequestID(ctx context.Context, args []any) []any {
	if ctx == nil {
		return args
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return append([]any{"request_id", id}, args...)
	}
	return args
}

// WithService returns a logger with service name attached
func WithService(serviceName string) *zap.SugaredLogger {
	return Get().With("component", serviceName)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "enter"}, args...)
	Get().Debugw("→ Method entered", allArgs...)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit"}, args...)
	Get().Debugw("← Method exited", allArgs...)
}

// ExitMethodWithError logs method exit with error (process tracking)
func ExitMethodWithError(methodName string, err error, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit", "error", err}, args...)
	Get().Errorw("← Method exited with error", allArgs...)
}

// DatabaseCall logs database operation (debug log for external resources)
func DatabaseCall(operation, table string, args ...any) {
	allArgs := append([]any{"operation", operation, "table", table}, args...)
	Get().Debugw("→ Database call", allArgs...)
}

// DatabaseResult logs database operation result (debug log for external resources)
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	allArgs := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		Get().Errorw("← Database call failed", allArgs...)
	} else {
		Get().Debugw("← Database call succeeded", allArgs...)
	}
}

// ExternalServiceCall logs external service call (debug log for external resources)
func ExternalServiceCall(service, operation string, args ...any) {
	allArgs := append([]any{"external_service", service, "operation", operation}, args...)
	Get().Debugw("→ External service call", allArgs...)
}

// ExternalServiceResult logs external service result (debug log for external resources)
func ExternalServiceResult(service, operation string, err error, args ...any) {
	allArgs := append([]any{"external_service", service, "operation", operation}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		Get().Errorw("← External service call failed", allArgs...)
	} else {
		Get().Debugw("← External service call succeeded", allArgs...)
	}
}
