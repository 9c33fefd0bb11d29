package log

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	loggerKey
)

// ContextWithRequestID stores the request correlation ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID, or "" if none is set.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// IntoContext attaches a logger to ctx.
func IntoContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or the default logger.
// The request ID, when present, is added to the returned logger.
func FromContext(ctx context.Context) *Logger {
	var l *Logger
	if ctx != nil {
		l, _ = ctx.Value(loggerKey).(*Logger)
	}
	if l == nil {
		l = DefaultLogger()
	}
	return l.WithContext(ctx)
}
