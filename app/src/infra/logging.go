package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// Logger wraps a zap logger with the service name and the correlation-id
// carried in context, emitted as trace_id on every entry.
type Logger struct {
	zl      *zap.Logger
	service string
}

// NewLogger builds a JSON logger writing to out. A nil writer discards
// output, which keeps tests quiet.
func NewLogger(out io.Writer, service string) *Logger {
	if out == nil {
		out = io.Discard
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(out),
		zapcore.InfoLevel,
	)

	zl := zap.New(core)
	service = strings.TrimSpace(service)
	if service != "" {
		zl = zl.With(zap.String("service", service))
	}
	return &Logger{zl: zl, service: service}
}

// WithCorrelationID stores a correlation id in the context for downstream
// log entries.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationIDKey, strings.TrimSpace(id))
}

// CorrelationIDFromContext extracts the correlation id, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

// Printf logs a formatted info entry.
func (l *Logger) Printf(ctx context.Context, format string, v ...any) {
	if l == nil {
		return
	}
	l.write(ctx, fmt.Sprintf(format, v...))
}

// Println logs its arguments as one info entry.
func (l *Logger) Println(ctx context.Context, v ...any) {
	if l == nil {
		return
	}
	l.write(ctx, strings.TrimSpace(fmt.Sprintln(v...)))
}

// Fatalf logs the entry and terminates the process.
func (l *Logger) Fatalf(ctx context.Context, format string, v ...any) {
	if l == nil {
		os.Exit(1)
	}
	l.zl.Fatal(fmt.Sprintf(format, v...), l.traceField(ctx)...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() {
	if l != nil {
		_ = l.zl.Sync()
	}
}

func (l *Logger) write(ctx context.Context, msg string) {
	l.zl.Info(msg, l.traceField(ctx)...)
}

func (l *Logger) traceField(ctx context.Context) []zap.Field {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return []zap.Field{zap.String("trace_id", id)}
	}
	return nil
}
