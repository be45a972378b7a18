package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Logger is a minimal structured logging interface.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: the context carries the active span; it is not used for
//     cancellation.
//   - Errors: logging is best-effort and must not panic.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	WithOperation(meta OperationMeta) Logger
}

// Field is a structured log field.
type Field struct {
	Key   string
	Value any
}

// String returns a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int returns an integer field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Bool returns a boolean field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Millis returns d in milliseconds. Keys conventionally end in "_ms".
func Millis(key string, d time.Duration) Field { return Field{Key: key, Value: d.Milliseconds()} }

// Err returns an "error" field holding err's message, or nil.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogLevel is a logging threshold.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var logLevelNames = [...]string{"debug", "info", "warn", "error"}

func lookupLogLevel(s string) (LogLevel, bool) {
	for i, name := range logLevelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(i), true
		}
	}
	return LevelInfo, false
}

// ParseLogLevel parses a level name. Unknown names yield LevelInfo.
func ParseLogLevel(s string) LogLevel {
	l, _ := lookupLogLevel(s)
	return l
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return logLevelNames[l]
}

// structuredLogger writes one JSON object per line.
type structuredLogger struct {
	level  LogLevel
	out    *lockedWriter
	fields map[string]any
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLine(data []byte) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, _ = lw.w.Write(append(data, '\n'))
}

// NewLogger returns a JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a JSON logger writing to w.
//
// Every line carries timestamp, level and msg, the operation fields set by
// WithOperation, and trace_id/span_id when ctx holds a sampled span. Values
// of credential fields (see RedactedFields) and credential-looking
// authorization values are replaced with "[REDACTED]".
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		level: ParseLogLevel(level),
		out:   &lockedWriter{w: w},
	}
}

// WithOperation returns a logger that adds the operation fields to every
// line. The writer is shared with the parent.
func (l *structuredLogger) WithOperation(meta OperationMeta) Logger {
	fields := make(map[string]any, len(l.fields)+4)
	for k, v := range l.fields {
		fields[k] = v
	}
	for _, f := range meta.fields() {
		fields[f.Key] = f.Value
	}
	return &structuredLogger{level: l.level, out: l.out, fields: fields}
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelDebug, msg, fields)
}

func (l *structuredLogger) log(ctx context.Context, level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, len(l.fields)+len(fields)+5)
	for k, v := range l.fields {
		entry[k] = v
	}
	for _, f := range fields {
		entry[f.Key] = redact(f)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		entry["trace_id"] = sc.TraceID().String()
		entry["span_id"] = sc.SpanID().String()
	}
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.out.writeLine(data)
}

var redactedKeys = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[normalizeKey(k)] = true
	}
	return m
}()

// normalizeKey folds "API-Key", "api_key" and "apiKey" to "apikey".
func normalizeKey(key string) string {
	return strings.NewReplacer("_", "", "-", "", ".", "").Replace(strings.ToLower(key))
}

// credentialSchemes are Authorization header schemes whose values must not
// be logged.
var credentialSchemes = []string{"api-key ", "bearer ", "basic "}

func redact(f Field) any {
	if redactedKeys[normalizeKey(f.Key)] {
		return "[REDACTED]"
	}
	if s, ok := f.Value.(string); ok {
		lower := strings.ToLower(s)
		for _, scheme := range credentialSchemes {
			if strings.HasPrefix(lower, scheme) {
				return "[REDACTED]"
			}
		}
	}
	return f.Value
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...Field)  {}
func (noopLogger) Warn(context.Context, string, ...Field)  {}
func (noopLogger) Error(context.Context, string, ...Field) {}
func (noopLogger) Debug(context.Context, string, ...Field) {}
func (l noopLogger) WithOperation(OperationMeta) Logger    { return l }

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

var (
	_ Logger = (*structuredLogger)(nil)
	_ Logger = noopLogger{}
)
