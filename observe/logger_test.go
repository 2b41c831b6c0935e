package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}
	return entry
}

func TestLogger_IncludesIntegrationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.WithIntegration(IntegrationMeta{Name: "mongodb", Kind: "database", Operation: "insert"}).
		Info(context.Background(), "test message")

	entry := decodeLine(t, &buf)
	want := map[string]string{
		"integration.name":      "mongodb",
		"integration.kind":      "database",
		"integration.operation": "insert",
		"level":                 "info",
		"msg":                   "test message",
	}
	for k, v := range want {
		if got, _ := entry[k].(string); got != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_OmitsEmptyKind(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).
		WithIntegration(IntegrationMeta{Name: "redis"}).
		Info(context.Background(), "m")

	entry := decodeLine(t, &buf)
	if _, ok := entry["integration.kind"]; ok {
		t.Error("integration.kind should be omitted when empty")
	}
	if _, ok := entry["integration.operation"]; ok {
		t.Error("integration.operation should be omitted when empty")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		log   func(Logger)
		want  bool
	}{
		{"info", func(l Logger) { l.Debug(context.Background(), "m") }, false},
		{"info", func(l Logger) { l.Info(context.Background(), "m") }, true},
		{"warn", func(l Logger) { l.Info(context.Background(), "m") }, false},
		{"warn", func(l Logger) { l.Warn(context.Background(), "m") }, true},
		{"error", func(l Logger) { l.Warn(context.Background(), "m") }, false},
		{"error", func(l Logger) { l.Error(context.Background(), "m") }, true},
		{"debug", func(l Logger) { l.Debug(context.Background(), "m") }, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		tt.log(NewLoggerWithWriter(tt.level, &buf))
		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("level %s: wrote=%v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLogger_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "connecting",
		Field{Key: "uri", Value: "mongodb://user:pw@localhost"},
		Field{Key: "token", Value: "abc"},
		Field{Key: "database", Value: "books"},
	)

	out := buf.String()
	if strings.Contains(out, "user:pw") || strings.Contains(out, "abc") {
		t.Fatalf("secret leaked into log output: %s", out)
	}
	entry := decodeLine(t, &buf)
	if entry["uri"] != "[REDACTED]" {
		t.Errorf("uri = %v, want [REDACTED]", entry["uri"])
	}
	if entry["database"] != "books" {
		t.Errorf("database = %v, want books", entry["database"])
	}
}

func TestLogger_ErrorValuesAreStrings(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).Error(context.Background(), "failed",
		Field{Key: "error", Value: errors.New("connection refused")})

	entry := decodeLine(t, &buf)
	if entry["error"] != "connection refused" {
		t.Errorf("error = %v, want %q", entry["error"], "connection refused")
	}
}

func TestLogger_IncludesTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).Info(ctx, "m")

	entry := decodeLine(t, &buf)
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", entry["trace_id"], span.SpanContext().TraceID())
	}
	if entry["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("span_id = %v, want %s", entry["span_id"], span.SpanContext().SpanID())
	}
}

func TestLogger_DerivedLoggerDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithWriter("info", &buf)
	_ = parent.WithIntegration(IntegrationMeta{Name: "child"})

	parent.Info(context.Background(), "m")
	entry := decodeLine(t, &buf)
	if _, ok := entry["integration.name"]; ok {
		t.Error("parent logger gained integration attributes")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"bogus": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
