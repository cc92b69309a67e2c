package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestExtractTraceID(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "trace-123")
	if got := extractTraceID(ctx); got != "trace-123" {
		t.Errorf("extractTraceID() = %q, want %q", got, "trace-123")
	}
	if got := extractTraceID(context.Background()); got != "" {
		t.Errorf("extractTraceID() on empty context = %q, want empty", got)
	}
}

func TestInfo_EmitsTraceIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	old := globalLogger
	globalLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	defer func() { globalLogger = old }()

	Info(ContextWithTraceID(context.Background(), "trace-123"), "request handled")

	if !strings.Contains(buf.String(), `"trace_id":"trace-123"`) {
		t.Errorf("log line missing trace_id: %s", buf.String())
	}
}
