package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/felixgeelhaar/projectflow/internal/errors"
)

func newBuffered(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = &buf
	return New(cfg), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_AttachesServiceAttributes(t *testing.T) {
	logger, buf := newBuffered(LevelInfo, FormatJSON)
	logger.Info("hello", "tasks", 3)

	entry := decode(t, buf)
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["service"] != "projectflow" {
		t.Errorf("service = %v, want projectflow", entry["service"])
	}
	if entry["tasks"] != float64(3) {
		t.Errorf("tasks = %v, want 3", entry["tasks"])
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBuffered(LevelWarn, FormatJSON)
	logger.Info("dropped")
	logger.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below WARN, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected WARN record, got %q", buf.String())
	}
	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("INFO should be disabled at WARN")
	}
}

func TestTextFormat(t *testing.T) {
	logger, buf := newBuffered(LevelDebug, FormatText)
	logger.Debug("scheduling", "project_id", 4)

	out := buf.String()
	if !strings.Contains(out, "msg=scheduling") || !strings.Contains(out, "project_id=4") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "app error", err: errors.NewTaskNotFoundError(5), wantCode: "TASK-001"},
		{name: "wrapped app error", err: fmt.Errorf("toggle: %w", errors.NewProjectNotFoundError(2)), wantCode: "PROJECT-001"},
		{name: "plain error", err: fmt.Errorf("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBuffered(LevelInfo, FormatJSON)
			logger.WithError(tt.err).Info("failed")

			entry := decode(t, buf)
			if tt.wantCode == "" {
				if entry["error"] != "boom" {
					t.Errorf("error = %v, want boom", entry["error"])
				}
				return
			}
			if entry["error_code"] != tt.wantCode {
				t.Errorf("error_code = %v, want %s", entry["error_code"], tt.wantCode)
			}
		})
	}
}

func TestWithError_Nil(t *testing.T) {
	logger, _ := newBuffered(LevelInfo, FormatJSON)
	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestLogError(t *testing.T) {
	logger, buf := newBuffered(LevelInfo, FormatJSON)
	logger.LogError(errors.NewCycleDetectedError(fmt.Errorf("1 -> 2 -> 1")))

	entry := decode(t, buf)
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["error_code"] != "SCHED-001" {
		t.Errorf("error_code = %v", entry["error_code"])
	}
	if entry["docs_url"] == nil || entry["suggestions"] == nil {
		t.Errorf("expected docs_url and suggestions, got %v", entry)
	}
	if entry["cause"] != "1 -> 2 -> 1" {
		t.Errorf("cause = %v", entry["cause"])
	}
}

func TestFromContext_AddsRequestID(t *testing.T) {
	logger, buf := newBuffered(LevelInfo, FormatJSON)
	ctx := IntoContext(context.Background(), logger)
	ctx = ContextWithRequestID(ctx, "req-123")

	FromContext(ctx).Info("handled")

	entry := decode(t, buf)
	if entry["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", entry["request_id"])
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("empty context should have no request ID")
	}
}

func TestDefaultLogger(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	custom, _ := newBuffered(LevelError, FormatText)
	SetDefaultLogger(custom)
	if DefaultLogger() != custom {
		t.Error("DefaultLogger did not return the configured logger")
	}

	defaultLogger = nil
	if DefaultLogger() == nil {
		t.Error("DefaultLogger should lazily create a logger")
	}
}

func TestParsing(t *testing.T) {
	levels := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, "Error": LevelError, "bogus": LevelInfo}
	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	formats := map[string]Format{"json": FormatJSON, "text": FormatText, "console": FormatText, "": FormatJSON}
	for in, want := range formats {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromStrings(t *testing.T) {
	cfg := FromStrings("debug", "text", "1.2.3")
	if cfg.Level != LevelDebug || cfg.Format != FormatText || cfg.ServiceVersion != "1.2.3" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func BenchmarkLoggerInfo(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Output = io.Discard
	logger := New(cfg)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.Info("schedule computed", "project_id", 1, "tasks", 12)
	}
}
