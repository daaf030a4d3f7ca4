package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{
		"":        LevelInfo,
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v want %v", raw, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLoggerWritesKeyValuesAndTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Service: "nfl-pick-two", Output: &buf})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.With("league_id", "lg-1").InfoContext(ctx, "week submitted", "week", 3, "error", errors.New("boom"))

	var entry map[string]any
	if err := sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}

	if entry["msg"] != "week submitted" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["service"] != "nfl-pick-two" || entry["league_id"] != "lg-1" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if entry["week"] != float64(3) {
		t.Fatalf("unexpected week field: %v", entry["week"])
	}
	if entry["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", entry["error"])
	}
	if entry["trace_id"] != traceID.String() || entry["span_id"] != spanID.String() {
		t.Fatalf("missing trace fields: %v", entry)
	}
	if caller, _ := entry["caller"].(string); !strings.HasPrefix(caller, "logging/logger_test.go") {
		t.Fatalf("caller should point at the test, got %q", caller)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelWarn, Output: &buf})
	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}
	if logger.Enabled(LevelInfo) {
		t.Fatalf("info must be disabled")
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn output")
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("noop")
	if logger.With("k", "v") == nil {
		t.Fatalf("With on nil must return a logger")
	}
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync nil logger: %v", err)
	}
}

func TestMirrorReceivesWrittenEntries(t *testing.T) {
	var got []string
	SetMirror(func(_ context.Context, level Level, msg string, args ...any) {
		got = append(got, level.String()+":"+msg)
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger := New(Options{Level: LevelInfo, Output: &bytes.Buffer{}})
	logger.Debug("dropped")
	logger.Warn("picks locked", "count", 3)

	if len(got) != 1 || got[0] != "warn:picks locked" {
		t.Fatalf("unexpected mirrored entries: %v", got)
	}
}
