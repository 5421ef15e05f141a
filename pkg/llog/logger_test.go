package llog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFormatsLevelAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.LevelDebug, &buf)

	logger.Warn("refresh failed", "status", 401, "path", "/api/book/")

	got := buf.String()
	want := "warn: refresh failed status=401, path=/api/book/\n"
	if got != want {
		t.Fatalf("unexpected output\nwant=%q\ngot=%q", want, got)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.LevelWarn, &buf)

	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	logger.Error("shown")
	if !strings.HasPrefix(buf.String(), "error: shown") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestLoggerWithKeepsPersistentAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.LevelInfo, &buf).With("component", "lsdk")

	logger.Info("session restored", "user", "alice")

	if got := buf.String(); got != "session restored component=lsdk, user=alice\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestLoggerWithGroupPrefixesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: NewLogger(slog.LevelInfo, &buf).WithGroup("http")}

	logger.Info("request", "status", 200)

	if got := buf.String(); got != "request http.status=200\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("discard logger should not be enabled for errors")
	}
}
