package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mpsync/internal/config"
	"mpsync/internal/logging"
	"mpsync/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "file message") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without source")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with source")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected source information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerFormatsSubjectAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "scanner")
	ctx := services.WithPhase(services.WithRunID(context.Background(), "run-1"), "scan")
	logging.WithContext(ctx, logger).Info("indexed file", logging.String(logging.FieldPath, "a b.mp3"), logging.Int("count", 2))

	line := buf.String()
	if !strings.Contains(line, "INFO scanner (scan): indexed file") {
		t.Fatalf("unexpected subject formatting: %q", line)
	}
	if !strings.Contains(line, `path="a b.mp3"`) {
		t.Fatalf("expected quoted path field, got %q", line)
	}
	if !strings.Contains(line, "count=2") {
		t.Fatalf("expected count field, got %q", line)
	}
	if strings.Contains(line, "run_id=") {
		t.Fatalf("expected run_id to be hidden on console, got %q", line)
	}
	if strings.Contains(line, "\033[") {
		t.Fatalf("expected no colour codes for non-terminal writer, got %q", line)
	}
}

func TestConsoleLoggerShowsRemoteIDInSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRemoteID(services.WithPhase(context.Background(), "sync"), "dQw4w9WgXcQ")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "orchestrator")).Info("track downloaded")

	line := buf.String()
	if !strings.Contains(line, "orchestrator (sync) [dQw4w9WgXcQ]: track downloaded") {
		t.Fatalf("unexpected subject formatting: %q", line)
	}
	if strings.Contains(line, "remote_id=") {
		t.Fatalf("expected remote_id folded into subject, got %q", line)
	}
}

func TestJSONLoggerEmitsContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRemoteID(services.WithPhase(services.WithRunID(context.Background(), "run-7"), "sync"), "X")
	logging.WithContext(ctx, logger).Info("downloaded")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts field")
	}
	for key, want := range map[string]string{"run_id": "run-7", "phase": "sync", "remote_id": "X"} {
		if payload[key] != want {
			t.Fatalf("expected %s=%q, got %v", key, want, payload[key])
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Console: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info record leaked at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn record, got %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "download failed", "download_failed",
		logging.Error(errors.New("boom")),
		logging.String(logging.FieldImpact, "track skipped for this run"),
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "download_failed" {
		t.Fatalf("unexpected event_type: %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == "" || payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if payload[logging.FieldImpact] != "track skipped for this run" {
		t.Fatalf("expected caller impact to win, got %v", payload[logging.FieldImpact])
	}
	if payload["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", payload["error"])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "noop")
	logging.NewComponentLogger(nil, "x").Info("ignored")
}

func TestNewCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "mpsync.log")
	logger, err := logging.New(logging.Options{Format: "console", Console: &bytes.Buffer{}, FilePath: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestLogFileIsJSONForConsoleFormat(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "mpsync.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &console, FilePath: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-9")
	logging.WithContext(ctx, logger).Info("sync run started")

	if strings.Contains(console.String(), "run-9") {
		t.Fatalf("expected run id hidden on console, got %q", console.String())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &payload); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if payload["run_id"] != "run-9" {
		t.Fatalf("expected run_id in file, got %v", payload["run_id"])
	}
}
