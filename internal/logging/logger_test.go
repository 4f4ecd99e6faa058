package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contentsbuilder/internal/logging"
	"contentsbuilder/internal/services"
)

func newFileLogger(t *testing.T, opts logging.Options) string {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	opts.OutputPaths = []string{logPath}
	opts.ErrorOutputPaths = []string{logPath}
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-7")
	ctx = services.WithItemID(ctx, "item-3")
	logger = logging.NewComponentLogger(logger, "screening")
	logging.WithContext(ctx, logger).Info("item screened", logging.Int("score", 7), logging.String("note", "two words"))
	return logPath
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleFormat(t *testing.T) {
	line := readFile(t, newFileLogger(t, logging.Options{Format: "console", Level: "info"}))
	for _, want := range []string{"INFO screening[item-3]: item screened", "run_id=run-7", "score=7", `note="two words"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("console line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("file output should not be colorized: %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleColorAlways(t *testing.T) {
	line := readFile(t, newFileLogger(t, logging.Options{Format: "console", Level: "info", Color: "always"}))
	if !strings.Contains(line, "\x1b[34mINFO\x1b[0m") {
		t.Fatalf("expected colorized level label, got %q", line)
	}
}

func TestConsoleDebugIncludesCaller(t *testing.T) {
	line := readFile(t, newFileLogger(t, logging.Options{Format: "console", Level: "debug"}))
	if !strings.Contains(line, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", line)
	}
}

func TestJSONFormat(t *testing.T) {
	content := readFile(t, newFileLogger(t, logging.Options{Format: "json", Level: "info"}))
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if entry["msg"] != "item screened" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts: %v", entry)
	}
	if entry["component"] != "screening" || entry["item_id"] != "item-3" || entry["run_id"] != "run-7" {
		t.Fatalf("missing context fields: %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	content := readFile(t, logPath)
	if strings.Contains(content, "hidden") || !strings.Contains(content, "shown") {
		t.Fatalf("unexpected filtering: %q", content)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewForCLIWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := logging.NewForCLI("info", "console", dir)
	if err != nil {
		t.Fatalf("NewForCLI: %v", err)
	}
	logger.Info("hello file")
	if content := readFile(t, filepath.Join(dir, "contentsbuilder.log")); !strings.Contains(content, "hello file") {
		t.Fatalf("log file missing message: %q", content)
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("discarded")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger should be disabled")
	}
}
