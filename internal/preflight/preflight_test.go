package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contentsbuilder/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func healthServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content":      map[string]any{"parts": []any{map[string]any{"text": text}}},
				"finishReason": "STOP",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckGemini_OK(t *testing.T) {
	srv := healthServer(t, http.StatusOK, `{"ok":true}`)
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL))

	result := CheckGemini(context.Background(), "Screening model", "gemini-3-flash", cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_NotFound(t *testing.T) {
	srv := healthServer(t, http.StatusNotFound, "")
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL))

	result := CheckGemini(context.Background(), "Screening model", "gemini-missing", cfg)
	if result.Passed {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Detail, "model not found") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckGemini_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg := testsupport.NewConfig(t)
	cfg.Gemini.APIKey = ""

	result := CheckGemini(context.Background(), "Screening model", "gemini-3-flash", cfg)
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunAllReportsEveryCheck(t *testing.T) {
	srv := healthServer(t, http.StatusOK, `{"ok":true}`)
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL), testsupport.WithSQLite())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, Options{})
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := []string{"Data directory", "Log directory", "Workbook", "Gemini API key", "Screening model", "Generation model"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected checks: %v", names)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}

	skipped := RunAll(context.Background(), cfg, Options{SkipModels: true})
	if len(skipped) != 4 {
		t.Fatalf("expected model checks skipped, got %d results", len(skipped))
	}
}
