package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"contentsbuilder/internal/config"
	"contentsbuilder/internal/services/gemini"
	"contentsbuilder/internal/tabular"
)

// CheckGemini verifies that model answers a JSON-mode ping with the
// configured key. It uses a 30-second timeout and a single attempt.
func CheckGemini(ctx context.Context, name, model string, cfg *config.Config) Result {
	if model == "" {
		return Result{Name: name, Detail: "model not configured"}
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := gemini.NewClient(cfg.GeminiConfig())
	if err := client.HealthCheck(checkCtx, model); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s: %s", model, summarizeGeminiError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", model)}
}

// CheckAPIKey reports whether a Gemini key is configured.
func CheckAPIKey(cfg *config.Config) Result {
	const name = "Gemini API key"
	if err := cfg.RequireAPIKey(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckWorkbook verifies the configured backend can be opened and read.
func CheckWorkbook(ctx context.Context, cfg *config.Config) Result {
	const name = "Workbook"
	if cfg.Workbook.Backend == "memory" {
		return Result{Name: name, Passed: true, Detail: "in-memory (not persisted)"}
	}
	path := cfg.WorkbookPath()
	wb, err := tabular.OpenSQLite(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer wb.Close()
	tables, err := wb.Tables(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d tables)", path, len(tables))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeGeminiError produces a human-readable summary for health check failures.
func summarizeGeminiError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Gemini API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Gemini API unreachable)"
	}
	var transport *gemini.TransportError
	if errors.As(err, &transport) && transport.StatusCode != 0 {
		switch transport.StatusCode {
		case 400, 401, 403:
			return fmt.Sprintf("rejected (http %d, check api key)", transport.StatusCode)
		case 404:
			return "model not found (http 404)"
		}
	}
	return err.Error()
}
