package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"contentsbuilder/internal/items"
	"contentsbuilder/internal/services/gemini"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Workbook selects the table backend and sheet names.
type Workbook struct {
	Backend        string `toml:"backend"`
	SchemaPolicy   string `toml:"schema_policy"`
	SourceRegistry string `toml:"source_registry"`
	IntakeQueue    string `toml:"intake_queue"`
	Screening      string `toml:"screening"`
	TopicBacklog   string `toml:"topic_backlog"`
	RunLogs        string `toml:"run_logs"`
}

// Gemini contains generation endpoint settings.
type Gemini struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	ModelScreening  string  `toml:"model_screening"`
	ModelGeneration string  `toml:"model_generation"`
	PromptVersion   string  `toml:"prompt_version"`
	Temperature     float64 `toml:"temperature"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	Auth            string  `toml:"auth"`
}

// Thresholds contains promotion and flagging limits.
type Thresholds struct {
	PromotionScore  int    `toml:"promotion_score"`
	HighMisinfoRisk string `toml:"high_misinfo_risk"`
}

// Screening contains screening cycle tuning.
type Screening struct {
	Concurrency      int `toml:"concurrency"`
	BatchSize        int `toml:"batch_size"`
	RetryAttempts    int `toml:"retry_attempts"`
	RetryBaseDelayMS int `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS  int `toml:"retry_max_delay_ms"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Promoted       bool   `toml:"promoted"`
	Flagged        bool   `toml:"flagged"`
	Cycle          bool   `toml:"cycle"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for contentsbuilder.
//
// Configuration sections by subsystem:
//   - Paths: workbook and log directories
//   - Workbook: table backend, schema policy, and sheet names
//   - Gemini: generation endpoint, models, and prompt version
//   - Thresholds: promotion score and misinformation flag level
//   - Screening: concurrency, batch size, and retry policy
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Workbook      Workbook      `toml:"workbook"`
	Gemini        Gemini        `toml:"gemini"`
	Thresholds    Thresholds    `toml:"thresholds"`
	Screening     Screening     `toml:"screening"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("contentsbuilder.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WorkbookPath returns the SQLite workbook location.
func (c *Config) WorkbookPath() string {
	return filepath.Join(c.Paths.DataDir, workbookFileName)
}

// LockPath returns the cycle lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, lockFileName)
}

// TableNames returns the configured sheet names.
func (c *Config) TableNames() items.TableNames {
	return items.TableNames{
		SourceRegistry: c.Workbook.SourceRegistry,
		IntakeQueue:    c.Workbook.IntakeQueue,
		Screening:      c.Workbook.Screening,
		TopicBacklog:   c.Workbook.TopicBacklog,
		RunLogs:        c.Workbook.RunLogs,
	}
}

// PromotionThresholds returns the thresholds in domain form.
func (c *Config) PromotionThresholds() items.Thresholds {
	risk, ok := items.ParseRisk(c.Thresholds.HighMisinfoRisk)
	if !ok {
		risk = items.RiskHigh
	}
	return items.Thresholds{PromotionScore: c.Thresholds.PromotionScore, HighRisk: risk}
}

// RetryBaseDelay returns the first retry delay.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Screening.RetryBaseDelayMS) * time.Millisecond
}

// RetryMaxDelay returns the retry delay cap.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Screening.RetryMaxDelayMS) * time.Millisecond
}

// GeminiConfig returns the generation client settings.
func (c *Config) GeminiConfig() gemini.Config {
	return gemini.Config{
		APIKey:         c.Gemini.APIKey,
		BaseURL:        c.Gemini.BaseURL,
		Temperature:    c.Gemini.Temperature,
		TimeoutSeconds: c.Gemini.TimeoutSeconds,
		AuthMode:       gemini.AuthMode(c.Gemini.Auth),
	}
}

// ModelMeta is the provenance stamp written with every screening result.
func (c *Config) ModelMeta() string {
	return fmt.Sprintf("model=%s;prompt=%s", c.Gemini.ModelScreening, c.Gemini.PromptVersion)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
