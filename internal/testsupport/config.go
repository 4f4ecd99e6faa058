package testsupport

import (
	"path/filepath"
	"testing"

	"contentsbuilder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Workbook.Backend = "memory"
	cfgVal.Gemini.APIKey = "test"
	cfgVal.Screening.RetryBaseDelayMS = 1
	cfgVal.Screening.RetryMaxDelayMS = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithGeminiEndpoint points the generation client at baseURL.
func WithGeminiEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.BaseURL = baseURL
	}
}

// WithSQLite selects the SQLite workbook backend under the temp data dir.
func WithSQLite() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workbook.Backend = "sqlite"
	}
}

// WithSchemaPolicy sets the workbook schema policy.
func WithSchemaPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workbook.SchemaPolicy = policy
	}
}

// WithNtfyTopic enables notifications against topic.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithConcurrency sets the screening worker limit.
func WithConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Screening.Concurrency = n
	}
}
