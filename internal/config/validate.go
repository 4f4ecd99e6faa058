package config

import (
	"errors"
	"fmt"

	"contentsbuilder/internal/items"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkbook(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateScreening(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkbook() error {
	switch c.Workbook.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("workbook.backend must be sqlite or memory, got %q", c.Workbook.Backend)
	}
	switch c.Workbook.SchemaPolicy {
	case "strict", "extend":
	default:
		return fmt.Errorf("workbook.schema_policy must be strict or extend, got %q", c.Workbook.SchemaPolicy)
	}
	seen := map[string]string{}
	for _, entry := range []struct{ key, name string }{
		{"source_registry", c.Workbook.SourceRegistry},
		{"intake_queue", c.Workbook.IntakeQueue},
		{"screening", c.Workbook.Screening},
		{"topic_backlog", c.Workbook.TopicBacklog},
		{"run_logs", c.Workbook.RunLogs},
	} {
		if other, dup := seen[entry.name]; dup {
			return fmt.Errorf("workbook.%s and workbook.%s both name sheet %q", other, entry.key, entry.name)
		}
		seen[entry.name] = entry.key
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return errors.New("gemini.temperature must be between 0 and 2")
	}
	switch c.Gemini.Auth {
	case "query", "header":
	default:
		return fmt.Errorf("gemini.auth must be query or header, got %q", c.Gemini.Auth)
	}
	return nil
}

// RequireAPIKey reports a missing Gemini key with a hint on where to set it.
func (c *Config) RequireAPIKey() error {
	if c.Gemini.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'contentsbuilder config init')", defaultPath)
}

func (c *Config) validateThresholds() error {
	maxScore := 2 * items.MaxScore
	if c.Thresholds.PromotionScore < 0 || c.Thresholds.PromotionScore > maxScore {
		return fmt.Errorf("thresholds.promotion_score must be between 0 and %d", maxScore)
	}
	if _, ok := items.ParseRisk(c.Thresholds.HighMisinfoRisk); !ok {
		return fmt.Errorf("thresholds.high_misinfo_risk must be low, med, or high, got %q", c.Thresholds.HighMisinfoRisk)
	}
	return nil
}

func (c *Config) validateScreening() error {
	if c.Screening.Concurrency <= 0 {
		return errors.New("screening.concurrency must be positive")
	}
	if c.Screening.BatchSize < 0 {
		return errors.New("screening.batch_size must be zero or positive")
	}
	if c.Screening.RetryAttempts <= 0 {
		return errors.New("screening.retry_attempts must be positive")
	}
	if c.Screening.RetryBaseDelayMS < 0 || c.Screening.RetryMaxDelayMS < 0 {
		return errors.New("screening retry delays must not be negative")
	}
	if c.Screening.RetryMaxDelayMS > 0 && c.Screening.RetryBaseDelayMS > c.Screening.RetryMaxDelayMS {
		return errors.New("screening.retry_base_delay_ms must not exceed retry_max_delay_ms")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
