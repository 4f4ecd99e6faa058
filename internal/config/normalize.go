package config

import (
	"fmt"
	"os"
	"strings"

	"contentsbuilder/internal/items"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkbook()
	c.normalizeGemini()
	c.normalizeThresholds()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorkbook() {
	c.Workbook.Backend = strings.ToLower(strings.TrimSpace(c.Workbook.Backend))
	if c.Workbook.Backend == "" {
		c.Workbook.Backend = defaultBackend
	}
	c.Workbook.SchemaPolicy = strings.ToLower(strings.TrimSpace(c.Workbook.SchemaPolicy))
	if c.Workbook.SchemaPolicy == "" {
		c.Workbook.SchemaPolicy = defaultSchemaPolicy
	}
	names := items.DefaultTableNames()
	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Workbook.SourceRegistry, names.SourceRegistry)
	fill(&c.Workbook.IntakeQueue, names.IntakeQueue)
	fill(&c.Workbook.Screening, names.Screening)
	fill(&c.Workbook.TopicBacklog, names.TopicBacklog)
	fill(&c.Workbook.RunLogs, names.RunLogs)
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.ModelScreening = strings.TrimSpace(c.Gemini.ModelScreening)
	if c.Gemini.ModelScreening == "" {
		c.Gemini.ModelScreening = defaultModelScreening
	}
	c.Gemini.ModelGeneration = strings.TrimSpace(c.Gemini.ModelGeneration)
	if c.Gemini.ModelGeneration == "" {
		c.Gemini.ModelGeneration = defaultModelGeneration
	}
	c.Gemini.PromptVersion = strings.TrimSpace(c.Gemini.PromptVersion)
	if c.Gemini.PromptVersion == "" {
		c.Gemini.PromptVersion = defaultPromptVersion
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
	c.Gemini.Auth = strings.ToLower(strings.TrimSpace(c.Gemini.Auth))
	if c.Gemini.Auth == "" {
		c.Gemini.Auth = defaultGeminiAuth
	}
}

func (c *Config) normalizeThresholds() {
	c.Thresholds.HighMisinfoRisk = strings.ToLower(strings.TrimSpace(c.Thresholds.HighMisinfoRisk))
	if c.Thresholds.HighMisinfoRisk == "" {
		c.Thresholds.HighMisinfoRisk = defaultHighMisinfoRisk
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CONTENTSBUILDER_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
