package config

import "contentsbuilder/internal/items"

const (
	defaultConfigPath       = "~/.config/contentsbuilder/config.toml"
	defaultDataDir          = "~/.local/share/contentsbuilder"
	defaultLogDir           = "~/.local/share/contentsbuilder/logs"
	workbookFileName        = "workbook.db"
	lockFileName            = "cycle.lock"
	defaultBackend          = "sqlite"
	defaultSchemaPolicy     = "strict"
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModelScreening   = "gemini-3-flash"
	defaultModelGeneration  = "gemini-3-pro"
	defaultPromptVersion    = "p-2026-01-20-01"
	defaultTemperature      = 0.7
	defaultGeminiTimeout    = 60
	defaultGeminiAuth       = "query"
	defaultPromotionScore   = 7
	defaultHighMisinfoRisk  = "high"
	defaultConcurrency      = 4
	defaultRetryAttempts    = 3
	defaultRetryBaseDelayMS = 1000
	defaultRetryMaxDelayMS  = 10000
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	names := items.DefaultTableNames()
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Workbook: Workbook{
			Backend:        defaultBackend,
			SchemaPolicy:   defaultSchemaPolicy,
			SourceRegistry: names.SourceRegistry,
			IntakeQueue:    names.IntakeQueue,
			Screening:      names.Screening,
			TopicBacklog:   names.TopicBacklog,
			RunLogs:        names.RunLogs,
		},
		Gemini: Gemini{
			BaseURL:         defaultGeminiBaseURL,
			ModelScreening:  defaultModelScreening,
			ModelGeneration: defaultModelGeneration,
			PromptVersion:   defaultPromptVersion,
			Temperature:     defaultTemperature,
			TimeoutSeconds:  defaultGeminiTimeout,
			Auth:            defaultGeminiAuth,
		},
		Thresholds: Thresholds{
			PromotionScore:  defaultPromotionScore,
			HighMisinfoRisk: defaultHighMisinfoRisk,
		},
		Screening: Screening{
			Concurrency:      defaultConcurrency,
			RetryAttempts:    defaultRetryAttempts,
			RetryBaseDelayMS: defaultRetryBaseDelayMS,
			RetryMaxDelayMS:  defaultRetryMaxDelayMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Promoted:       true,
			Flagged:        true,
			Cycle:          false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
