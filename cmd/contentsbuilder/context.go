package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"contentsbuilder/internal/config"
	"contentsbuilder/internal/items"
	"contentsbuilder/internal/logging"
	"contentsbuilder/internal/records"
	"contentsbuilder/internal/tabular"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	closers []func() error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logs returns the CLI logger, falling back to a nop logger when the log
// directory cannot be prepared.
func (c *commandContext) logs() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, err := logging.NewForCLI(level, cfg.Logging.Format, cfg.Paths.LogDir)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// openRepository opens the configured workbook backend. Callers defer
// c.close to release it.
func (c *commandContext) openRepository(ctx context.Context) (*items.Repository, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	policy, err := records.ParseSchemaPolicy(cfg.Workbook.SchemaPolicy)
	if err != nil {
		return nil, err
	}

	var adapter tabular.Adapter
	switch cfg.Workbook.Backend {
	case "memory":
		adapter = tabular.NewMemory()
	default:
		wb, err := tabular.OpenSQLite(ctx, cfg.WorkbookPath())
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		c.closers = append(c.closers, wb.Close)
		adapter = wb
	}

	logger := logging.NewComponentLogger(c.logs(), "records")
	wb := records.NewWorkbook(adapter, policy, logger)
	return items.NewRepository(wb, cfg.TableNames()), nil
}

func (c *commandContext) close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
