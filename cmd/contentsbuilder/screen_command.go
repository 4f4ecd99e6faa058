package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"contentsbuilder/internal/notifications"
	"contentsbuilder/internal/preflight"
	"contentsbuilder/internal/screening"
	"contentsbuilder/internal/services/gemini"
)

func newScreenCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool
	var batchSize int

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Screen new intake items and promote the strongest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			if !skipPreflight {
				failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, preflight.Options{}))
				if len(failed) > 0 {
					details := make([]string, 0, len(failed))
					for _, f := range failed {
						details = append(details, fmt.Sprintf("%s: %s", f.Name, f.Detail))
					}
					return errors.New("preflight failed: " + strings.Join(details, "; "))
				}
			}

			repo, err := ctx.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			logger := ctx.logs()
			client := gemini.NewClient(cfg.GeminiConfig(), gemini.WithLogger(logger))
			settings := screening.Settings{
				Model:       cfg.Gemini.ModelScreening,
				ModelMeta:   cfg.ModelMeta(),
				Thresholds:  cfg.PromotionThresholds(),
				Concurrency: cfg.Screening.Concurrency,
				BatchSize:   cfg.Screening.BatchSize,
				Retry: screening.RetryPolicy{
					Attempts:  cfg.Screening.RetryAttempts,
					BaseDelay: cfg.RetryBaseDelay(),
					MaxDelay:  cfg.RetryMaxDelay(),
				},
				LockPath: cfg.LockPath(),
			}
			if cmd.Flags().Changed("batch-size") {
				settings.BatchSize = batchSize
			}
			runner, err := screening.NewRunner(repo, client, settings,
				screening.WithLogger(logger),
				screening.WithNotifier(notifications.NewService(cfg)),
			)
			if err != nil {
				return err
			}

			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", summary.RunID)
			fmt.Fprintf(out, "Screened %d: %d promoted, %d ignored, %d flagged, %d failed\n",
				summary.Processed, summary.Promoted, summary.Ignored, summary.Flagged, summary.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip readiness checks before screening")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Override the configured batch size (0 screens all)")
	return cmd
}
