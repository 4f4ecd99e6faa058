package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"contentsbuilder/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var skipModels bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check workbook, directories, and Gemini reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{SkipModels: skipModels})

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, r := range results {
				outcome := outcomePass
				if !r.Passed {
					outcome = outcomeFail
				}
				fmt.Fprintln(out, formatCheck(r.Name, outcome, r.Detail, colorize))
			}
			if skipModels {
				fmt.Fprintln(out, formatCheck("Gemini models", outcomeSkip, "--skip-models set", colorize))
			}
			fmt.Fprintln(out, formatCheck("Notifications", outcomeNote, notificationSummary(cfg.Notifications.NtfyTopic != ""), colorize))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			if len(results) == 0 {
				return errors.New("no checks ran")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipModels, "skip-models", false, "Skip the Gemini round trips")
	return cmd
}

func notificationSummary(configured bool) string {
	return "ntfy configured: " + yesNo(configured)
}
