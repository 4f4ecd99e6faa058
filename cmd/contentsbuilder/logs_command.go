package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"contentsbuilder/internal/logging"
	"contentsbuilder/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var runID string
	var itemID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the contentsbuilder log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.FileName)

			filter := logs.Contains(runID, itemID)

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, max(lines, 0), filter)
			if err != nil {
				return fmt.Errorf("read logs: %w", err)
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(tail) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 0, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines mentioning this run id")
	cmd.Flags().StringVar(&itemID, "item", "", "Only show lines mentioning this item id")
	return cmd
}
