package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"contentsbuilder/internal/intake"
	"contentsbuilder/internal/runlock"
)

func newIntakeCommand(ctx *commandContext) *cobra.Command {
	intakeCmd := &cobra.Command{
		Use:   "intake",
		Short: "Add candidates to the intake queue",
	}
	intakeCmd.AddCommand(newIntakeAddCommand(ctx))
	intakeCmd.AddCommand(newIntakeImportCommand(ctx))
	return intakeCmd
}

func newIntakeAddCommand(ctx *commandContext) *cobra.Command {
	var cand intake.Candidate

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Enqueue a single candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(cand.Title) == "" || strings.TrimSpace(cand.URL) == "" {
				return errors.New("--title and --url are required")
			}
			result, err := runIntake(cmd, ctx, intake.File{Items: []intake.Candidate{cand}})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case len(result.Added) == 1:
				fmt.Fprintf(out, "Enqueued %s\n", result.Added[0].ItemID)
			case result.Duplicates == 1:
				fmt.Fprintln(out, "Skipped: already in the intake queue")
			case len(result.Rejected) == 1:
				return fmt.Errorf("candidate rejected: %s", result.Rejected[0].Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cand.Title, "title", "", "Candidate title")
	cmd.Flags().StringVar(&cand.URL, "url", "", "Candidate URL")
	cmd.Flags().StringVar(&cand.SourceID, "source", "", "Source id from the source registry")
	cmd.Flags().StringVar(&cand.Snippet, "snippet", "", "Snippet text or HTML")
	cmd.Flags().StringVar(&cand.PublishedAt, "published", "", "Publication time (RFC3339 or YYYY-MM-DD)")
	return cmd
}

func newIntakeImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Register sources and enqueue items from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := intake.LoadFile(args[0])
			if err != nil {
				return err
			}
			result, err := runIntake(cmd, ctx, file)
			if err != nil {
				return err
			}
			printIntakeResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func runIntake(cmd *cobra.Command, ctx *commandContext, file intake.File) (intake.Result, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return intake.Result{}, err
	}
	lock, err := runlock.TryAcquire(cfg.LockPath())
	if err != nil {
		return intake.Result{}, err
	}
	defer lock.Release()

	repo, err := ctx.openRepository(cmd.Context())
	if err != nil {
		return intake.Result{}, err
	}
	defer ctx.close()

	svc := intake.NewService(repo, intake.WithLogger(ctx.logs()))
	return svc.Import(cmd.Context(), file)
}

func printIntakeResult(out io.Writer, result intake.Result) {
	fmt.Fprintf(out, "Run %s\n", result.RunID)
	if result.SourcesAdded > 0 || result.SourcesUpdated > 0 {
		fmt.Fprintf(out, "Sources: %d added, %d updated\n", result.SourcesAdded, result.SourcesUpdated)
	}
	fmt.Fprintf(out, "Items: %d added, %d duplicates, %d rejected\n", len(result.Added), result.Duplicates, len(result.Rejected))
	for _, rej := range result.Rejected {
		title := rej.Title
		if title == "" {
			title = fmt.Sprintf("item %d", rej.Index+1)
		}
		fmt.Fprintf(out, "  rejected %s: %s\n", title, rej.Reason)
	}
}
