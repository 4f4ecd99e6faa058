package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contentsbuilder/internal/screening"
)

func newRequeueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <item_id>...",
		Short: "Return failed items to status new",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			out := cmd.OutOrStdout()
			for _, id := range args {
				if err := screening.Requeue(cmd.Context(), repo, id); err != nil {
					return err
				}
				fmt.Fprintf(out, "Requeued %s\n", id)
			}
			return nil
		},
	}
}
