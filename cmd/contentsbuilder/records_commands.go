package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"contentsbuilder/internal/items"
	"contentsbuilder/internal/records"
	"contentsbuilder/internal/tabular"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect workbook tables",
	}
	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var limit int
	var asJSON bool
	var columnsFlag []string

	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List the rows of a table",
		Long: "List the rows of a table. <table> is a sheet name or one of: " +
			"sources, intake, screening, topics, runs.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			def, ok := cfg.TableNames().Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown table %q", args[0])
			}
			if statusFilter != "" {
				if _, ok := items.ParseStatus(statusFilter); !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
			}

			repo, err := ctx.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			store := tableStore(repo, def)
			schema, err := store.Schema(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := store.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			rows = filterRows(rows, statusFilter, limit)

			if asJSON {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if schema.Empty() {
				fmt.Fprintf(out, "%s is empty\n", def.Name)
				return nil
			}
			columns := schema.Columns()
			if len(columnsFlag) > 0 {
				columns = columnsFlag
			}
			fmt.Fprintln(out, renderTable(columns, recordCells(rows, columns), nil))
			fmt.Fprintf(out, "%d rows\n", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only rows whose status column equals this value")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many rows (0 shows all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON")
	cmd.Flags().StringSliceVar(&columnsFlag, "columns", nil, "Comma-separated columns to show")
	return cmd
}

// tableStore picks the repository store matching def so locks are shared.
func tableStore(repo *items.Repository, def records.Definition) *records.Store {
	switch def.Name {
	case repo.Names.SourceRegistry:
		return repo.Sources.Store()
	case repo.Names.IntakeQueue:
		return repo.Intake.Store()
	case repo.Names.Screening:
		return repo.Screening.Store()
	case repo.Names.TopicBacklog:
		return repo.Topics.Store()
	default:
		return repo.Runs.Store()
	}
}

func filterRows(rows []records.Record, status string, limit int) []records.Record {
	out := rows[:0:0]
	for _, rec := range rows {
		if status != "" && !strings.EqualFold(rec.String("status"), status) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func recordCells(rows []records.Record, columns []string) [][]string {
	cells := make([][]string, 0, len(rows))
	for _, rec := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			v, _ := rec.Get(col)
			line[i] = displayValue(v)
		}
		cells = append(cells, line)
	}
	return cells
}

func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(val, ", ")
	case []any, map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return tabular.CellString(val)
	}
}
