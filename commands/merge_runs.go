package commands

import (
	"os"

	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/internal/merge"
	"sjsage522/contactmerge/logger"
	pkgerrors "sjsage522/contactmerge/pkg/errors"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newMergeRunsCommand(env *environment) *cobra.Command {
	var (
		key    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "merge-runs <run.csv>... [--key channel_id] [--output merged.csv]",
		Short: "Merges the CSV outputs of several runs, keeping the first row seen per key.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.ForStage("merge-runs")

			var tables []*dataset.Table
			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					log.Warn().Str("path", path).Msg("Run file not found, skipping")
					continue
				}
				t, err := dataset.ReadFile(path)
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}
			if len(tables) == 0 {
				return pkgerrors.NewInput("merge-runs", "none of the run files exist", nil)
			}

			res := merge.Runs(key, tables...)
			if err := dataset.WriteFile(output, res.Table, createdBy("merge-runs")); err != nil {
				return err
			}

			renderReport(cmd.OutOrStdout(), "merge-runs",
				table.Row{"Runs read", len(tables)},
				table.Row{"Rows written", res.Table.Len()},
				table.Row{"Duplicates", res.Duplicates},
				table.Row{"Rows completed", res.Filled},
				table.Row{"Rows without key", res.Dropped},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", merge.DefaultKey, "Column identifying the same entity across runs.")
	cmd.Flags().StringVarP(&output, "output", "o", "merged.csv", "Merged CSV to write.")
	return cmd
}
