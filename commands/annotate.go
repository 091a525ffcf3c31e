package commands

import (
	"fmt"

	"sjsage522/contactmerge/internal/dataset"

	"github.com/spf13/cobra"
)

func newAnnotateCommand(env *environment) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "annotate <file.csv>... [--created-by name]",
		Short: "Prepends a created_by author note to CSV files that lack one.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				added, err := dataset.PrependAuthorNote(path, by)
				if err != nil {
					return err
				}
				status := "already annotated"
				if added {
					status = "annotated"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "created-by", "contactmerge", "Name recorded in the author note.")
	return cmd
}
