package commands

import (
	"strings"

	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// emailCount counts rows holding at least one valid address in an email
// column
func emailCount(t *dataset.Table) int {
	n := 0
	for _, r := range t.Rows {
		for _, col := range []string{"email", "emails"} {
			found := false
			for _, e := range strings.Split(r[col], ";") {
				if contact.IsValid(strings.TrimSpace(e)) {
					found = true
					break
				}
			}
			if found {
				n++
				break
			}
		}
	}
	return n
}

func newSummaryCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <file.csv>...",
		Short: "Prints row, column and email counts for CSV datasets.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"File", "Rows", "Columns", "With email"})

			for _, path := range args {
				data, err := dataset.ReadFile(path)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{path, data.Len(), len(data.Header), emailCount(data)})
			}

			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
	return cmd
}
