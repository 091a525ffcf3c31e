package commands

import (
	"strings"

	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newExtractEmailsCommand(env *environment) *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "extract-emails --input curators.csv [--output curators_emails.csv]",
		Short: "Finds emails in about texts, external sites and sample reviews.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataset.ReadFile(input)
			if err != nil {
				return err
			}

			changed := contact.FillFromAbout(t)
			withEmail := 0
			for _, r := range t.Rows {
				if strings.TrimSpace(r["email"]) != "" {
					withEmail++
				}
			}

			if output == "" {
				output = withSuffix(input, "_emails")
			}
			if err := dataset.WriteFile(output, t, createdBy("extract-emails")); err != nil {
				return err
			}

			renderReport(cmd.OutOrStdout(), "extract-emails",
				table.Row{"Rows", t.Len()},
				table.Row{"Emails added", changed},
				table.Row{"Rows with email", withEmail},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Curator CSV to scan.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV to write (defaults to <input>_emails.csv).")
	cmd.MarkFlagRequired("input")
	return cmd
}
