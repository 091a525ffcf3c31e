package commands

import (
	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/curator"
	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/logger"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newFillAboutCommand(env *environment) *cobra.Command {
	var (
		input   string
		results string
		output  string
		pending string
	)

	cmd := &cobra.Command{
		Use:   "fill-about --input curators.csv --results about_pass.csv",
		Short: "Fills missing about texts and emails from an about-page pass.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataset.ReadFile(input)
			if err != nil {
				return err
			}
			passTable, err := dataset.ReadFile(results)
			if err != nil {
				return err
			}

			filled, missing := curator.FillMissingAbout(t, curator.ResultsFromTable(passTable))
			fromText := contact.FillFromAbout(t)

			if output == "" {
				output = input
			}
			if err := dataset.WriteFile(output, t, createdBy("fill-about")); err != nil {
				return err
			}

			if pending != "" && len(missing) > 0 {
				todo := dataset.NewTable("steam_profile")
				for _, p := range missing {
					todo.Rows = append(todo.Rows, dataset.Row{"steam_profile": p})
				}
				if err := dataset.WriteFile(pending, todo, createdBy("fill-about")); err != nil {
					return err
				}
			}
			for _, p := range missing {
				logger.ForStage("fill-about").Debug().Str("profile", p).Msg("About text still missing")
			}

			renderReport(cmd.OutOrStdout(), "fill-about",
				table.Row{"Rows", t.Len()},
				table.Row{"About filled", len(filled)},
				table.Row{"Still missing", len(missing)},
				table.Row{"Emails found in text", fromText},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Aggregated curator CSV.")
	cmd.Flags().StringVar(&results, "results", "", "CSV of the about-page pass (steam_profile, about_me, email).")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV to write (defaults to --input).")
	cmd.Flags().StringVar(&pending, "pending-output", "", "Optional CSV listing profiles still lacking an about text.")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("results")
	return cmd
}
