package commands

import (
	"fmt"
	"strings"

	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/internal/links"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newExtractLinksCommand(env *environment) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "extract-links --input contacts.csv [--output extracted_links.csv]",
		Short: "Writes one row per URL found anywhere in a CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataset.ReadFile(input)
			if err != nil {
				return err
			}
			out := links.Extract(t)
			if err := dataset.WriteFile(output, out, createdBy("extract-links")); err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), "extract-links",
				table.Row{"Rows scanned", t.Len()},
				table.Row{"Links", out.Len()},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV to scan.")
	cmd.Flags().StringVarP(&output, "output", "o", "extracted_links.csv", "CSV to write.")
	cmd.MarkFlagRequired("input")
	return cmd
}

func newUniformizeCommand(env *environment) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "uniformize --input extracted_links.csv [--output uniform_links.csv]",
		Short: "Collapses extracted links by canonical identity and classifies their service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataset.ReadFile(input)
			if err != nil {
				return err
			}
			out := links.Uniformize(t)
			if err := dataset.WriteFile(output, out, createdBy("uniformize")); err != nil {
				return err
			}

			perService := make(map[string]int)
			for _, r := range out.Rows {
				perService[r["service"]]++
			}
			rows := []table.Row{
				{"Links read", t.Len()},
				{"Canonical links", out.Len()},
			}
			for _, svc := range sortedKeys(perService) {
				rows = append(rows, table.Row{"  " + svc, perService[svc]})
			}
			rows = append(rows, table.Row{"Output", output})
			renderReport(cmd.OutOrStdout(), "uniformize", rows...)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Output of extract-links.")
	cmd.Flags().StringVarP(&output, "output", "o", "uniform_links.csv", "CSV to write.")
	cmd.MarkFlagRequired("input")
	return cmd
}

func newPivotCommand(env *environment) *cobra.Command {
	var rowsPath, uniformPath, output string

	cmd := &cobra.Command{
		Use:   "pivot --rows contacts.csv --uniform uniform_links.csv [--output final_contacts.csv]",
		Short: "Attaches canonical links to their source rows as service, website_N and email_N columns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := dataset.ReadFile(rowsPath)
			if err != nil {
				return err
			}
			uniform, err := dataset.ReadFile(uniformPath)
			if err != nil {
				return err
			}
			out := links.Pivot(rows, uniform)
			if err := dataset.WriteFile(output, out, createdBy("pivot")); err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), "pivot",
				table.Row{"Rows", out.Len()},
				table.Row{"Columns added", len(out.Header) - len(rows.Header)},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&rowsPath, "rows", "", "The CSV links were extracted from.")
	cmd.Flags().StringVar(&uniformPath, "uniform", "", "Output of uniformize.")
	cmd.Flags().StringVarP(&output, "output", "o", "final_contacts.csv", "CSV to write.")
	cmd.MarkFlagRequired("rows")
	cmd.MarkFlagRequired("uniform")
	return cmd
}

func newCleanCommand(env *environment) *cobra.Command {
	var (
		input  string
		output string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "clean --input yt_contacts.csv --output yt_contacts_clean.csv [--dry-run]",
		Short: "Unwraps, canonicalizes and deduplicates links and drops links back to the row's own channel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataset.ReadFile(input)
			if err != nil {
				return err
			}
			dropped := links.Clean(t)

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Would write %d rows and %d columns to %s\n", t.Len(), len(t.Header), output)
				return nil
			}
			if err := dataset.WriteFile(output, t, createdBy("clean")); err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), "clean",
				table.Row{"Rows", t.Len()},
				table.Row{"Columns", len(t.Header)},
				table.Row{"Dropped columns", strings.Join(dropped, ", ")},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Contacts CSV to clean.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV to write.")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be written without writing.")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}
