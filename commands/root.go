package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newRootCommand builds the command tree around env. Every call returns
// fresh flag state.
func newRootCommand(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "contactmerge",
		Short:         "contactmerge merges scraped curator and channel contacts into deduplicated CSV datasets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.Cleanup()
		},
	}

	root.AddCommand(
		newMergeRunsCommand(env),
		newAggregateCommand(env),
		newFillAboutCommand(env),
		newExtractEmailsCommand(env),
		newExtractLinksCommand(env),
		newUniformizeCommand(env),
		newPivotCommand(env),
		newCleanCommand(env),
		newDiscoverCommand(env),
		newAnnotateCommand(env),
		newSummaryCommand(env),
	)
	return root
}

// ExecuteContext runs the CLI and exits non-zero on failure
func ExecuteContext(ctx context.Context) {
	env := &environment{}
	if err := newRootCommand(env).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
