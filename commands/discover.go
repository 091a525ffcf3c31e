package commands

import (
	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/internal/youtube"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// channelStreamKey is the stream field discovered channels are published under
const channelStreamKey = "b64_channel"

func newDiscoverCommand(env *environment) *cobra.Command {
	var (
		queries     []string
		maxChannels int
		output      string
		publish     bool
	)

	cmd := &cobra.Command{
		Use:   "discover [--query q]... [--max-channels 50] [--output outputs/discovered_channels.csv]",
		Short: "Finds YouTube channels through the Data API and extracts emails from their descriptions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := youtube.NewClient(youtube.Options{
				BaseURL:   env.cfg.YouTubeAPIURL,
				APIKey:    env.cfg.YouTubeAPIKey,
				Cache:     env.deps.Cache,
				CacheTTL:  env.cfg.CacheTTL,
				BlockTime: env.cfg.RateLimitBlock,
			})
			if err != nil {
				return err
			}
			w, err := env.worker(publish)
			if err != nil {
				return err
			}

			if len(queries) == 0 {
				queries = youtube.DefaultQueries
			}
			channels := client.Discover(cmd.Context(), w, queries, maxChannels)
			if err := dataset.WriteFile(output, youtube.Table(channels), createdBy("discover")); err != nil {
				return err
			}

			withEmail := 0
			records := make([]interface{}, 0, len(channels))
			for _, ch := range channels {
				if len(ch.Emails) > 0 {
					withEmail++
				}
				records = append(records, ch)
			}
			published := 0
			if publish {
				published = w.Publish(channelStreamKey, records)
			}

			renderReport(cmd.OutOrStdout(), "discover",
				table.Row{"Queries", len(queries)},
				table.Row{"Channels", len(channels)},
				table.Row{"Channels with email", withEmail},
				table.Row{"Published", published},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "Search query (repeatable, defaults to the built-in list).")
	cmd.Flags().IntVar(&maxChannels, "max-channels", 50, "Max results per query (at most 50).")
	cmd.Flags().StringVarP(&output, "output", "o", "outputs/discovered_channels.csv", "CSV to write.")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish discovered channels to the Redis stream.")
	return cmd
}
