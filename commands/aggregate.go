package commands

import (
	"context"
	"os"
	"strings"
	"sync"

	"sjsage522/contactmerge/internal/curator"
	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/internal/steam"
	"sjsage522/contactmerge/logger"
	pkgerrors "sjsage522/contactmerge/pkg/errors"
	"sjsage522/contactmerge/services/worker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// curatorStreamKey is the stream field new curators are published under
const curatorStreamKey = "b64_curator"

func newAggregateCommand(env *environment) *cobra.Command {
	var (
		inputCSV      string
		output        string
		appids        []string
		gamesFile     string
		exportNewOnly bool
		publish       bool
		testMode      bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate [observations.csv]... [--input-csv curators.csv]",
		Short: "Folds curator observations into a deduplicated curator CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.ForStage("aggregate")

			lines := append([]string(nil), appids...)
			if gamesFile != "" {
				data, err := os.ReadFile(gamesFile)
				if err != nil {
					return pkgerrors.NewInput("aggregate", "games file not found: "+gamesFile, err)
				}
				lines = append(lines, strings.Split(string(data), "\n")...)
			}
			gameIDs := steam.ParseGameIDs(lines)

			agg := curator.NewAggregator(env.cfg.NameMatchThreshold)
			if inputCSV != "" {
				if _, err := os.Stat(inputCSV); err == nil {
					existing, err := dataset.ReadFile(inputCSV)
					if err != nil {
						return err
					}
					loaded := agg.LoadExisting(existing)
					log.Info().Int("curators", loaded).Str("path", inputCSV).Msg("Loaded existing curators")
				} else {
					log.Info().Str("path", inputCSV).Msg("No existing curator file, starting empty")
				}
			}

			var runs []*dataset.Table
			for _, path := range args {
				t, err := dataset.ReadFile(path)
				if err != nil {
					return err
				}
				runs = append(runs, t)
			}

			w, err := env.worker(publish)
			if err != nil {
				return err
			}

			names := resolveGameNames(env, w, gameIDs, runs)
			defaultGame := ""
			if len(gameIDs) == 1 {
				defaultGame = names[gameIDs[0]]
			}

			for _, t := range runs {
				for _, r := range t.Rows {
					games := curator.SplitGames(r.Get("game"))
					if len(games) == 0 {
						if id := r.Get("appid"); id != "" {
							games = []string{names[id]}
						} else if defaultGame != "" {
							games = []string{defaultGame}
						}
					}
					if _, err := agg.Observe(curator.FromRow(r), games...); err != nil {
						log.Debug().Err(err).Msg("Observation skipped")
					}
				}
			}

			if output == "" {
				switch {
				case inputCSV != "" && exportNewOnly:
					output = withSuffix(inputCSV, "_new")
				case inputCSV != "":
					output = inputCSV
				case len(gameIDs) > 0:
					output = steam.OutputName(gameIDs, testMode)
				default:
					output = "curators.csv"
				}
			}

			out := agg.Rows()
			if exportNewOnly {
				out = agg.NewRows()
			}
			if err := dataset.WriteFile(output, out, createdBy("aggregate")); err != nil {
				return err
			}

			published := 0
			if publish {
				newCurators := agg.NewCurators()
				records := make([]interface{}, len(newCurators))
				for i, c := range newCurators {
					records[i] = c
				}
				published = w.Publish(curatorStreamKey, records)
			}

			stats := agg.Stats()
			renderReport(cmd.OutOrStdout(), "aggregate",
				table.Row{"Curators", agg.Len()},
				table.Row{"Loaded", stats.Loaded},
				table.Row{"New", stats.New},
				table.Row{"Merged", stats.Merged},
				table.Row{"Reconciled by name", stats.Reconciled},
				table.Row{"Skipped", stats.Skipped},
				table.Row{"Rows written", out.Len()},
				table.Row{"Published", published},
				table.Row{"Output", output},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputCSV, "input-csv", "", "Existing aggregated CSV to extend.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV to write (defaults to --input-csv, <input>_new.csv with --export-new-only, or a name derived from the game ids).")
	cmd.Flags().StringSliceVar(&appids, "appid", nil, "Steam app id the observations belong to (repeatable).")
	cmd.Flags().StringVar(&gamesFile, "games-file", "", "File with app ids, one per line.")
	cmd.Flags().BoolVar(&exportNewOnly, "export-new-only", false, "Write only curators not present in --input-csv.")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish new curators to the Redis stream.")
	cmd.Flags().BoolVar(&testMode, "test", false, "Name the default output as a test run.")
	return cmd
}

// resolveGameNames looks up the store name of every app id given on the
// command line or referenced by an observation row
func resolveGameNames(env *environment, w *worker.Worker, gameIDs []string, runs []*dataset.Table) map[string]string {
	ids := append([]string(nil), gameIDs...)
	for _, t := range runs {
		for _, r := range t.Rows {
			if r.Get("game") == "" {
				if id := r.Get("appid"); id != "" {
					ids = append(ids, id)
				}
			}
		}
	}

	names := make(map[string]string)
	if len(ids) == 0 {
		return names
	}

	client := steam.NewClient(env.cfg.SteamStoreURL, env.deps.Cache, env.cfg.CacheTTL, env.cfg.RateLimitBlock)
	var mu sync.Mutex
	var jobs []worker.Job
	for _, id := range ids {
		if _, queued := names[id]; queued {
			continue
		}
		names[id] = steam.UnknownName(id)
		jobs = append(jobs, worker.Job{
			Name: "steam:" + id,
			Run: func(ctx context.Context) error {
				name := client.AppName(ctx, id)
				mu.Lock()
				names[id] = name
				mu.Unlock()
				return nil
			},
		})
	}
	w.Run(jobs)
	return names
}
