package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/library"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("read stats: %w", err)
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Catalog: %s\n", store.Path())
				fmt.Fprintln(out, renderTable(
					[]string{"Tracks", "Artists", "Albums", "Size", "Playtime", "Hashed", "Fingerprinted"},
					[][]string{{
						strconv.Itoa(stats.Tracks),
						strconv.Itoa(stats.Artists),
						strconv.Itoa(stats.Albums),
						formatBytes(stats.TotalBytes),
						formatMillis(stats.TotalMillis),
						strconv.Itoa(stats.Hashed),
						strconv.Itoa(stats.Fingerprinted),
					}},
					0, 1, 2, 3, 4, 5, 6,
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit statistics as JSON")
	return cmd
}
