package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/library"
	"quaver/internal/metadata"
	"quaver/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var showAll bool

	cmd := &cobra.Command{
		Use:   "scan [root...]",
		Short: "Index audio files under the library roots",
		Long: "Walks each root, extracts tags and durations from new or changed audio\n" +
			"files, and reconciles the catalog with what is on disk. With no arguments\n" +
			"the configured library directory is scanned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				roots := args
				if len(roots) == 0 {
					roots = []string{cfg.Paths.LibraryDir}
				}

				orchestrator := scan.New(cfg, store, metadata.NewTagReader(), ctx.ensureLogger())
				for _, root := range roots {
					report, err := orchestrator.Scan(cmd.Context(), root)
					if err != nil {
						return fmt.Errorf("scan %s: %w", root, err)
					}
					if jsonOut {
						if err := writeJSON(cmd, report); err != nil {
							return err
						}
						continue
					}
					printScanReport(cmd, root, report, showAll)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the scan report as JSON")
	cmd.Flags().BoolVar(&showAll, "all", false, "List every file, not only failures")
	return cmd
}

func printScanReport(cmd *cobra.Command, root string, report *scan.Report, showAll bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanned %s (session %s)\n", root, report.Session)
	fmt.Fprintln(out, renderTable(
		[]string{"Scanned", "Added", "Updated", "Unchanged", "Failed", "Removed"},
		[][]string{{
			strconv.Itoa(report.Scanned),
			strconv.Itoa(report.Added),
			strconv.Itoa(report.Updated),
			strconv.Itoa(report.Unchanged),
			strconv.Itoa(report.Failed),
			strconv.Itoa(report.Removed),
		}},
		0, 1, 2, 3, 4, 5,
	))

	var rows [][]string
	for _, result := range report.Results {
		if !showAll && result.Outcome != scan.OutcomeFailed {
			continue
		}
		rows = append(rows, []string{result.Path, string(result.Outcome), result.Reason})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Path", "Outcome", "Reason"}, rows))
	}
}
