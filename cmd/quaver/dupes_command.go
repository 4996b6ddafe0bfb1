package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/dedupe"
	"quaver/internal/fingerprint"
	"quaver/internal/library"
)

func newDupesCommand(ctx *commandContext) *cobra.Command {
	var strategyFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "Find duplicate tracks in the catalog",
		Long: "Groups cataloged tracks that appear to be the same recording. The\n" +
			"metadata strategy compares normalized tags, hash compares file contents,\n" +
			"and fingerprint compares acoustic fingerprints computed with fpcalc.",
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := dedupe.ParseStrategy(strategyFlag)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				var provider fingerprint.Provider
				if strategy == dedupe.StrategyFingerprint {
					provider = fingerprint.NewChromaprint(cfg)
				}
				detector := dedupe.New(cfg, store, provider, ctx.ensureLogger())
				report, err := detector.Detect(cmd.Context(), strategy)
				if err != nil {
					return fmt.Errorf("detect duplicates: %w", err)
				}
				if jsonOut {
					return writeJSON(cmd, report)
				}
				printDupeReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&strategyFlag, "strategy", "s", string(dedupe.StrategyMetadata),
		"Detection strategy: metadata, hash, or fingerprint")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the detection report as JSON")
	return cmd
}

func printDupeReport(cmd *cobra.Command, report *dedupe.Report) {
	out := cmd.OutOrStdout()
	if len(report.Groups) == 0 {
		fmt.Fprintf(out, "No duplicates found (%s strategy, %d tracks examined)\n",
			report.Strategy, report.Completed)
	}

	for i, group := range report.Groups {
		fmt.Fprintf(out, "Group %d (confidence %.2f)\n", i+1, group.Confidence)
		rows := make([][]string, 0, len(group.Paths))
		for _, path := range group.Paths {
			rows = append(rows, []string{path})
		}
		fmt.Fprintln(out, renderTable([]string{"Path"}, rows))
	}

	if len(report.Unresolved) > 0 {
		fmt.Fprintf(out, "%s tracks could not be judged:\n", strconv.Itoa(len(report.Unresolved)))
		rows := make([][]string, 0, len(report.Unresolved))
		for _, item := range report.Unresolved {
			rows = append(rows, []string{item.Path, item.Reason})
		}
		fmt.Fprintln(out, renderTable([]string{"Path", "Reason"}, rows))
	}
}
