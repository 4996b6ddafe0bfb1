package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/library"
	"quaver/internal/organize"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute an organization plan for the catalog",
		Long: "Renders a destination for every cataloged track from the configured\n" +
			"pattern and reports the moves needed to organize the library. Plans are\n" +
			"proposals; nothing is moved until `quaver apply`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				planner := organize.NewPlanner(cfg, store, ctx.ensureLogger())
				plan, err := planner.Plan(cmd.Context())
				if err != nil {
					return err
				}

				if outputPath != "" {
					if err := writePlanFile(outputPath, plan); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote plan %s to %s\n", plan.ID, outputPath)
				}
				if jsonOut {
					return writeJSON(cmd, plan)
				}
				printPlan(cmd, plan, planner.Validate(plan))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the plan as JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the plan to a file for later apply")
	return cmd
}

func printPlan(cmd *cobra.Command, plan *organize.Plan, conflicts []organize.Conflict) {
	out := cmd.OutOrStdout()
	if len(plan.Entries) == 0 {
		fmt.Fprintln(out, "Library is already organized; nothing to move")
		return
	}

	fmt.Fprintf(out, "Plan %s (%d moves, pattern %q)\n", plan.ID, len(plan.Entries), plan.Pattern)
	rows := make([][]string, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		rows = append(rows, []string{string(entry.Action), entry.SourcePath, entry.DestinationPath})
	}
	fmt.Fprintln(out, renderTable([]string{"Action", "Source", "Destination"}, rows))

	if len(conflicts) > 0 {
		fmt.Fprintln(out, "Conflicts (these entries will be skipped by apply):")
		rows = rows[:0]
		for _, conflict := range conflicts {
			rows = append(rows, []string{string(conflict.Kind), conflict.SourcePath, conflict.DestinationPath})
		}
		fmt.Fprintln(out, renderTable([]string{"Kind", "Source", "Destination"}, rows))
	}
}

func writePlanFile(path string, plan *organize.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}
	return nil
}

func readPlanFile(path string) (*organize.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	var plan organize.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode plan file %s: %w", path, err)
	}
	return &plan, nil
}
