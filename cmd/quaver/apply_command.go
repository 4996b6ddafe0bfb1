package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/fileutil"
	"quaver/internal/library"
	"quaver/internal/logging"
	"quaver/internal/organize"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply [plan-file]",
		Short: "Execute an organization plan",
		Long: "Moves files according to a plan and updates the catalog to match. With\n" +
			"a plan file written by `quaver plan --output` that plan is executed;\n" +
			"otherwise a fresh plan is computed first. Entries invalidated by\n" +
			"filesystem drift since planning are skipped and reported; a plan with\n" +
			"entries sharing a destination is rejected outright.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				planner := organize.NewPlanner(cfg, store, ctx.ensureLogger())

				var plan *organize.Plan
				var err error
				if len(args) == 1 {
					plan, err = readPlanFile(args[0])
				} else {
					plan, err = planner.Plan(cmd.Context())
				}
				if err != nil {
					return err
				}
				if len(plan.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Library is already organized; nothing to move")
					return nil
				}

				conflicted := make(map[string]organize.ConflictKind)
				for _, conflict := range planner.Validate(plan) {
					// Drift invalidates single entries; a shared destination
					// invalidates the whole plan.
					if conflict.Kind == organize.ConflictDestinationCollision {
						return fmt.Errorf("plan %s: %s and another entry share %s: %w",
							plan.ID, conflict.SourcePath, conflict.DestinationPath,
							organize.ErrDestinationCollision)
					}
					conflicted[conflict.SourcePath] = conflict.Kind
				}

				return applyPlan(cmd, ctx, store, plan, conflicted, dryRun)
			})
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report what would move without touching files")
	return cmd
}

// applyPlan executes entries in dependency order: an entry whose destination
// is another entry's source waits for that source to move away first, and an
// entry whose dependency was skipped is skipped too rather than overwriting
// a file the plan meant to keep.
func applyPlan(
	cmd *cobra.Command,
	ctx *commandContext,
	store *library.Store,
	plan *organize.Plan,
	conflicted map[string]organize.ConflictKind,
	dryRun bool,
) error {
	out := cmd.OutOrStdout()
	logger := logging.WithComponent(ctx.ensureLogger(), "apply")

	ordered, blocked := organize.ExecutionOrder(plan.Entries)

	movedSource := make(map[string]bool, len(plan.Entries))
	for _, entry := range plan.Entries {
		movedSource[filepath.Clean(entry.SourcePath)] = false
	}

	moved, skipped := 0, 0
	skip := func(entry organize.Entry, reason string) {
		skipped++
		fmt.Fprintf(out, "skip  %s (%s)\n", entry.SourcePath, reason)
	}

	for _, entry := range blocked {
		skip(entry, "dependency cycle")
	}
	for _, entry := range ordered {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if kind, drifted := conflicted[entry.SourcePath]; drifted {
			skip(entry, string(kind))
			continue
		}
		destKey := filepath.Clean(entry.DestinationPath)
		if done, occupied := movedSource[destKey]; occupied && !done {
			skip(entry, "destination occupied by skipped entry")
			continue
		}
		if dryRun {
			moved++
			movedSource[filepath.Clean(entry.SourcePath)] = true
			fmt.Fprintf(out, "would %s %s -> %s\n", entry.Action, entry.SourcePath, entry.DestinationPath)
			continue
		}

		if err := fileutil.MoveFile(entry.SourcePath, entry.DestinationPath); err != nil {
			return fmt.Errorf("%s %s: %w", entry.Action, entry.SourcePath, err)
		}
		if _, err := store.Rename(cmd.Context(), entry.SourcePath, entry.DestinationPath); err != nil {
			return fmt.Errorf("update catalog for %s: %w", entry.DestinationPath, err)
		}
		logger.Info("moved track",
			logging.Args(
				logging.String(logging.FieldPlanID, plan.ID),
				logging.String("source", entry.SourcePath),
				logging.String("destination", entry.DestinationPath),
			)...)
		moved++
		movedSource[filepath.Clean(entry.SourcePath)] = true
		fmt.Fprintf(out, "%s  %s -> %s\n", entry.Action, entry.SourcePath, entry.DestinationPath)
	}

	if dryRun {
		fmt.Fprintf(out, "Dry run: %d moves pending, %d skipped\n", moved, skipped)
		return nil
	}
	fmt.Fprintf(out, "Applied plan %s: %d moved, %d skipped\n", plan.ID, moved, skipped)
	return nil
}
