package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"texthighlight/internal/history"
	"texthighlight/internal/workspace"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan    time.Duration
		pruneHistory bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove leftover manifests and aligner output from the work directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}

			lock := workspace.NewLock(cfg.LockPath())
			if err := lock.AcquireExclusive(); err != nil {
				if errors.Is(err, workspace.ErrLocked) {
					return fmt.Errorf("alignment runs are active (lock %s); stop them before pruning", lock.Path())
				}
				return err
			}
			defer lock.Release()

			now := time.Now()
			result, err := workspace.New(cfg.Paths.WorkDir).Prune(olderThan, now)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range result.Removed {
				fmt.Fprintf(out, "removed %s\n", name)
			}
			for name, ferr := range result.Failed {
				fmt.Fprintf(out, "failed %s: %v\n", name, ferr)
			}
			fmt.Fprintf(out, "Pruned %d work item(s)\n", len(result.Removed))

			if pruneHistory && cfg.History.Enabled {
				store, err := history.Open(cfg.HistoryPath(), 0)
				if err != nil {
					return err
				}
				defer store.Close()
				removed, err := store.DeleteBefore(cmd.Context(), now.Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d history row(s)\n", removed)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d item(s) could not be removed", len(result.Failed))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only remove items last modified before this age")
	cmd.Flags().BoolVar(&pruneHistory, "history", false, "Also delete history rows older than --older-than")
	return cmd
}
