package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mpsync/internal/config"
	"mpsync/internal/deps"
	"mpsync/internal/library"
	"mpsync/internal/logging"
	"mpsync/internal/notifications"
	"mpsync/internal/preflight"
	"mpsync/internal/reconcile"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool
	var trace bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sync [playlist_id]",
		Short: "Reconcile the library with a playlist",
		Long: `Verify tracked paths, index new library files, then download and link
every playlist track the library does not already hold.

A playlist id given here is remembered for later runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := deps.Require(preflight.CheckSystemDeps(cfg)); err != nil {
				return fmt.Errorf("%w (run `mpsync doctor` for details)", err)
			}

			logger, err := newCommandLogger(cmd, cfg, trace)
			if err != nil {
				return err
			}

			if overwrite {
				if err := library.Remove(cfg.DatabasePath()); err != nil {
					return err
				}
				logger.Info("existing ledger removed", logging.String(logging.FieldPath, cfg.DatabasePath()))
			}

			store, err := library.Open(cfg.DatabasePath(), library.WithLogger(logger), library.WithTrace(trace))
			if err != nil {
				return err
			}
			defer store.Close()

			collaborators, err := ctx.collaborators(cfg)
			if err != nil {
				return err
			}
			pipeline, err := reconcile.NewPipeline(cfg, store, collaborators, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var playlistID string
			if len(args) == 1 {
				playlistID = strings.TrimSpace(args[0])
			}
			summary, runErr := pipeline.Run(runCtx, playlistID)
			notifyRun(cmd, cfg, logger, summary, runErr)
			if jsonOutput {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printRunSummary(cmd, summary, shouldColorize(cmd.OutOrStdout()))
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Delete the ledger and rebuild it from scratch")
	cmd.Flags().BoolVar(&trace, "trace", false, "Log every SQL statement at debug level")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func printRunSummary(cmd *cobra.Command, summary *reconcile.RunSummary, colorize bool) {
	if summary == nil {
		return
	}
	out := cmd.OutOrStdout()
	playlist := summary.PlaylistID
	if playlist == "" {
		playlist = "(unresolved)"
	}
	for _, line := range renderSectionHeader("Sync run "+shortID(summary.RunID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Playlist: %s\n", playlist)
	fmt.Fprintf(out, "Duration: %s\n", summary.Duration.Round(time.Millisecond))

	rows := [][]string{
		{
			"verify",
			phaseState(summary, reconcile.PhaseVerify),
			fmt.Sprintf("checked %d, pruned %d, unreadable %d",
				summary.Verify.Checked, summary.Verify.Pruned, summary.Verify.Unreadable),
		},
		{
			"scan",
			phaseState(summary, reconcile.PhaseScan),
			fmt.Sprintf("scanned %d, indexed %d, duplicates %d, failed %d",
				summary.Scan.Scanned, summary.Scan.Indexed, summary.Scan.Duplicates, summary.Scan.Failed),
		},
		{
			"sync",
			phaseState(summary, reconcile.PhaseSync),
			fmt.Sprintf("playlist %d, pending %d, claimed %d, inserted %d, replaced %d, duplicates %d, failed %d",
				summary.Sync.PlaylistSize, summary.Sync.Pending, summary.Sync.Claimed, summary.Sync.Inserted,
				summary.Sync.Replaced, summary.Sync.Duplicates, summary.Sync.Failed),
		},
	}
	fmt.Fprintln(out, renderTable([]column{
		{Header: "Phase"},
		{Header: "State"},
		{Header: "Result"},
	}, rows))
}

func phaseState(summary *reconcile.RunSummary, phase string) string {
	if slices.Contains(summary.Completed, phase) {
		return "committed"
	}
	return "not committed"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func notifyRun(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, summary *reconcile.RunSummary, runErr error) {
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, reconcile.ErrRunInProgress) {
		return
	}
	notifier := notifications.NewService(cfg)
	var err error
	if runErr != nil {
		err = notifier.NotifyRunFailed(cmd.Context(), summary, runErr)
	} else {
		err = notifier.NotifyRunCompleted(cmd.Context(), summary)
	}
	if err != nil {
		logging.WarnWithContext(logger, "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "run result not pushed"),
		)
	}
}
