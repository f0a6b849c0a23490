package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mpsync/internal/library"
)

const fingerprintPreview = 16

type statusRecord struct {
	Path        string `json:"path"`
	RemoteID    string `json:"remote_id,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

type statusReport struct {
	PlaylistID string         `json:"playlist_id,omitempty"`
	Stats      library.Stats  `json:"stats"`
	Records    []statusRecord `json:"records"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked songs and their playlist links",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := library.Open(cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := loadStatus(cmd, store)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printStatus(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	return cmd
}

func loadStatus(cmd *cobra.Command, store *library.Store) (statusReport, error) {
	ctx := cmd.Context()
	playlistID, err := store.PlaylistID(ctx)
	if err != nil {
		return statusReport{}, err
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return statusReport{}, err
	}
	records, err := store.List(ctx)
	if err != nil {
		return statusReport{}, err
	}

	report := statusReport{
		PlaylistID: playlistID,
		Stats:      stats,
		Records:    make([]statusRecord, 0, len(records)),
	}
	for _, record := range records {
		report.Records = append(report.Records, statusRecord{
			Path:        record.LocalPath,
			RemoteID:    record.RemoteID,
			Fingerprint: record.Fingerprint,
		})
	}
	return report, nil
}

func printStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	playlist := report.PlaylistID
	if playlist == "" {
		playlist = "(none remembered)"
	}
	fmt.Fprintf(out, "Playlist: %s\n", playlist)

	if len(report.Records) == 0 {
		fmt.Fprintln(out, "No songs tracked yet; run `mpsync sync` to index the library")
		return
	}

	rows := make([][]string, 0, len(report.Records))
	for _, record := range report.Records {
		remote := record.RemoteID
		if remote == "" {
			remote = "-"
		}
		rows = append(rows, []string{record.Path, remote, previewFingerprint(record.Fingerprint)})
	}
	fmt.Fprintln(out, renderTable([]column{
		{Header: "Path", MaxWidth: 72},
		{Header: "Remote ID"},
		{Header: "Fingerprint"},
	}, rows))
	fmt.Fprintf(out, "%d songs (%d linked, %d unlinked)\n", report.Stats.Total, report.Stats.Linked, report.Stats.Unlinked)
}

func previewFingerprint(fp string) string {
	if len(fp) <= fingerprintPreview {
		return fp
	}
	return fp[:fingerprintPreview] + "..."
}
