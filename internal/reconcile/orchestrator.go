package reconcile

import (
	"context"
	"log/slog"

	"mpsync/internal/fileutil"
	"mpsync/internal/library"
	"mpsync/internal/logging"
	"mpsync/internal/services"
)

// SyncOrchestrator downloads pending playlist tracks and merges them into the
// ledger by fingerprint.
type SyncOrchestrator struct {
	root        string
	resolver    PlaylistResolver
	downloader  Downloader
	fingerprint Fingerprinter
	logger      *slog.Logger
}

// NewSyncOrchestrator builds the sync phase for the library rooted at root.
func NewSyncOrchestrator(root string, deps Collaborators, logger *slog.Logger) *SyncOrchestrator {
	return &SyncOrchestrator{
		root:        root,
		resolver:    deps.Resolver,
		downloader:  deps.Downloader,
		fingerprint: deps.Fingerprinter,
		logger:      logging.NewComponentLogger(logger, "sync"),
	}
}

// Run resolves playlistID and processes every track without a linked record.
func (o *SyncOrchestrator) Run(ctx context.Context, session *library.Session, playlistID string) (SyncReport, error) {
	var report SyncReport
	logger := logging.WithContext(ctx, o.logger)

	ids, err := o.resolver.Resolve(ctx, playlistID)
	if err != nil {
		return report, err
	}
	report.PlaylistSize = len(ids)

	pending := make([]string, 0, len(ids))
	for _, id := range ids {
		linked, err := session.FindByRemoteID(ctx, id)
		if err != nil {
			return report, err
		}
		if linked == nil {
			pending = append(pending, id)
		}
	}
	report.Pending = len(pending)
	logger.Info("playlist resolved",
		logging.String("playlist_id", playlistID),
		logging.Int("tracks", report.PlaylistSize),
		logging.Int("pending", report.Pending),
	)

	for _, id := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		itemCtx := services.WithRemoteID(ctx, id)
		if err := o.syncTrack(itemCtx, session, id, &report); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			if !services.IsItemFailure(err) {
				return report, err
			}
			report.Failed++
			logging.WarnWithContext(logging.WithContext(itemCtx, o.logger), "track skipped", services.Kind(err),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the track is available and the tools are up to date"),
				logging.String(logging.FieldImpact, "track stays pending; retried next run"),
			)
		}
	}

	logger.Info("sync complete",
		logging.Int("downloaded", report.Downloaded),
		logging.Int("claimed", report.Claimed),
		logging.Int("inserted", report.Inserted),
		logging.Int("replaced", report.Replaced),
		logging.Int("duplicates", report.Duplicates),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}

func (o *SyncOrchestrator) syncTrack(ctx context.Context, session *library.Session, remoteID string, report *SyncReport) error {
	logger := logging.WithContext(ctx, o.logger)

	downloaded, err := o.downloader.Download(ctx, remoteID)
	if err != nil {
		return err
	}
	report.Downloaded++

	// Records only hold library-relative paths, so a path outside the root is
	// never tracked; it is also not ours to delete.
	rel, err := fileutil.RelativePath(o.root, downloaded)
	if err != nil {
		return services.Wrap(services.ErrDownload, PhaseSync, remoteID, "download landed outside the library: "+downloaded, err)
	}

	fp, err := o.fingerprint.Compute(ctx, downloaded)
	if err != nil {
		if discardErr := o.discard(ctx, session, downloaded, rel); discardErr != nil {
			return discardErr
		}
		return err
	}

	owner, err := session.FindByFingerprint(ctx, fp)
	if err != nil {
		return err
	}

	switch {
	case owner == nil:
		return o.insert(ctx, session, remoteID, rel, fp, report)

	case !owner.Linked():
		if err := session.UpdateRemoteID(ctx, owner, remoteID); err != nil {
			return err
		}
		report.Claimed++
		logger.Info("claimed existing record",
			logging.String(logging.FieldEventType, "record_claimed"),
			logging.String(logging.FieldPath, owner.LocalPath),
		)
		return o.discard(ctx, session, downloaded, rel)

	default:
		report.Duplicates++
		logger.Info("audio already linked to another track",
			logging.String(logging.FieldEventType, "duplicate_skip"),
			logging.String(logging.FieldPath, owner.LocalPath),
			logging.String("linked_remote_id", owner.RemoteID),
		)
		return o.discard(ctx, session, downloaded, rel)
	}
}

func (o *SyncOrchestrator) insert(ctx context.Context, session *library.Session, remoteID, rel, fp string, report *SyncReport) error {
	logger := logging.WithContext(ctx, o.logger)

	// The download may have overwritten a file an unlinked record already
	// tracks at the same path; that record's fingerprint no longer describes
	// anything on disk.
	stale, err := session.FindByPath(ctx, rel)
	if err != nil {
		return err
	}
	if stale != nil {
		if stale.Linked() {
			return services.Wrap(services.ErrConstraintViolation, PhaseSync, remoteID,
				"download target "+rel+" belongs to linked track "+stale.RemoteID, nil)
		}
		if err := session.Delete(ctx, *stale); err != nil {
			return err
		}
		report.Replaced++
		logger.Info("replaced stale record at download path",
			logging.String(logging.FieldEventType, "record_replaced"),
			logging.String(logging.FieldPath, rel),
		)
	}

	if _, err := session.Insert(ctx, library.SongRecord{LocalPath: rel, Fingerprint: fp, RemoteID: remoteID}); err != nil {
		return err
	}
	report.Inserted++
	logger.Info("inserted new track",
		logging.String(logging.FieldEventType, "record_inserted"),
		logging.String(logging.FieldPath, rel),
	)
	return nil
}

// discard removes a downloaded file unless a record tracks that exact path.
func (o *SyncOrchestrator) discard(ctx context.Context, session *library.Session, abs, rel string) error {
	owner, err := session.FindByPath(ctx, rel)
	if err != nil {
		return err
	}
	if owner != nil {
		return nil
	}
	if err := fileutil.RemoveIfExists(abs); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "cannot remove discarded download", "discard_failed",
			logging.String(logging.FieldPath, rel),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the file manually"),
			logging.String(logging.FieldImpact, "file will be indexed as a duplicate on the next scan"),
		)
	}
	return nil
}
