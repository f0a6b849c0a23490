package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mpsync/internal/config"
	"mpsync/internal/library"
	"mpsync/internal/logging"
	"mpsync/internal/services"
)

// ErrRunInProgress reports that another process holds the run lock.
var ErrRunInProgress = errors.New("another mpsync run is already in progress")

// Pipeline runs verify, scan and sync against one store.
type Pipeline struct {
	store           *library.Store
	lockPath        string
	defaultPlaylist string
	verifier        *PathVerifier
	scanner         *FilesystemScanner
	orchestrator    *SyncOrchestrator
	logger          *slog.Logger
}

// NewPipeline wires the three phases from configuration.
func NewPipeline(cfg *config.Config, store *library.Store, deps Collaborators, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Fingerprinter == nil || deps.Downloader == nil || deps.Resolver == nil {
		return nil, services.Wrap(services.ErrMissingCollaborator, "", "pipeline", "fingerprinter, downloader and resolver are required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	root := cfg.Paths.LibraryDir
	exclude := []string{cfg.Paths.StateDir, cfg.Paths.LogDir}
	return &Pipeline{
		store:           store,
		lockPath:        cfg.LockPath(),
		defaultPlaylist: strings.TrimSpace(cfg.Playlist.ID),
		verifier:        NewPathVerifier(root, logger),
		scanner:         NewFilesystemScanner(root, cfg.AudioExtensions(), exclude, deps.Fingerprinter, logger),
		orchestrator:    NewSyncOrchestrator(root, deps, logger),
		logger:          logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run executes one full reconciliation. playlistID overrides and replaces the
// remembered playlist when non-empty. The returned summary is never nil.
func (p *Pipeline) Run(ctx context.Context, playlistID string) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString(), StartedAt: time.Now()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, p.logger)
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	unlock, err := p.acquireLock()
	if err != nil {
		return summary, err
	}
	defer unlock()

	resolved, err := p.resolvePlaylist(ctx, playlistID)
	if err != nil {
		return summary, err
	}
	summary.PlaylistID = resolved
	logger.Info("sync run started", logging.String("playlist_id", resolved))

	if err := p.runPhase(ctx, PhaseVerify, summary, func(ctx context.Context, session *library.Session) error {
		var phaseErr error
		summary.Verify, phaseErr = p.verifier.Run(ctx, session)
		return phaseErr
	}); err != nil {
		return summary, err
	}

	if err := p.runPhase(ctx, PhaseScan, summary, func(ctx context.Context, session *library.Session) error {
		var phaseErr error
		summary.Scan, phaseErr = p.scanner.Run(ctx, session)
		return phaseErr
	}); err != nil {
		return summary, err
	}

	if err := p.runPhase(ctx, PhaseSync, summary, func(ctx context.Context, session *library.Session) error {
		var phaseErr error
		summary.Sync, phaseErr = p.orchestrator.Run(ctx, session, resolved)
		return phaseErr
	}); err != nil {
		return summary, err
	}

	logger.Info("sync run finished",
		logging.Duration("duration", time.Since(summary.StartedAt)),
		logging.Int("pruned", summary.Verify.Pruned),
		logging.Int("indexed", summary.Scan.Indexed),
		logging.Int("claimed", summary.Sync.Claimed),
		logging.Int("inserted", summary.Sync.Inserted),
		logging.Int("failed", summary.Scan.Failed+summary.Sync.Failed),
	)
	return summary, nil
}

func (p *Pipeline) acquireLock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(p.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(p.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrRunInProgress, p.lockPath)
	}
	return func() { _ = lock.Unlock() }, nil
}

// resolvePlaylist picks the explicit id, then the remembered one, then the
// configured default. An explicit id is persisted before any phase runs.
func (p *Pipeline) resolvePlaylist(ctx context.Context, explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)

	session, err := p.store.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer session.Rollback()

	if explicit != "" {
		if err := session.SetPlaylistID(ctx, explicit); err != nil {
			return "", err
		}
		if err := session.Commit(); err != nil {
			return "", err
		}
		return explicit, nil
	}

	stored, err := session.PlaylistID(ctx)
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}
	if p.defaultPlaylist != "" {
		return p.defaultPlaylist, nil
	}
	return "", services.Wrap(services.ErrNoPlaylist, "", "resolve playlist",
		"pass a playlist id, set playlist.id in the config, or export MPSYNC_PLAYLIST_ID", nil)
}

func (p *Pipeline) runPhase(ctx context.Context, phase string, summary *RunSummary, run func(context.Context, *library.Session) error) error {
	ctx = services.WithPhase(ctx, phase)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	session, err := p.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer session.Rollback()

	if err := run(ctx, session); err != nil {
		if rbErr := session.Rollback(); rbErr != nil {
			logger.Error("rollback failed", logging.Error(rbErr))
		}
		logging.ErrorWithContext(logger, "phase failed; changes rolled back", "phase_failed",
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldErrorHint, phaseHint(err)),
		)
		return err
	}
	if err := session.Commit(); err != nil {
		return err
	}
	summary.Completed = append(summary.Completed, phase)
	logger.Debug("phase committed", logging.Duration("duration", time.Since(started)))
	return nil
}

func phaseHint(err error) string {
	switch {
	case errors.Is(err, services.ErrPlaylistResolution):
		return "check the playlist id and network access; earlier phases stay committed"
	case errors.Is(err, services.ErrConstraintViolation):
		return "ledger invariant breached; rerun with --trace and report the log"
	case errors.Is(err, services.ErrStoreUnavailable):
		return "check the state directory or rebuild with --overwrite"
	case errors.Is(err, context.Canceled):
		return "run interrupted; rerun to continue"
	default:
		return "check logs for details"
	}
}
