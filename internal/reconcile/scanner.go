package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"mpsync/internal/fileutil"
	"mpsync/internal/library"
	"mpsync/internal/logging"
	"mpsync/internal/services"
)

// FilesystemScanner indexes audio files that no record tracks yet.
type FilesystemScanner struct {
	root        string
	extensions  map[string]struct{}
	excluded    map[string]struct{}
	fingerprint Fingerprinter
	logger      *slog.Logger
}

// NewFilesystemScanner builds a scanner for root. Directories listed in
// exclude (absolute paths) are skipped along with hidden directories.
func NewFilesystemScanner(root string, extensions map[string]struct{}, exclude []string, fp Fingerprinter, logger *slog.Logger) *FilesystemScanner {
	excluded := make(map[string]struct{}, len(exclude))
	for _, dir := range exclude {
		if dir != "" {
			excluded[filepath.Clean(dir)] = struct{}{}
		}
	}
	return &FilesystemScanner{
		root:        filepath.Clean(root),
		extensions:  extensions,
		excluded:    excluded,
		fingerprint: fp,
		logger:      logging.NewComponentLogger(logger, "scanner"),
	}
}

// Run walks the library and inserts an unlinked record for every untracked
// audio file whose fingerprint is not already owned by another record.
func (s *FilesystemScanner) Run(ctx context.Context, session *library.Session) (ScanReport, error) {
	var report ScanReport
	logger := logging.WithContext(ctx, s.logger)

	info, err := os.Stat(s.root)
	if err != nil {
		return report, services.Wrap(services.ErrValidation, PhaseScan, "library root", s.root, err)
	}
	if !info.IsDir() {
		return report, services.Wrap(services.ErrValidation, PhaseScan, "library root", s.root+" is not a directory", nil)
	}

	walkErr := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == s.root {
				return err
			}
			logging.WarnWithContext(logger, "cannot read library entry", "scan_walk_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the library folder"),
				logging.String(logging.FieldImpact, "entry skipped for this run"),
			)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if path == s.root {
				return nil
			}
			if fileutil.IsHidden(entry.Name()) {
				return fs.SkipDir
			}
			if _, skip := s.excluded[filepath.Clean(path)]; skip {
				return fs.SkipDir
			}
			return nil
		}

		if fileutil.IsHidden(entry.Name()) || !fileutil.HasExtension(entry.Name(), s.extensions) {
			return nil
		}
		if !isRegularFile(path, entry) {
			return nil
		}
		return s.indexFile(ctx, session, path, &report)
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return report, walkErr
		}
		if errors.Is(walkErr, services.ErrConstraintViolation) || errors.Is(walkErr, services.ErrStoreUnavailable) {
			return report, walkErr
		}
		return report, services.Wrap(services.ErrValidation, PhaseScan, "walk library", s.root, walkErr)
	}

	logger.Info("scan complete",
		logging.Int("scanned", report.Scanned),
		logging.Int("tracked", report.Tracked),
		logging.Int("indexed", report.Indexed),
		logging.Int("duplicates", report.Duplicates),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *FilesystemScanner) indexFile(ctx context.Context, session *library.Session, path string, report *ScanReport) error {
	logger := logging.WithContext(ctx, s.logger)
	report.Scanned++

	rel, err := fileutil.RelativePath(s.root, path)
	if err != nil {
		return services.Wrap(services.ErrValidation, PhaseScan, "relative path", path, err)
	}

	tracked, err := session.FindByPath(ctx, rel)
	if err != nil {
		return err
	}
	if tracked != nil {
		report.Tracked++
		return nil
	}

	fp, err := s.fingerprint.Compute(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !services.IsItemFailure(err) {
			return err
		}
		report.Failed++
		logging.WarnWithContext(logger, "fingerprint failed; file skipped", "fingerprint_failed",
			logging.String(logging.FieldPath, rel),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file plays and fpcalc supports its format"),
			logging.String(logging.FieldImpact, "file not indexed; retried next run"),
		)
		return nil
	}

	owner, err := session.FindByFingerprint(ctx, fp)
	if err != nil {
		return err
	}
	if owner != nil {
		report.Duplicates++
		logging.WarnWithContext(logger, "same audio already tracked under another path", "duplicate_local_file",
			logging.String(logging.FieldPath, rel),
			logging.String("tracked_path", owner.LocalPath),
			logging.String(logging.FieldErrorHint, "remove one of the copies if it is unwanted"),
			logging.String(logging.FieldImpact, "file left on disk but not indexed; it is fingerprinted again on every scan while both copies exist"),
		)
		return nil
	}

	if _, err := session.Insert(ctx, library.SongRecord{LocalPath: rel, Fingerprint: fp}); err != nil {
		return err
	}
	report.Indexed++
	logger.Debug("indexed file", logging.String(logging.FieldPath, rel))
	return nil
}

func isRegularFile(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
