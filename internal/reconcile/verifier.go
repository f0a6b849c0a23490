package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"syscall"

	"mpsync/internal/fileutil"
	"mpsync/internal/library"
	"mpsync/internal/logging"
)

// PathVerifier prunes records whose file no longer exists. It never touches
// files on disk.
type PathVerifier struct {
	root   string
	logger *slog.Logger
}

// NewPathVerifier builds a verifier for the library rooted at root.
func NewPathVerifier(root string, logger *slog.Logger) *PathVerifier {
	return &PathVerifier{root: root, logger: logging.NewComponentLogger(logger, "verifier")}
}

// Run checks every record in session.
func (v *PathVerifier) Run(ctx context.Context, session *library.Session) (VerifyReport, error) {
	var report VerifyReport
	logger := logging.WithContext(ctx, v.logger)

	records, err := session.ListAll(ctx)
	if err != nil {
		return report, err
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		info, statErr := os.Stat(fileutil.AbsolutePath(v.root, record.LocalPath))
		switch {
		case statErr == nil && !info.IsDir():
			continue
		case statErr == nil || isMissing(statErr):
			if err := session.Delete(ctx, record); err != nil {
				return report, err
			}
			report.Pruned++
			logger.Info("pruned record for missing file",
				logging.String(logging.FieldEventType, "record_pruned"),
				logging.String(logging.FieldPath, record.LocalPath),
				logging.Bool("was_linked", record.Linked()),
			)
		default:
			report.Unreadable++
			logging.WarnWithContext(logger, "cannot verify record path", "record_stat_failed",
				logging.String(logging.FieldPath, record.LocalPath),
				logging.Error(statErr),
				logging.String(logging.FieldErrorHint, "check permissions on the library folder"),
				logging.String(logging.FieldImpact, "record kept until its file can be checked"),
			)
		}
	}

	logger.Info("verify complete",
		logging.Int("checked", report.Checked),
		logging.Int("pruned", report.Pruned),
		logging.Int("unreadable", report.Unreadable),
	)
	return report, nil
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
