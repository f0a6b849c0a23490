package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrMissingCollaborator = errors.New("missing collaborator")
	ErrFingerprint         = errors.New("fingerprint failure")
	ErrDownload            = errors.New("download failure")
	ErrPlaylistResolution  = errors.New("playlist resolution failure")
	ErrNoPlaylist          = errors.New("no playlist id")
	ErrValidation          = errors.New("validation error")
)

// Wrap builds an error message that includes phase context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsItemFailure reports whether err is a per-item failure that the phases
// recover from locally (the item is skipped and retried on the next run).
func IsItemFailure(err error) bool {
	return errors.Is(err, ErrFingerprint) || errors.Is(err, ErrDownload)
}

// Kind returns a short classification label for err, used as the
// event_type suffix in logs and in the CLI summary.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, ErrMissingCollaborator):
		return "missing_collaborator"
	case errors.Is(err, ErrFingerprint):
		return "fingerprint_failure"
	case errors.Is(err, ErrDownload):
		return "download_failure"
	case errors.Is(err, ErrPlaylistResolution):
		return "playlist_resolution_failure"
	case errors.Is(err, ErrNoPlaylist):
		return "no_playlist"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
