package logging

import (
	"context"
	"log/slog"

	"mpsync/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies a single sync invocation.
	FieldRunID = "run_id"
	// FieldPhase names the reconciliation phase (verify, scan, sync).
	FieldPhase = "phase"
	// FieldRemoteID is the playlist track identifier being processed.
	FieldRemoteID = "remote_id"
	// FieldPath is a library-relative file path.
	FieldPath = "path"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPhase, phase))
	}
	if remoteID, ok := services.RemoteIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRemoteID, remoteID))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
