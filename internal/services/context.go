package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	phaseKey    contextKey = "phase"
	remoteIDKey contextKey = "remote_id"
)

// WithRunID annotates context with the sync run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPhase annotates context with the reconciliation phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the phase name if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(phaseKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRemoteID annotates context with the playlist track being processed.
func WithRemoteID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, remoteIDKey, id)
}

// RemoteIDFromContext returns the playlist track identifier if present.
func RemoteIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(remoteIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
