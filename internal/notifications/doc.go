// Package notifications publishes sync run results to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so the
// sync command can notify unconditionally. Delivery failures are returned to
// the caller, which logs them without failing the run.
package notifications
