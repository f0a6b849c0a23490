// Package services defines shared utilities consumed by the reconciliation
// phases and the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, phase names, and playlist track
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that separate per-item
//     recoverable failures from phase-fatal ones.
//   - The Executor abstraction that makes yt-dlp and fpcalc invocations
//     testable.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
