// Package reconcile implements the three-phase sync pipeline that brings the
// song ledger, the library folder and a remote playlist into agreement.
//
// Phases run strictly in order, each in its own store session:
//
//   - verify (PathVerifier): prune records whose file disappeared.
//   - scan (FilesystemScanner): fingerprint and index untracked audio files.
//   - sync (SyncOrchestrator): download pending playlist tracks and merge them
//     by fingerprint, claiming an existing unlinked record instead of keeping
//     a second copy of the same audio.
//
// A phase commits only when it finishes; a phase failure rolls back that
// phase alone and leaves earlier phases committed. Per-item failures
// (services.IsItemFailure) are logged and skipped, and the affected playlist
// track stays pending for the next run.
package reconcile
