// Package library persists the song ledger in SQLite and exposes the
// transactional session the reconciliation phases run against.
//
// Each SongRecord ties a library-relative file path to the acoustic
// fingerprint of its content and, once linked, to the playlist track
// identifier it satisfies. The schema enforces uniqueness of all three
// columns; Session.Insert validates required fields before reaching the
// database and reports UNIQUE violations as services.ErrConstraintViolation.
//
// A single store_meta row remembers the last playlist identifier so later
// runs can omit it. Schema changes bump schemaVersion; older databases are
// rejected and must be rebuilt with `mpsync sync --overwrite`.
package library
