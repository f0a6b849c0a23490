package library

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape.
const schemaVersion = 1

// ErrSchemaMismatch reports a record store written by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the tables on first open and refuses stores written by
// another schema version. There are no migrations; a mismatched store is
// rebuilt with sync --overwrite.
func (s *Store) initSchema(ctx context.Context) error {
	version, found, err := s.storedSchemaVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case !found:
		return s.applySchema(ctx)
	case version != schemaVersion:
		return fmt.Errorf("%w: store %s has version %d, expected %d (run 'mpsync sync --overwrite' to rebuild)",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	default:
		return nil
	}
}

// storedSchemaVersion reports the recorded version, or found=false for a
// fresh database. A version table without a row counts as fresh.
func (s *Store) storedSchemaVersion(ctx context.Context) (int, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("inspect schema: %w", err)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}
