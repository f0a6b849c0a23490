package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mpsync/internal/services"
)

// Session is a unit of work against the ledger. Every mutation becomes
// durable only when Commit succeeds.
type Session struct {
	tx    *sql.Tx
	store *Store
	done  bool
}

func (s *Session) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	s.store.traceStatement(ctx, query, args...)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.tx.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Session) queryRecord(ctx context.Context, query string, args ...any) (*SongRecord, error) {
	ctx = ensureContext(ctx)
	s.store.traceStatement(ctx, query, args...)
	record, err := scanRecord(s.tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// ListAll returns every record ordered by id.
func (s *Session) ListAll(ctx context.Context) ([]SongRecord, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + songColumns + " FROM songs ORDER BY id"
	s.store.traceStatement(ctx, query)
	rows, err := s.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list", "", err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list", "", err)
	}
	return records, nil
}

// Delete removes the record by primary key. Deleting a record that is
// already gone is not an error.
func (s *Session) Delete(ctx context.Context, record SongRecord) error {
	if _, err := s.exec(ctx, "DELETE FROM songs WHERE id = ?", record.ID); err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "store", "delete", record.LocalPath, err)
	}
	return nil
}

// Insert stores a new record and returns it with its id and timestamps set.
func (s *Session) Insert(ctx context.Context, record SongRecord) (*SongRecord, error) {
	record.LocalPath = strings.TrimSpace(record.LocalPath)
	record.Fingerprint = strings.TrimSpace(record.Fingerprint)
	record.RemoteID = strings.TrimSpace(record.RemoteID)
	if record.LocalPath == "" {
		return nil, services.Wrap(services.ErrConstraintViolation, "store", "insert", "local_path is required", nil)
	}
	if record.Fingerprint == "" {
		return nil, services.Wrap(services.ErrConstraintViolation, "store", "insert", fmt.Sprintf("fingerprint is required for %s", record.LocalPath), nil)
	}

	now := time.Now().UTC()
	res, err := s.exec(ctx,
		"INSERT INTO songs (local_path, fingerprint, remote_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		record.LocalPath, record.Fingerprint, nullableString(record.RemoteID), formatTime(now), formatTime(now),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, services.Wrap(services.ErrConstraintViolation, "store", "insert", record.LocalPath, err)
		}
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "insert", record.LocalPath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "insert", "read inserted id", err)
	}
	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now
	return &record, nil
}

// FindByFingerprint returns the record owning fingerprint, or nil.
func (s *Session) FindByFingerprint(ctx context.Context, fingerprint string) (*SongRecord, error) {
	record, err := s.queryRecord(ctx, "SELECT "+songColumns+" FROM songs WHERE fingerprint = ?", fingerprint)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "find by fingerprint", "", err)
	}
	return record, nil
}

// FindByRemoteID returns the record linked to remoteID, or nil.
func (s *Session) FindByRemoteID(ctx context.Context, remoteID string) (*SongRecord, error) {
	if strings.TrimSpace(remoteID) == "" {
		return nil, nil
	}
	record, err := s.queryRecord(ctx, "SELECT "+songColumns+" FROM songs WHERE remote_id = ?", remoteID)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "find by remote id", remoteID, err)
	}
	return record, nil
}

// FindByPath returns the record tracking the library-relative path, or nil.
func (s *Session) FindByPath(ctx context.Context, localPath string) (*SongRecord, error) {
	record, err := s.queryRecord(ctx, "SELECT "+songColumns+" FROM songs WHERE local_path = ?", localPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "find by path", localPath, err)
	}
	return record, nil
}

// UpdateRemoteID links record to remoteID and bumps updated_at.
func (s *Session) UpdateRemoteID(ctx context.Context, record *SongRecord, remoteID string) error {
	if record == nil {
		return services.Wrap(services.ErrValidation, "store", "update remote id", "record is nil", nil)
	}
	remoteID = strings.TrimSpace(remoteID)
	now := time.Now().UTC()
	res, err := s.exec(ctx,
		"UPDATE songs SET remote_id = ?, updated_at = ? WHERE id = ?",
		nullableString(remoteID), formatTime(now), record.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return services.Wrap(services.ErrConstraintViolation, "store", "update remote id", remoteID, err)
		}
		return services.Wrap(services.ErrStoreUnavailable, "store", "update remote id", remoteID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrValidation, "store", "update remote id", fmt.Sprintf("record %d not found", record.ID), nil)
	}
	record.RemoteID = remoteID
	record.UpdatedAt = now
	return nil
}

// PlaylistID returns the remembered playlist identifier, or "" when none is stored.
func (s *Session) PlaylistID(ctx context.Context) (string, error) {
	ctx = ensureContext(ctx)
	s.store.traceStatement(ctx, selectMetaQuery, metaPlaylistID)
	value, err := readMeta(s.tx.QueryRowContext(ctx, selectMetaQuery, metaPlaylistID))
	if err != nil {
		return "", services.Wrap(services.ErrStoreUnavailable, "store", "read meta", metaPlaylistID, err)
	}
	return value, nil
}

// SetPlaylistID remembers id as the playlist for future runs.
func (s *Session) SetPlaylistID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Wrap(services.ErrValidation, "store", "write meta", "playlist id is empty", nil)
	}
	_, err := s.exec(ctx,
		"INSERT INTO store_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metaPlaylistID, id,
	)
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "store", "write meta", metaPlaylistID, err)
	}
	return nil
}

// Commit makes the session's mutations durable.
func (s *Session) Commit() error {
	if s.done {
		return services.Wrap(services.ErrStoreUnavailable, "store", "commit", "session already closed", nil)
	}
	s.done = true
	s.store.traceStatement(context.Background(), "COMMIT")
	if err := s.tx.Commit(); err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "store", "commit", "", err)
	}
	return nil
}

// Rollback discards the session's mutations. Calling it after Commit is a no-op.
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	s.store.traceStatement(context.Background(), "ROLLBACK")
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return services.Wrap(services.ErrStoreUnavailable, "store", "rollback", "", err)
	}
	return nil
}
