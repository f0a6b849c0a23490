package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mpsync/internal/logging"
	"mpsync/internal/services"
)

// Store manages the song ledger backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	trace  bool
}

// Option customizes a Store at open time.
type Option func(*Store)

// WithLogger routes store diagnostics through logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTrace logs every SQL statement and its arguments at debug level.
func WithTrace(enabled bool) Option {
	return func(s *Store) {
		s.trace = enabled
	}
}

const (
	sqliteBusyCode          = 5
	sqliteConstraintCode    = 19
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func sqliteCode(err error) (int, bool) {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code(), true
	}
	return 0, false
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code&0xff == sqliteConstraintCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "CHECK constraint failed")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the ledger database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "database path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "create state directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "open sqlite db", err)
	}
	// One connection keeps pragmas and the single active session on the same handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(store)
	}
	store.logger = logging.NewComponentLogger(store.logger, "store")

	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "init schema", "", err)
	}
	return store, nil
}

// Remove deletes the database file at path together with its WAL and SHM
// companions. Missing files are ignored.
func Remove(path string) error {
	for _, candidate := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(candidate); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrStoreUnavailable, "store", "remove", candidate, err)
		}
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin opens a session backed by a single transaction.
func (s *Store) Begin(ctx context.Context) (*Session, error) {
	ctx = ensureContext(ctx)
	var tx *sql.Tx
	if err := retryOnBusy(ctx, func() error {
		var beginErr error
		tx, beginErr = s.db.BeginTx(ctx, nil)
		return beginErr
	}); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "begin", "", err)
	}
	s.traceStatement(ctx, "BEGIN")
	return &Session{tx: tx, store: s}, nil
}

// Stats returns ledger totals.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	const query = "SELECT COUNT(1), COUNT(remote_id) FROM songs"
	s.traceStatement(ctx, query)

	var stats Stats
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.Linked)
	})
	if err != nil {
		return Stats{}, services.Wrap(services.ErrStoreUnavailable, "store", "stats", "", err)
	}
	stats.Unlinked = stats.Total - stats.Linked
	return stats, nil
}

// List returns every record ordered by id outside of any session.
func (s *Store) List(ctx context.Context) ([]SongRecord, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + songColumns + " FROM songs ORDER BY id"
	s.traceStatement(ctx, query)

	var records []SongRecord
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		records, err = collectRecords(rows)
		return err
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list", "", err)
	}
	return records, nil
}

// PlaylistID returns the remembered playlist identifier outside of any session.
func (s *Store) PlaylistID(ctx context.Context) (string, error) {
	ctx = ensureContext(ctx)
	s.traceStatement(ctx, selectMetaQuery, metaPlaylistID)
	var value string
	err := retryOnBusy(ctx, func() error {
		var scanErr error
		value, scanErr = readMeta(s.db.QueryRowContext(ctx, selectMetaQuery, metaPlaylistID))
		return scanErr
	})
	if err != nil {
		return "", services.Wrap(services.ErrStoreUnavailable, "store", "read meta", metaPlaylistID, err)
	}
	return value, nil
}

func (s *Store) traceStatement(ctx context.Context, query string, args ...any) {
	if !s.trace {
		return
	}
	attrs := []logging.Attr{logging.String("sql", query)}
	if len(args) > 0 {
		attrs = append(attrs, logging.Any("args", args))
	}
	logging.WithContext(ctx, s.logger).Debug("sql statement", logging.Args(attrs...)...)
}
