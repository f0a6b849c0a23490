package testsupport

import (
	"context"
	"testing"

	"mpsync/internal/config"
	"mpsync/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...library.Option) *library.Store {
	t.Helper()

	store, err := library.Open(cfg.DatabasePath(), opts...)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedRecords inserts records in one committed session.
func SeedRecords(t testing.TB, store *library.Store, records ...library.SongRecord) []library.SongRecord {
	t.Helper()

	ctx := context.Background()
	session, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	defer session.Rollback()

	inserted := make([]library.SongRecord, 0, len(records))
	for _, record := range records {
		stored, err := session.Insert(ctx, record)
		if err != nil {
			t.Fatalf("session.Insert(%s): %v", record.LocalPath, err)
		}
		inserted = append(inserted, *stored)
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("session.Commit: %v", err)
	}
	return inserted
}

// MustList returns every committed record.
func MustList(t testing.TB, store *library.Store) []library.SongRecord {
	t.Helper()

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}
	return records
}
