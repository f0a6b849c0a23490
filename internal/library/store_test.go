package library_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"mpsync/internal/library"
	"mpsync/internal/services"
	"mpsync/internal/testsupport"
)

func TestOpenCreatesSchemaAndRoundTrips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	session, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer session.Rollback()

	inserted, err := session.Insert(ctx, library.SongRecord{LocalPath: "a.mp3", Fingerprint: "X"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if inserted.CreatedAt.IsZero() || inserted.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	records := testsupport.MustList(t, store)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.LocalPath != "a.mp3" || got.Fingerprint != "X" || got.RemoteID != "" || got.Linked() {
		t.Fatalf("unexpected record: %#v", got)
	}
}

func TestInsertValidatesRequiredFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	session, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer session.Rollback()

	cases := []library.SongRecord{
		{LocalPath: "", Fingerprint: "X"},
		{LocalPath: "a.mp3", Fingerprint: ""},
		{LocalPath: "  ", Fingerprint: "  "},
	}
	for _, record := range cases {
		if _, err := session.Insert(ctx, record); !errors.Is(err, services.ErrConstraintViolation) {
			t.Fatalf("expected constraint violation for %#v, got %v", record, err)
		}
	}
}

func TestInsertRejectsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedRecords(t, store, library.SongRecord{LocalPath: "a.mp3", Fingerprint: "X", RemoteID: "v1"})

	cases := []struct {
		name   string
		record library.SongRecord
	}{
		{"duplicate path", library.SongRecord{LocalPath: "a.mp3", Fingerprint: "Y"}},
		{"duplicate fingerprint", library.SongRecord{LocalPath: "b.mp3", Fingerprint: "X"}},
		{"duplicate remote id", library.SongRecord{LocalPath: "c.mp3", Fingerprint: "Z", RemoteID: "v1"}},
	}
	ctx := context.Background()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session, err := store.Begin(ctx)
			if err != nil {
				t.Fatalf("Begin failed: %v", err)
			}
			defer session.Rollback()
			if _, err := session.Insert(ctx, tc.record); !errors.Is(err, services.ErrConstraintViolation) {
				t.Fatalf("expected constraint violation, got %v", err)
			}
		})
	}

	// Multiple unlinked records may coexist.
	testsupport.SeedRecords(t, store,
		library.SongRecord{LocalPath: "d.mp3", Fingerprint: "D"},
		library.SongRecord{LocalPath: "e.mp3", Fingerprint: "E"},
	)
	if got := len(testsupport.MustList(t, store)); got != 3 {
		t.Fatalf("expected 3 records, got %d", got)
	}
}

func TestFindersAndUpdateRemoteID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seeded := testsupport.SeedRecords(t, store,
		library.SongRecord{LocalPath: "a.mp3", Fingerprint: "X"},
		library.SongRecord{LocalPath: "music/b.flac", Fingerprint: "Y", RemoteID: "v2"},
	)

	ctx := context.Background()
	session, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer session.Rollback()

	byFP, err := session.FindByFingerprint(ctx, "X")
	if err != nil || byFP == nil || byFP.ID != seeded[0].ID {
		t.Fatalf("FindByFingerprint: got %#v, err %v", byFP, err)
	}
	byRemote, err := session.FindByRemoteID(ctx, "v2")
	if err != nil || byRemote == nil || byRemote.LocalPath != "music/b.flac" {
		t.Fatalf("FindByRemoteID: got %#v, err %v", byRemote, err)
	}
	byPath, err := session.FindByPath(ctx, "music/b.flac")
	if err != nil || byPath == nil || byPath.Fingerprint != "Y" {
		t.Fatalf("FindByPath: got %#v, err %v", byPath, err)
	}
	for _, lookup := range []func() (*library.SongRecord, error){
		func() (*library.SongRecord, error) { return session.FindByFingerprint(ctx, "nope") },
		func() (*library.SongRecord, error) { return session.FindByRemoteID(ctx, "nope") },
		func() (*library.SongRecord, error) { return session.FindByRemoteID(ctx, "") },
		func() (*library.SongRecord, error) { return session.FindByPath(ctx, "nope.mp3") },
	} {
		if record, err := lookup(); err != nil || record != nil {
			t.Fatalf("expected nil lookup result, got %#v, err %v", record, err)
		}
	}

	before := byFP.UpdatedAt
	if err := session.UpdateRemoteID(ctx, byFP, "v1"); err != nil {
		t.Fatalf("UpdateRemoteID failed: %v", err)
	}
	if byFP.RemoteID != "v1" || byFP.UpdatedAt.Before(before) {
		t.Fatalf("expected record to be updated in place, got %#v", byFP)
	}
	if err := session.UpdateRemoteID(ctx, byFP, "v2"); !errors.Is(err, services.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation linking a taken remote id, got %v", err)
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Linked != 2 || stats.Unlinked != 0 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seeded := testsupport.SeedRecords(t, store, library.SongRecord{LocalPath: "a.mp3", Fingerprint: "X"})

	ctx := context.Background()
	session, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer session.Rollback()
	for i := 0; i < 2; i++ {
		if err := session.Delete(ctx, seeded[0]); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if got := len(testsupport.MustList(t, store)); got != 0 {
		t.Fatalf("expected empty store, got %d records", got)
	}
}

func TestRollbackDiscardsChanges(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	session, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := session.Insert(ctx, library.SongRecord{LocalPath: "a.mp3", Fingerprint: "X"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := session.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if err := session.Rollback(); err != nil {
		t.Fatalf("second Rollback should be a no-op, got %v", err)
	}
	if got := len(testsupport.MustList(t, store)); got != 0 {
		t.Fatalf("expected rollback to discard insert, got %d records", got)
	}
}

func TestPlaylistIDPersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	session, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer session.Rollback()

	if id, err := session.PlaylistID(ctx); err != nil || id != "" {
		t.Fatalf("expected empty playlist id, got %q err %v", id, err)
	}
	if err := session.SetPlaylistID(ctx, "PL1"); err != nil {
		t.Fatalf("SetPlaylistID failed: %v", err)
	}
	if err := session.SetPlaylistID(ctx, "PL2"); err != nil {
		t.Fatalf("SetPlaylistID overwrite failed: %v", err)
	}
	if err := session.SetPlaylistID(ctx, " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	reopened := testsupport.MustOpenStore(t, cfg)
	id, err := reopened.PlaylistID(ctx)
	if err != nil {
		t.Fatalf("PlaylistID failed: %v", err)
	}
	if id != "PL2" {
		t.Fatalf("expected persisted playlist id PL2, got %q", id)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	_, err = library.Open(cfg.DatabasePath())
	if !errors.Is(err, services.ErrStoreUnavailable) || !errors.Is(err, library.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch store error, got %v", err)
	}

	if err := library.Remove(cfg.DatabasePath()); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if _, err := os.Stat(cfg.DatabasePath() + suffix); !os.IsNotExist(err) {
			t.Fatalf("expected %s%s removed, stat err=%v", cfg.DatabasePath(), suffix, err)
		}
	}
	rebuilt := testsupport.MustOpenStore(t, cfg)
	if stats, err := rebuilt.Stats(context.Background()); err != nil || stats.Total != 0 {
		t.Fatalf("expected empty rebuilt store, got %#v err %v", stats, err)
	}
}

func TestOpenFailsForUnusablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	testsupport.WriteFile(t, blocker, "not a directory")

	_, err := library.Open(filepath.Join(blocker, "mpsync.db"))
	if !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	if _, err := library.Open(""); !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable for empty path, got %v", err)
	}
}

func TestRemoveMissingDatabaseIsNoop(t *testing.T) {
	if err := library.Remove(filepath.Join(t.TempDir(), "absent.db")); err != nil {
		t.Fatalf("Remove on missing db returned %v", err)
	}
}
