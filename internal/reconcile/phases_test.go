package reconcile_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mpsync/internal/library"
	"mpsync/internal/logging"
	"mpsync/internal/reconcile"
	"mpsync/internal/testsupport"
)

func withSession(t *testing.T, store *library.Store, fn func(*library.Session)) {
	t.Helper()
	session, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer session.Rollback()
	fn(session)
	if err := session.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestPathVerifierPrunesOnlyMissingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryDir
	testsupport.WriteFile(t, filepath.Join(root, "kept.mp3"), "K")
	testsupport.WriteFile(t, filepath.Join(root, "file.mp3"), "F")
	testsupport.SeedRecords(t, store,
		library.SongRecord{LocalPath: "kept.mp3", Fingerprint: "K"},
		library.SongRecord{LocalPath: "missing.mp3", Fingerprint: "M", RemoteID: "v1"},
		library.SongRecord{LocalPath: "file.mp3/nested.mp3", Fingerprint: "N"},
	)

	verifier := reconcile.NewPathVerifier(root, logging.NewNop())
	var report reconcile.VerifyReport
	withSession(t, store, func(session *library.Session) {
		var err error
		report, err = verifier.Run(context.Background(), session)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
	})

	if report.Checked != 3 || report.Pruned != 2 {
		t.Fatalf("unexpected report %#v", report)
	}
	records := testsupport.MustList(t, store)
	if len(records) != 1 || records[0].LocalPath != "kept.mp3" {
		t.Fatalf("expected only kept.mp3, got %#v", records)
	}
	if !testsupport.FileExists(t, filepath.Join(root, "file.mp3")) {
		t.Fatal("verifier must never touch files")
	}
}

func TestFilesystemScannerIndexing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryDir
	excluded := filepath.Join(root, "logs")

	files := map[string]string{
		"album/one.MP3":         "ONE",
		"album/two.flac":        "TWO",
		"album/cover.jpg":       "IMG",
		"album/copy-of-one.mp3": "ONE",
		"broken.mp3":            "BROKEN",
		"empty.ogg":             "",
		".hidden/secret.mp3":    "SECRET",
		"._resource.mp3":        "FORK",
		"logs/run.mp3":          "LOG",
		"tracked.mp3":           "T",
	}
	for rel, contents := range files {
		testsupport.WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), contents)
	}
	testsupport.SeedRecords(t, store, library.SongRecord{LocalPath: "tracked.mp3", Fingerprint: "T"})

	fp := &testsupport.ContentFingerprinter{Failures: map[string]error{"broken.mp3": errors.New("decode error")}}
	scanner := reconcile.NewFilesystemScanner(root, cfg.AudioExtensions(), []string{excluded}, fp, logging.NewNop())

	var report reconcile.ScanReport
	withSession(t, store, func(session *library.Session) {
		var err error
		report, err = scanner.Run(context.Background(), session)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
	})

	records := recordsByPath(t, store)
	for _, rel := range []string{"album/two.flac", "tracked.mp3"} {
		if _, ok := records[rel]; !ok {
			t.Fatalf("expected %s indexed, got %v", rel, records)
		}
	}
	ones := 0
	for _, rel := range []string{"album/one.MP3", "album/copy-of-one.mp3"} {
		if _, ok := records[rel]; ok {
			ones++
		}
	}
	if ones != 1 {
		t.Fatalf("expected exactly one copy of duplicated audio indexed, got %d", ones)
	}
	for _, rel := range []string{"album/cover.jpg", "broken.mp3", "empty.ogg", ".hidden/secret.mp3", "._resource.mp3", "logs/run.mp3"} {
		if _, ok := records[rel]; ok {
			t.Fatalf("did not expect %s to be indexed", rel)
		}
	}
	if report.Scanned != 6 || report.Tracked != 1 || report.Indexed != 2 || report.Duplicates != 1 || report.Failed != 2 {
		t.Fatalf("unexpected report %#v", report)
	}
	for _, record := range records {
		if record.RemoteID != "" {
			t.Fatalf("scanner must insert unlinked records, got %#v", record)
		}
	}
	if !testsupport.FileExists(t, filepath.Join(root, "album", "copy-of-one.mp3")) || !testsupport.FileExists(t, filepath.Join(root, "album", "one.MP3")) {
		t.Fatal("scanner must leave duplicate files on disk")
	}
}

func TestFilesystemScannerRequiresLibraryRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	scanner := reconcile.NewFilesystemScanner(filepath.Join(cfg.Paths.LibraryDir, "absent"), cfg.AudioExtensions(), nil, &testsupport.ContentFingerprinter{}, nil)

	session, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer session.Rollback()
	if _, err := scanner.Run(context.Background(), session); err == nil {
		t.Fatal("expected error for missing library root")
	}
}

func TestSyncOrchestratorReportsCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryDir
	testsupport.WriteFile(t, filepath.Join(root, "a.mp3"), "A")
	testsupport.WriteFile(t, filepath.Join(root, "b.mp3"), "B")
	testsupport.SeedRecords(t, store,
		library.SongRecord{LocalPath: "a.mp3", Fingerprint: "A"},
		library.SongRecord{LocalPath: "b.mp3", Fingerprint: "B", RemoteID: "linked"},
	)

	deps := reconcile.Collaborators{
		Fingerprinter: &testsupport.ContentFingerprinter{},
		Downloader: &testsupport.FakeDownloader{Dir: cfg.DownloadDir(), Tracks: map[string]string{
			"claim": "A", "dup": "B", "new": "N",
		}},
		Resolver: &testsupport.StaticResolver{IDs: []string{"linked", "claim", "dup", "new", "gone"}},
	}
	orchestrator := reconcile.NewSyncOrchestrator(root, deps, logging.NewNop())

	var report reconcile.SyncReport
	withSession(t, store, func(session *library.Session) {
		var err error
		report, err = orchestrator.Run(context.Background(), session, "PL1")
		if err != nil {
			t.Fatalf("sync: %v", err)
		}
	})

	want := reconcile.SyncReport{PlaylistSize: 5, Pending: 4, Downloaded: 3, Claimed: 1, Inserted: 1, Duplicates: 1, Failed: 1}
	if report != want {
		t.Fatalf("unexpected report\n got %#v\nwant %#v", report, want)
	}
	if files := testsupport.ListFiles(t, cfg.DownloadDir()); len(files) != 1 || files[0] != "new.mp3" {
		t.Fatalf("expected only new.mp3 kept, got %v", files)
	}
	assertUniqueFingerprints(t, store)
}
