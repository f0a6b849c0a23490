package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRelativePath(t *testing.T) {
	root := filepath.Join(t.TempDir(), "library")

	rel, err := RelativePath(root, filepath.Join(root, "artist", "song.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if rel != "artist/song.mp3" {
		t.Fatalf("unexpected relative path %q", rel)
	}

	for _, outside := range []string{root, filepath.Dir(root), filepath.Join(filepath.Dir(root), "other", "a.mp3")} {
		if _, err := RelativePath(root, outside); err == nil {
			t.Fatalf("expected error for %q", outside)
		}
	}
}

func TestAbsolutePath(t *testing.T) {
	root := t.TempDir()
	got := AbsolutePath(root, "playlist/v1.mp3")
	if want := filepath.Join(root, "playlist", "v1.mp3"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestHasExtension(t *testing.T) {
	exts := map[string]struct{}{".mp3": {}, ".flac": {}}
	cases := map[string]bool{
		"a.mp3":            true,
		"B.MP3":            true,
		"c.Flac":           true,
		"d.m4a":            false,
		"noext":            false,
		"archive.mp3.part": false,
	}
	for name, want := range cases {
		if got := HasExtension(name, exts); got != want {
			t.Errorf("HasExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsHidden(t *testing.T) {
	if !IsHidden(".cache") || IsHidden(".") || IsHidden("music") {
		t.Fatal("unexpected IsHidden results")
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("second removal should be a no-op, got %v", err)
	}
}

func TestSamePath(t *testing.T) {
	if !SamePath("/music/playlist/../playlist/a.mp3", "/music/playlist/a.mp3") {
		t.Fatal("expected cleaned paths to match")
	}
	if SamePath("/music/a.mp3", "/music/b.mp3") {
		t.Fatal("expected different paths")
	}
}
