package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mpsync/internal/services"
)

// ContentFingerprinter fingerprints a file as its trimmed contents, so tests
// control identity by choosing what they write.
type ContentFingerprinter struct {
	mu sync.Mutex
	// Failures maps a file base name to the error returned for it.
	Failures map[string]error
	Calls    []string
}

// Compute returns the trimmed file contents.
func (f *ContentFingerprinter) Compute(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, path)
	failure := f.Failures[filepath.Base(path)]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if failure != nil {
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "compute", path, failure)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "read", path, err)
	}
	fp := strings.TrimSpace(string(data))
	if fp == "" {
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "compute", path+" produced an empty fingerprint", nil)
	}
	return fp, nil
}

// CallCount returns the number of Compute invocations.
func (f *ContentFingerprinter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeDownloader materializes tracks as small files whose contents are the
// track's fingerprint.
type FakeDownloader struct {
	mu sync.Mutex
	// Dir is the managed download folder.
	Dir string
	// Ext defaults to "mp3".
	Ext string
	// Tracks maps a remote id to the contents written for it.
	Tracks map[string]string
	// Failures maps a remote id to the error returned for it.
	Failures map[string]error
	Calls    []string
}

// Download writes <Dir>/<id>.<Ext> and returns its path.
func (d *FakeDownloader) Download(ctx context.Context, remoteID string) (string, error) {
	d.mu.Lock()
	d.Calls = append(d.Calls, remoteID)
	failure := d.Failures[remoteID]
	contents, ok := d.Tracks[remoteID]
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if failure != nil {
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "", failure)
	}
	if !ok {
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "track unavailable", nil)
	}
	ext := d.Ext
	if ext == "" {
		ext = "mp3"
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "create download dir", err)
	}
	target := filepath.Join(d.Dir, fmt.Sprintf("%s.%s", remoteID, ext))
	if err := os.WriteFile(target, []byte(contents), 0o644); err != nil {
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "write file", err)
	}
	return target, nil
}

// CallCount returns the number of Download invocations.
func (d *FakeDownloader) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// StaticResolver returns a fixed playlist membership.
type StaticResolver struct {
	IDs       []string
	Err       error
	Requested []string
}

// Resolve returns IDs or Err.
func (r *StaticResolver) Resolve(ctx context.Context, playlistID string) ([]string, error) {
	r.Requested = append(r.Requested, playlistID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, services.Wrap(services.ErrPlaylistResolution, "playlist", playlistID, "", r.Err)
	}
	return append([]string(nil), r.IDs...), nil
}
