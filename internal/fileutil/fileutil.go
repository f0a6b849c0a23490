package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// RelativePath converts an absolute path below root into the slash-separated
// form stored in the ledger.
func RelativePath(root, absolute string) (string, error) {
	rel, err := filepath.Rel(root, absolute)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is not inside %s", absolute, root)
	}
	return rel, nil
}

// AbsolutePath resolves a ledger path against root.
func AbsolutePath(root, relative string) string {
	return filepath.Join(root, filepath.FromSlash(path.Clean(relative)))
}

// HasExtension reports whether name's extension (compared case-insensitively)
// is in exts. Keys in exts are lower-case with a leading dot.
func HasExtension(name string, exts map[string]struct{}) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := exts[ext]
	return ok
}

// IsHidden reports whether a file or directory name is a dotfile.
func IsHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

// RemoveIfExists deletes path, treating an already missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// SamePath reports whether a and b name the same location after cleaning.
func SamePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
