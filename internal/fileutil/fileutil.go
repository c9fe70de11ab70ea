package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TempPath returns the sibling temp path used while writing path: the
// extension is replaced by ".tmp" so "1_2.json" is staged as "1_2.tmp".
func TempPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".tmp"
}

// WriteAtomic writes data to TempPath(path), syncs it, and renames it over
// path. Readers see either the previous file or the complete new one. The temp
// file is removed when any step fails.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmpPath := TempPath(path)
	if tmpPath == path {
		tmpPath = path + ".tmp"
	}
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// RemoveIfExists deletes path and treats a missing file as success. It reports
// whether a file was actually removed.
func RemoveIfExists(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}
