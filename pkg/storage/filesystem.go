package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Files keeps rendered export files on disk, one directory per export.
type Files struct {
	baseDir string
	now     func() time.Time
}

// NewFiles ensures baseDir exists.
func NewFiles(baseDir string) (*Files, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Files{baseDir: baseDir, now: time.Now}, nil
}

// Write stores data as name under the export's directory and returns the
// relative path to hand to Open. The file appears atomically.
func (f *Files) Write(exportID int64, name string, data []byte) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	rel := filepath.Join(strconv.FormatInt(exportID, 10), name)
	path, err := f.resolve(rel)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("publish file: %w", err)
	}
	return rel, nil
}

// Open returns a read-only handle for a path returned by Write. A missing
// file satisfies os.IsNotExist.
func (f *Files) Open(rel string) (*os.File, error) {
	path, err := f.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// RemoveExport deletes every file rendered for exportID.
func (f *Files) RemoveExport(exportID int64) error {
	path, err := f.resolve(strconv.FormatInt(exportID, 10))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove export files: %w", err)
	}
	return nil
}

// Prune removes files last written more than retention ago, then any export
// directory left empty, and returns the removed file paths.
func (f *Files) Prune(retention time.Duration) ([]string, error) {
	cutoff := f.now().Add(-retention)
	var removed []string
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list storage: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(f.baseDir, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("list %s: %w", entry.Name(), err)
		}
		kept := 0
		for _, file := range files {
			info, err := file.Info()
			if err != nil {
				return removed, err
			}
			if file.IsDir() || info.ModTime().After(cutoff) {
				kept++
				continue
			}
			if err := os.Remove(filepath.Join(dir, file.Name())); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("remove %s: %w", file.Name(), err)
			}
			removed = append(removed, filepath.Join(entry.Name(), file.Name()))
		}
		if kept == 0 {
			os.Remove(dir) //nolint:errcheck
		}
	}
	return removed, nil
}

func (f *Files) resolve(rel string) (string, error) {
	clean := filepath.Clean(rel)
	if rel == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", rel)
	}
	return filepath.Join(f.baseDir, clean), nil
}
