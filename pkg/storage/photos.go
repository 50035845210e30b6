package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// PhotoStore manages an append-only image directory keyed by filename. A
// file that already exists is never re-downloaded and never re-verified;
// writes are atomic (temp file + rename), so existence implies a complete
// file.
type PhotoStore struct {
	dir      string
	existing map[string]bool
	mu       sync.RWMutex
}

// NewPhotoStore creates a photo store at dir, creating the directory if
// needed and scanning it for already-downloaded files.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photos directory: %w", err)
	}

	store := &PhotoStore{
		dir:      dir,
		existing: make(map[string]bool),
	}

	if err := store.scanExisting(); err != nil {
		return nil, fmt.Errorf("failed to scan photos directory: %w", err)
	}

	return store, nil
}

// scanExisting records the files already present in the directory.
func (s *PhotoStore) scanExisting() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Ignore leftovers from interrupted runs.
		if filepath.Ext(name) == ".tmp" {
			continue
		}
		s.existing[name] = true
	}

	return nil
}

// Dir returns the photo directory path.
func (s *PhotoStore) Dir() string {
	return s.dir
}

// Exists reports whether a file with the given name is already present.
func (s *PhotoStore) Exists(filename string) bool {
	s.mu.RLock()
	if s.existing[filename] {
		s.mu.RUnlock()
		return true
	}
	s.mu.RUnlock()

	// Another process may have written the file since the scan.
	if _, err := os.Stat(filepath.Join(s.dir, filename)); err == nil {
		s.mu.Lock()
		s.existing[filename] = true
		s.mu.Unlock()
		return true
	}

	return false
}

// Save streams r into the named file. The temp-file + rename dance keeps
// a partially written file from ever occupying the final name.
func (s *PhotoStore) Save(r io.Reader, filename string) error {
	target := filepath.Join(s.dir, filename)
	tempPath := target + ".tmp"

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write photo data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	s.mu.Lock()
	s.existing[filename] = true
	s.mu.Unlock()

	return nil
}

// Count returns the number of files known to the store.
func (s *PhotoStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.existing)
}
