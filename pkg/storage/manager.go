package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manager persists the JSON documents produced by the pipelines. Every
// write fully replaces the previous document; there is no merging and no
// history. Writes go through a temp file and an atomic rename so that a
// document at its final path is always complete.
type Manager struct {
	baseDir string
}

// NewManager creates a document manager rooted at baseDir, creating the
// directory if needed.
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the root of the document tree.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// path resolves a document name relative to the base directory.
func (m *Manager) path(name string) string {
	return filepath.Join(m.baseDir, name)
}

// WriteDocument marshals v as indented JSON and replaces the named
// document. Parent directories are created as needed.
func (m *Manager) WriteDocument(name string, v interface{}) error {
	target := m.path(name)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}

	tempPath := target + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary document: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync document: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close document: %w", err)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace document: %w", err)
	}

	return nil
}

// ReadDocument unmarshals the named document into target. A missing
// document is reported via os.IsNotExist on the returned error.
func (m *Manager) ReadDocument(name string, target interface{}) error {
	data, err := os.ReadFile(m.path(name))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", name, err)
	}

	return nil
}

// DocumentExists reports whether the named document is present.
func (m *Manager) DocumentExists(name string) bool {
	_, err := os.Stat(m.path(name))
	return err == nil
}
