// Package syncstate records the outcome of each pipeline run so the status
// command can report when a source last synced and whether it succeeded.
package syncstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Status values for a recorded run.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Record is the persisted outcome of one source's last run.
type Record struct {
	Source   string        `json:"source"`
	LastRun  time.Time     `json:"last_run"`
	Duration time.Duration `json:"duration"`
	Items    int           `json:"items"`
	Skipped  int           `json:"skipped"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// Store persists run records in a single JSON file.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]*Record
}

// NewStore opens the state file at path. An empty path places it in the
// user data directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		dir, err := dataDirectory()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		path = filepath.Join(dir, "state.json")
	}

	s := &Store{path: path, records: make(map[string]*Record)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// dataDirectory resolves the state location: XDG_DATA_HOME when set,
// otherwise ~/.local/share.
func dataDirectory() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "profilesync"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "profilesync"), nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading state file: %w", err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		// A corrupt state file only loses history, not data. Start fresh.
		s.records = make(map[string]*Record)
	}
	return nil
}

// Record stores the outcome of a run and persists the file atomically.
func (s *Store) Record(rec *Record) error {
	if rec == nil || rec.Source == "" {
		return fmt.Errorf("record source is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Source] = rec
	return s.persist()
}

// Get returns the last recorded run for a source, or nil when none exists.
func (s *Store) Get(source string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[source]
}

// All returns every record sorted by source name.
func (s *Store) All() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Path returns the location of the state file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
