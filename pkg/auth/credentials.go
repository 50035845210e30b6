package auth

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"profilesync/pkg/logger"
)

// Credential holds an API token or cookie pair for one upstream source.
type Credential struct {
	Source    string            `json:"source"`
	Token     string            `json:"token"`
	Fields    map[string]string `json:"fields,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Field returns a named secondary value, or "" when absent.
func (c *Credential) Field(name string) string {
	if c == nil || c.Fields == nil {
		return ""
	}
	return c.Fields[name]
}

// Store persists credentials for sync sources.
type Store interface {
	// Name identifies the store in logs and status output.
	Name() string

	// IsAvailable reports whether the backend can be used on this system.
	IsAvailable() bool

	Save(cred *Credential) error
	Retrieve(source string) (*Credential, error)
	Delete(source string) error
	List() ([]string, error)
}

// Manager resolves credentials through a chain of stores. Writes go to the
// first available store; reads fall through the chain in order, so an
// environment variable can override a keyring entry only if the environment
// store is placed first.
type Manager struct {
	stores []Store
	log    logger.Logger
}

// NewManager builds the default chain: OS keyring, then an encrypted file
// under the user data directory, then read-only environment variables.
func NewManager(log logger.Logger) (*Manager, error) {
	var stores []Store

	kr := NewKeyringStore()
	if kr.IsAvailable() {
		stores = append(stores, kr)
	} else {
		log.Debug("keyring backend unavailable, falling back to encrypted file store")
	}

	enc, err := NewEncryptedStore("")
	if err != nil {
		log.WithError(err).Warn("encrypted credential store unavailable")
	} else {
		stores = append(stores, enc)
	}

	stores = append(stores, NewEnvironmentStore())

	if len(stores) == 0 {
		return nil, fmt.Errorf("no credential store available")
	}
	return &Manager{stores: stores, log: log}, nil
}

// NewManagerWithStores builds a manager over an explicit chain.
func NewManagerWithStores(log logger.Logger, stores ...Store) *Manager {
	return &Manager{stores: stores, log: log}
}

// Save writes the credential to the first writable store in the chain.
func (m *Manager) Save(cred *Credential) error {
	if cred == nil || cred.Source == "" {
		return fmt.Errorf("credential source is required")
	}
	cred.Source = strings.ToLower(cred.Source)
	cred.UpdatedAt = time.Now()

	var lastErr error
	for _, s := range m.stores {
		if !s.IsAvailable() {
			continue
		}
		if err := s.Save(cred); err != nil {
			if err == ErrReadOnlyStore {
				continue
			}
			lastErr = err
			m.log.WithFields(map[string]interface{}{
				"store":  s.Name(),
				"source": cred.Source,
			}).WithError(err).Warn("credential save failed, trying next store")
			continue
		}
		m.log.WithFields(map[string]interface{}{
			"store":  s.Name(),
			"source": cred.Source,
		}).Debug("credential saved")
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("saving credential for %s: %w", cred.Source, lastErr)
	}
	return fmt.Errorf("no writable credential store for %s", cred.Source)
}

// Retrieve returns the credential for a source from the first store that
// has it.
func (m *Manager) Retrieve(source string) (*Credential, error) {
	source = strings.ToLower(source)
	for _, s := range m.stores {
		if !s.IsAvailable() {
			continue
		}
		cred, err := s.Retrieve(source)
		if err != nil {
			if err == ErrCredentialNotFound {
				continue
			}
			m.log.WithFields(map[string]interface{}{
				"store":  s.Name(),
				"source": source,
			}).WithError(err).Debug("credential retrieve failed, trying next store")
			continue
		}
		return cred, nil
	}
	return nil, ErrCredentialNotFound
}

// Delete removes the credential for a source from every store that holds it.
func (m *Manager) Delete(source string) error {
	source = strings.ToLower(source)
	deleted := false
	for _, s := range m.stores {
		if !s.IsAvailable() {
			continue
		}
		if err := s.Delete(source); err == nil {
			deleted = true
		} else if err != ErrCredentialNotFound && err != ErrReadOnlyStore {
			return fmt.Errorf("deleting credential for %s from %s: %w", source, s.Name(), err)
		}
	}
	if !deleted {
		return ErrCredentialNotFound
	}
	return nil
}

// List returns the union of sources with stored credentials, sorted.
func (m *Manager) List() ([]string, error) {
	seen := make(map[string]bool)
	for _, s := range m.stores {
		if !s.IsAvailable() {
			continue
		}
		sources, err := s.List()
		if err != nil {
			continue
		}
		for _, src := range sources {
			seen[src] = true
		}
	}
	out := make([]string, 0, len(seen))
	for src := range seen {
		out = append(out, src)
	}
	sort.Strings(out)
	return out, nil
}

// Stores reports which backends are in the chain and whether each is usable.
func (m *Manager) Stores() map[string]bool {
	out := make(map[string]bool, len(m.stores))
	for _, s := range m.stores {
		out[s.Name()] = s.IsAvailable()
	}
	return out
}
