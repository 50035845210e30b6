package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "profilesync"

	// keyringIndexKey holds a JSON list of sources so List works without
	// enumerating the system keyring.
	keyringIndexKey = "_index"
)

// KeyringStore keeps credentials in the operating system keyring.
type KeyringStore struct{}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Name() string {
	return "keyring"
}

// IsAvailable probes the keyring with a throwaway entry. Headless systems
// without a secret service will fail here and the manager moves on.
func (s *KeyringStore) IsAvailable() bool {
	const probe = "_availability_probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probe)
	return true
}

func (s *KeyringStore) Save(cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	if err := keyring.Set(keyringService, cred.Source, string(data)); err != nil {
		return fmt.Errorf("writing to keyring: %w", err)
	}
	return s.addToIndex(cred.Source)
}

func (s *KeyringStore) Retrieve(source string) (*Credential, error) {
	data, err := keyring.Get(keyringService, source)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("reading from keyring: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	return &cred, nil
}

func (s *KeyringStore) Delete(source string) error {
	if err := keyring.Delete(keyringService, source); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialNotFound
		}
		return fmt.Errorf("deleting from keyring: %w", err)
	}
	return s.removeFromIndex(source)
}

func (s *KeyringStore) List() ([]string, error) {
	return s.readIndex()
}

func (s *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndexKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var sources []string
	if err := json.Unmarshal([]byte(data), &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *KeyringStore) writeIndex(sources []string) error {
	data, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringIndexKey, string(data))
}

func (s *KeyringStore) addToIndex(source string) error {
	sources, err := s.readIndex()
	if err != nil {
		return err
	}
	for _, src := range sources {
		if strings.EqualFold(src, source) {
			return nil
		}
	}
	return s.writeIndex(append(sources, source))
}

func (s *KeyringStore) removeFromIndex(source string) error {
	sources, err := s.readIndex()
	if err != nil {
		return err
	}
	out := sources[:0]
	for _, src := range sources {
		if !strings.EqualFold(src, source) {
			out = append(out, src)
		}
	}
	return s.writeIndex(out)
}
