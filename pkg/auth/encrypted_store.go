package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	keySize          = 32
	saltSize         = 32

	// passphraseEnvVar lets automated environments supply the file
	// encryption passphrase without a generated file on disk.
	passphraseEnvVar = "PROFILESYNC_PASSPHRASE"
)

// EncryptedStore keeps credentials in a single AES-GCM encrypted file.
// The key is derived with PBKDF2 from a passphrase taken from the
// environment or from a generated passphrase file next to the store.
type EncryptedStore struct {
	path       string
	saltPath   string
	passphrase string
}

// NewEncryptedStore creates a store rooted at dir. An empty dir places it
// under the user config directory.
func NewEncryptedStore(dir string) (*EncryptedStore, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		dir = filepath.Join(configDir, "profilesync")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating credential directory: %w", err)
	}

	s := &EncryptedStore{
		path:     filepath.Join(dir, "credentials.enc"),
		saltPath: filepath.Join(dir, ".salt"),
	}
	passphrase, err := s.loadPassphrase(dir)
	if err != nil {
		return nil, err
	}
	s.passphrase = passphrase
	return s, nil
}

func (s *EncryptedStore) Name() string {
	return "encrypted-file"
}

func (s *EncryptedStore) IsAvailable() bool {
	return s.passphrase != ""
}

func (s *EncryptedStore) Save(cred *Credential) error {
	creds, err := s.load()
	if err != nil {
		return err
	}
	creds[cred.Source] = cred
	return s.persist(creds)
}

func (s *EncryptedStore) Retrieve(source string) (*Credential, error) {
	creds, err := s.load()
	if err != nil {
		return nil, err
	}
	cred, ok := creds[source]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return cred, nil
}

func (s *EncryptedStore) Delete(source string) error {
	creds, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := creds[source]; !ok {
		return ErrCredentialNotFound
	}
	delete(creds, source)
	return s.persist(creds)
}

func (s *EncryptedStore) List() ([]string, error) {
	creds, err := s.load()
	if err != nil {
		return nil, err
	}
	sources := make([]string, 0, len(creds))
	for src := range creds {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources, nil
}

func (s *EncryptedStore) load() (map[string]*Credential, error) {
	ciphertext, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Credential), nil
		}
		return nil, fmt.Errorf("reading credential file: %w", err)
	}
	plaintext, err := s.decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting credential file: %w", err)
	}
	var creds map[string]*Credential
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("decoding credential file: %w", err)
	}
	return creds, nil
}

func (s *EncryptedStore) persist(creds map[string]*Credential) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	ciphertext, err := s.encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, ciphertext, 0600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing credential file: %w", err)
	}
	return nil
}

func (s *EncryptedStore) encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := s.cipher()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *EncryptedStore) decrypt(data []byte) ([]byte, error) {
	gcm, err := s.cipher()
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (s *EncryptedStore) cipher() (cipher.AEAD, error) {
	salt, err := s.loadSalt()
	if err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(s.passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *EncryptedStore) loadSalt() ([]byte, error) {
	salt, err := os.ReadFile(s.saltPath)
	if err == nil && len(salt) == saltSize {
		return salt, nil
	}
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	if err := os.WriteFile(s.saltPath, salt, 0600); err != nil {
		return nil, fmt.Errorf("writing salt file: %w", err)
	}
	return salt, nil
}

func (s *EncryptedStore) loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(passphraseEnvVar); pass != "" {
		return pass, nil
	}
	passPath := filepath.Join(dir, ".passphrase")
	if data, err := os.ReadFile(passPath); err == nil && len(data) > 0 {
		return string(data), nil
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating passphrase: %w", err)
	}
	pass := fmt.Sprintf("%x", raw)
	if err := os.WriteFile(passPath, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("writing passphrase file: %w", err)
	}
	return pass, nil
}
