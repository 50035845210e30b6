package auth

import "sort"

// MockStore is an in-memory store for tests.
type MockStore struct {
	creds     map[string]*Credential
	available bool
	saveErr   error
}

func NewMockStore() *MockStore {
	return &MockStore{creds: make(map[string]*Credential), available: true}
}

func (s *MockStore) Name() string      { return "mock" }
func (s *MockStore) IsAvailable() bool { return s.available }

func (s *MockStore) SetAvailable(available bool) { s.available = available }
func (s *MockStore) SetSaveError(err error)      { s.saveErr = err }

func (s *MockStore) Save(cred *Credential) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.creds[cred.Source] = cred
	return nil
}

func (s *MockStore) Retrieve(source string) (*Credential, error) {
	cred, ok := s.creds[source]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return cred, nil
}

func (s *MockStore) Delete(source string) error {
	if _, ok := s.creds[source]; !ok {
		return ErrCredentialNotFound
	}
	delete(s.creds, source)
	return nil
}

func (s *MockStore) List() ([]string, error) {
	sources := make([]string, 0, len(s.creds))
	for src := range s.creds {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources, nil
}
