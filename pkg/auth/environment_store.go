package auth

import (
	"fmt"
	"os"
	"strings"
)

// knownSources lists the sources the environment store probes for. The
// environment cannot be enumerated by service, so List checks these.
var knownSources = []string{"instagram", "vsco", "neodb", "lastfm", "wakatime", "gist"}

// EnvironmentStore resolves credentials from PROFILESYNC_<SOURCE>_TOKEN
// variables. It is read-only; Save and Delete report ErrReadOnlyStore.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (s *EnvironmentStore) Name() string {
	return "environment"
}

func (s *EnvironmentStore) IsAvailable() bool {
	return true
}

func (s *EnvironmentStore) Save(cred *Credential) error {
	return ErrReadOnlyStore
}

func (s *EnvironmentStore) Delete(source string) error {
	return ErrReadOnlyStore
}

func (s *EnvironmentStore) Retrieve(source string) (*Credential, error) {
	token := os.Getenv(tokenVar(source))
	if token == "" {
		return nil, ErrCredentialNotFound
	}
	cred := &Credential{Source: strings.ToLower(source), Token: token}

	// Cookie-authenticated sources carry extra values alongside the token.
	if strings.EqualFold(source, "instagram") {
		if csrf := os.Getenv("PROFILESYNC_INSTAGRAM_CSRF_TOKEN"); csrf != "" {
			cred.Fields = map[string]string{"csrf_token": csrf}
		}
	}
	return cred, nil
}

func (s *EnvironmentStore) List() ([]string, error) {
	var sources []string
	for _, src := range knownSources {
		if os.Getenv(tokenVar(src)) != "" {
			sources = append(sources, src)
		}
	}
	return sources, nil
}

func tokenVar(source string) string {
	return fmt.Sprintf("PROFILESYNC_%s_TOKEN", strings.ToUpper(source))
}
