package auth

import "errors"

var (
	// ErrCredentialNotFound is returned when no store holds a credential
	// for the requested source.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrReadOnlyStore is returned by stores that cannot persist writes,
	// such as the environment variable store.
	ErrReadOnlyStore = errors.New("store is read-only")
)
