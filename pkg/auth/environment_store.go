package auth

import "os"

// EnvironmentStore reads the token from the environment. It is the first
// store in the resolution chain and is read-only; Store and Delete report
// ErrInvalidToken so the Manager falls through to a writable backend.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Retrieve gets the token from the environment
func (s *EnvironmentStore) Retrieve() (string, error) {
	token := os.Getenv(EnvTokenVar)
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Store is not supported for environment variables
func (s *EnvironmentStore) Store(token string) error {
	return ErrInvalidToken
}

// Delete is not supported for environment variables
func (s *EnvironmentStore) Delete() error {
	return ErrInvalidToken
}

// Exists checks whether the environment variable is set
func (s *EnvironmentStore) Exists() bool {
	return os.Getenv(EnvTokenVar) != ""
}
