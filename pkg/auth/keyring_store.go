package auth

import (
	"fmt"
	"runtime"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "xscraper"
	keyringUser    = "x_api_token"
)

// KeyringStore stores the token in the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store, probing that the keyring
// is actually usable on this system first.
func NewKeyringStore() (*KeyringStore, error) {
	// Headless Linux boxes frequently have no secret service running.
	probe := keyringService + "_probe"
	if err := keyring.Set(probe, "probe", "ok"); err != nil {
		return nil, fmt.Errorf("keyring unavailable on %s: %w", runtime.GOOS, err)
	}
	_ = keyring.Delete(probe, "probe")

	return &KeyringStore{}, nil
}

// Store saves the token to the system keychain
func (s *KeyringStore) Store(token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// Retrieve gets the token from the system keychain
func (s *KeyringStore) Retrieve() (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read token from keyring: %w", err)
	}
	return token, nil
}

// Delete removes the token from the system keychain
func (s *KeyringStore) Delete() error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil {
		if err == keyring.ErrNotFound {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// Exists checks whether a token is stored in the keychain
func (s *KeyringStore) Exists() bool {
	_, err := s.Retrieve()
	return err == nil
}
