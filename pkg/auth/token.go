package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	xerrors "xscraper/pkg/errors"
)

// EnvTokenVar is the environment variable holding the API bearer token.
const EnvTokenVar = "XSCRAPER_API_TOKEN"

// TokenStore is the interface for storing and retrieving the API bearer token
type TokenStore interface {
	// Store saves the token
	Store(token string) error

	// Retrieve gets the stored token
	Retrieve() (string, error)

	// Delete removes the stored token
	Delete() error

	// Exists checks whether a token is stored
	Exists() bool
}

// Manager resolves the bearer token through a chain of stores with fallback
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available storage backends.
// Resolution order: environment variable, system keyring, encrypted file.
func NewManager() (*Manager, error) {
	stores := []TokenStore{NewEnvironmentStore()}

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "token.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit store chain.
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Token returns the bearer token from the first store that has one.
// A fully empty chain is a config error, not a crash.
func (m *Manager) Token() (string, error) {
	for _, store := range m.stores {
		if token, err := store.Retrieve(); err == nil && token != "" {
			return token, nil
		}
	}
	return "", xerrors.Newf(xerrors.KindConfig,
		"no API token found: set %s or run 'xscraper auth login'", EnvTokenVar)
}

// Store saves the token to the first writable store. The environment store
// is read-only and skipped.
func (m *Manager) Store(token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	var lastErr error
	for _, store := range m.stores {
		if _, readonly := store.(*EnvironmentStore); readonly {
			continue
		}
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no writable token stores available")
}

// Delete removes the token from every writable store.
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if _, readonly := store.(*EnvironmentStore); readonly {
			continue
		}
		if err := store.Delete(); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return nil
}

// Exists reports whether any store holds a token.
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "xscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "xscraper")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "xscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "xscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrInvalidToken  = errors.New("invalid token")
)
