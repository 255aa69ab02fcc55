package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "xscraper/pkg/errors"
)

// memoryStore is a writable in-memory TokenStore for tests
type memoryStore struct {
	token string
}

func (m *memoryStore) Store(token string) error { m.token = token; return nil }
func (m *memoryStore) Delete() error            { m.token = ""; return nil }
func (m *memoryStore) Exists() bool             { return m.token != "" }
func (m *memoryStore) Retrieve() (string, error) {
	if m.token == "" {
		return "", ErrTokenNotFound
	}
	return m.token, nil
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(EnvTokenVar, "")
	store := NewEnvironmentStore()

	_, err := store.Retrieve()
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.False(t, store.Exists())

	t.Setenv(EnvTokenVar, "bearer-abc123")
	token, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "bearer-abc123", token)
	assert.True(t, store.Exists())

	// Read-only
	assert.Error(t, store.Store("x"))
	assert.Error(t, store.Delete())
}

func TestManagerResolutionOrder(t *testing.T) {
	t.Setenv(EnvTokenVar, "from-env")

	mgr := NewManagerWithStores(NewEnvironmentStore(), &memoryStore{token: "from-file"})
	token, err := mgr.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token, "environment wins over stored token")

	t.Setenv(EnvTokenVar, "")
	token, err = mgr.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)
}

func TestManagerTokenMissingIsConfigError(t *testing.T) {
	t.Setenv(EnvTokenVar, "")

	mgr := NewManagerWithStores(NewEnvironmentStore(), &memoryStore{})
	_, err := mgr.Token()
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
}

func TestManagerStoreSkipsEnvironment(t *testing.T) {
	mem := &memoryStore{}
	mgr := NewManagerWithStores(NewEnvironmentStore(), mem)

	require.NoError(t, mgr.Store("secret"))
	assert.Equal(t, "secret", mem.token)

	require.NoError(t, mgr.Delete())
	assert.False(t, mem.Exists())
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	t.Setenv("XSCRAPER_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "token.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = store.Retrieve()
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.Store("bearer-xyz"))
	assert.True(t, store.Exists())

	token, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "bearer-xyz", token)

	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.enc")

	t.Setenv("XSCRAPER_PASSPHRASE", "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store("bearer-xyz"))

	t.Setenv("XSCRAPER_PASSPHRASE", "second")
	store2, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = store2.Retrieve()
	assert.Error(t, err, "decryption with the wrong passphrase must fail")
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********", MaskToken("short"))
	assert.Equal(t, "AAAA...ZZZZ", MaskToken("AAAAbbbbccccZZZZ"))
}
