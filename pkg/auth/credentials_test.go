package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	profile := &Profile{
		Name:         "personal",
		ClientID:     "abcdef0123456",
		ClientSecret: "0123456789abcdef0123456789abcdef",
	}
	require.NoError(t, manager.Store(profile))
	assert.False(t, profile.LastModified.IsZero())

	retrieved, err := manager.Retrieve("personal")
	require.NoError(t, err)
	assert.Equal(t, profile.ClientID, retrieved.ClientID)
	assert.Equal(t, profile.ClientSecret, retrieved.ClientSecret)

	profiles, err := manager.List()
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	require.NoError(t, manager.Delete("personal"))
	_, err = manager.Retrieve("personal")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, mockStore.Count())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.ErrorIs(t, manager.Store(nil), ErrInvalidCredentials)
	assert.Error(t, manager.Store(&Profile{ClientSecret: "s"}))
	assert.Error(t, manager.Store(&Profile{ClientID: "id"}))

	p := &Profile{ClientID: "id", ClientSecret: "secret"}
	require.NoError(t, manager.Store(p))
	assert.Equal(t, DefaultProfile, p.Name)

	got, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "id", got.ClientID)
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	require.NoError(t, manager.Store(&Profile{Name: "p", ClientID: "id", ClientSecret: "secret"}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())

	working.StoreError = errors.New("disk full")
	assert.Error(t, manager.Store(&Profile{Name: "q", ClientID: "id", ClientSecret: "secret"}))
}

func TestManagerListPrefersNewest(t *testing.T) {
	older, newer := NewMockStore(), NewMockStore()
	now := time.Now()
	require.NoError(t, older.Store(&Profile{Name: "b", ClientID: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Profile{Name: "b", ClientID: "new", LastModified: now}))
	require.NoError(t, newer.Store(&Profile{Name: "a", ClientID: "a", LastModified: now}))

	profiles, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "a", profiles[0].Name)
	assert.Equal(t, "new", profiles[1].ClientID)
}

func TestManagerDeleteMissing(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())
	err := manager.Delete("ghost")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestSanitizeProfile(t *testing.T) {
	p := &Profile{Name: "x", ClientID: "short", ClientSecret: "0123456789abcdef"}
	s := SanitizeProfile(p)

	assert.Equal(t, "x", s.Name)
	assert.Equal(t, "********", s.ClientID)
	assert.Equal(t, "0123...cdef", s.ClientSecret)
	assert.Nil(t, SanitizeProfile(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("IMGURDL_PASSPHRASE", "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	profile := &Profile{Name: "enc", ClientID: "enc-id", ClientSecret: "enc-secret"}
	require.NoError(t, store.Store(profile))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "enc-secret", "secrets must not be stored in clear text")

	retrieved, err := store.Retrieve("enc")
	require.NoError(t, err)
	assert.Equal(t, "enc-secret", retrieved.ClientSecret)
	assert.True(t, store.Exists("enc"))

	// a fresh store with the same passphrase reads the same file
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	list, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete("enc"))
	assert.NoFileExists(t, path)
	assert.ErrorIs(t, store.Delete("enc"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("IMGURDL_PASSPHRASE", "right")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Profile{Name: "p", ClientID: "id", ClientSecret: "s"}))

	t.Setenv("IMGURDL_PASSPHRASE", "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("p")
	assert.Error(t, err)
}

func TestEncryptedFileStoreKeepsOtherProfiles(t *testing.T) {
	t.Setenv("IMGURDL_PASSPHRASE", "test_passphrase_123")
	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"))
	require.NoError(t, err)

	require.NoError(t, store.Store(&Profile{Name: "b", ClientID: "b-id", ClientSecret: "b-secret"}))
	require.NoError(t, store.Store(&Profile{Name: "a", ClientID: "a-id", ClientSecret: "a-secret"}))
	require.NoError(t, store.Store(&Profile{Name: "a", ClientID: "a-id-2", ClientSecret: "a-secret"}))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "a-id-2", list[0].ClientID)

	require.NoError(t, store.Delete("a"))
	assert.False(t, store.Exists("a"))
	assert.True(t, store.Exists("b"))
}

func TestEncryptedFileStoreEmpty(t *testing.T) {
	t.Setenv("IMGURDL_PASSPHRASE", "test_passphrase_123")
	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"))
	require.NoError(t, err)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = store.Retrieve("nobody")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv("IMGURDL_PASSPHRASE", "")
	dir := t.TempDir()

	_, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()
	t.Setenv("IMGURDL_CLIENT_ID", "")
	t.Setenv("IMGURDL_CLIENT_SECRET", "")

	assert.False(t, store.Exists(""))
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	t.Setenv("IMGURDL_CLIENT_ID", "env-id")
	t.Setenv("IMGURDL_CLIENT_SECRET", "env-secret")
	p, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env", p.Name)
	assert.Equal(t, "env-id", p.ClientID)
	assert.ErrorIs(t, store.Store(p), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Profile{Name: "work", ClientID: "w", ClientSecret: "ws"}))
	require.NoError(t, store.Store(&Profile{Name: "home", ClientID: "h", ClientSecret: "hs"}))
	require.NoError(t, store.Store(&Profile{Name: "home", ClientID: "h2", ClientSecret: "hs"}))

	profiles, err := store.List()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "home", profiles[0].Name)
	assert.Equal(t, "h2", profiles[0].ClientID)

	require.NoError(t, store.Delete("home"))
	assert.False(t, store.Exists("home"))
	assert.ErrorIs(t, store.Delete("home"), ErrCredentialsNotFound)

	profiles, err = store.List()
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestNewManagerInDir(t *testing.T) {
	keyring.MockInit()
	t.Setenv("IMGURDL_PASSPHRASE", "pass")
	t.Setenv("IMGURDL_CLIENT_ID", "")

	manager, err := NewManagerInDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, manager.Store(&Profile{Name: "k", ClientID: "id", ClientSecret: "secret"}))

	got, err := manager.Retrieve("k")
	require.NoError(t, err)
	assert.Equal(t, "id", got.ClientID)
}

func TestWriteRegistrationGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteRegistrationGuide(&buf)
	assert.Contains(t, buf.String(), RegistrationURL)
	assert.Contains(t, buf.String(), "imgur_client_id")
}
