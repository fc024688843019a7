package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	vaultVersion     = 1
	vaultSaltSize    = 32
	vaultKeySize     = 32
	vaultKDFRounds   = 100000
	passphraseEnvVar = "IMGURDL_PASSPHRASE"
)

// EncryptedFileStore keeps profiles in a single AES-GCM sealed file. The key
// is derived with PBKDF2 from IMGURDL_PASSPHRASE, or from a random passphrase
// generated once into .passphrase next to the file.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.Mutex
}

// vaultFile is the on-disk layout; []byte fields are base64 in JSON
type vaultFile struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Sealed  []byte `json:"sealed"`
}

type profileSet map[string]Profile

// NewEncryptedFileStore opens the store at path, creating its directory
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := loadPassphrase(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Store(profile *Profile) error {
	if profile == nil || profile.Name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(set profileSet) error {
		set[profile.Name] = *profile
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(name string) (*Profile, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	set, err := e.read()
	if err != nil {
		return nil, err
	}
	p, ok := set[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &p, nil
}

func (e *EncryptedFileStore) List() ([]*Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, err := e.read()
	if err != nil {
		return nil, err
	}
	profiles := make([]*Profile, 0, len(set))
	for _, p := range set {
		p := p
		profiles = append(profiles, &p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Delete removes a profile. The file goes away with its last profile.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(set profileSet) error {
		if _, ok := set[name]; !ok {
			return ErrCredentialsNotFound
		}
		delete(set, name)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

func (e *EncryptedFileStore) update(change func(profileSet) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, err := e.read()
	if err != nil {
		return err
	}
	if err := change(set); err != nil {
		return err
	}
	if len(set) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return e.write(set)
}

// read returns an empty set when the file does not exist yet
func (e *EncryptedFileStore) read() (profileSet, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return profileSet{}, nil
	}
	if err != nil {
		return nil, err
	}

	var vf vaultFile
	if err := json.Unmarshal(content, &vf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.path, err)
	}
	if vf.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported credential file version %d", vf.Version)
	}

	aead, err := e.aead(vf.Salt)
	if err != nil {
		return nil, err
	}
	if len(vf.Sealed) < aead.NonceSize() {
		return nil, errors.New("credential file is truncated")
	}
	nonce, sealed := vf.Sealed[:aead.NonceSize()], vf.Sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	set := profileSet{}
	if err := json.Unmarshal(plain, &set); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	return set, nil
}

// write seals set under a fresh salt and nonce and replaces the file
func (e *EncryptedFileStore) write(set profileSet) error {
	plain, err := json.Marshal(set)
	if err != nil {
		return err
	}

	salt := make([]byte, vaultSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	aead, err := e.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	content, err := json.MarshalIndent(vaultFile{
		Version: vaultVersion,
		Salt:    salt,
		Sealed:  aead.Seal(nonce, nonce, plain, nil),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func (e *EncryptedFileStore) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(e.passphrase), salt, vaultKDFRounds, vaultKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase prefers the environment, then dir/.passphrase, creating
// that file with a random value on first use
func loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(passphraseEnvVar); pass != "" {
		return pass, nil
	}

	file := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(file); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(file, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
