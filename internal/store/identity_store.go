package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"murmur/internal/domain"
	"murmur/internal/util/memzero"
)

const (
	idFilename = "identity.json.enc"
	saltBytes  = 16
)

var errCorruptIdentityFile = errors.New("identity file too short")

// IdentityFileStore persists the local identity encrypted at rest.
// File layout: salt ‖ nonce ‖ ciphertext, mode 0600.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir}
}

// SaveIdentity encrypts id with a passphrase-derived key and writes it via
// a temp file and rename.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	kek := deriveKEK(passphrase, salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	blob := append(append(salt, nonce...), aead.Seal(nil, nonce, raw, nil)...)

	path := filepath.Join(s.dir, idFilename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadIdentity reads and decrypts the identity. A wrong passphrase fails
// the AEAD open and returns an error without partial output.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(filepath.Join(s.dir, idFilename))
	if err != nil {
		return domain.Identity{}, err
	}
	if len(blob) < saltBytes+chacha20poly1305.NonceSizeX {
		return domain.Identity{}, errCorruptIdentityFile
	}
	salt := blob[:saltBytes]
	nonce := blob[saltBytes : saltBytes+chacha20poly1305.NonceSizeX]
	ct := blob[saltBytes+chacha20poly1305.NonceSizeX:]

	kek := deriveKEK(passphrase, salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return domain.Identity{}, err
	}
	raw, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(raw)

	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// deriveKEK derives the key-encryption key with Argon2id.
func deriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 1<<16, 8, chacha20poly1305.KeySize)
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
