package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"murmur/internal/domain"
)

const (
	KeyBytes   = chacha20poly1305.KeySize
	NonceBytes = chacha20poly1305.NonceSizeX
)

// Seal encrypts plaintext under key with XChaCha20-Poly1305 and a fresh
// random 24-byte nonce. The nonce space is wide enough that random nonces
// never collide for any realistic message volume under one key.
func Seal(key [32]byte, plaintext []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return nonce, aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext and fails closed: on a wrong nonce length or a
// tag mismatch it returns domain.ErrAuthenticationFailure and no plaintext.
func Open(key [32]byte, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceBytes {
		return nil, domain.ErrAuthenticationFailure
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, domain.ErrAuthenticationFailure
	}
	return pt, nil
}
