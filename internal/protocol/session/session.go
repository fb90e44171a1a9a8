package session

import (
	"murmur/internal/crypto"
	"murmur/internal/domain"
)

// Derive computes the pairwise session key. Pure and idempotent:
// Derive(a, B) == Derive(b, A) for key pairs (a, A) and (b, B).
func Derive(mySecret domain.X25519Private, theirPublic domain.X25519Public) (domain.SessionKey, error) {
	shared, err := crypto.DH(mySecret, theirPublic)
	if err != nil {
		return domain.SessionKey{}, err
	}
	return domain.SessionKey(shared), nil
}

// Encrypt seals plaintext under the session key with a fresh random nonce.
// Callers never supply nonces.
func Encrypt(key domain.SessionKey, plaintext []byte) (nonce, ciphertext []byte, err error) {
	return crypto.Seal([32]byte(key), plaintext)
}

// Decrypt opens a session-layer ciphertext. Fails closed with
// domain.ErrAuthenticationFailure on tampering or a wrong key.
func Decrypt(key domain.SessionKey, nonce, ciphertext []byte) ([]byte, error) {
	return crypto.Open([32]byte(key), nonce, ciphertext)
}
