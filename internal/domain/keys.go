package domain

import "encoding/hex"

// X25519Public is a Curve25519 public key. Its hex form doubles as the
// routing address a peer registers under at the relay.
type X25519Public [32]byte

func (p X25519Public) Slice() []byte { return p[:] }

// Hex returns the lowercase hex encoding used on the wire and as store keys.
func (p X25519Public) Hex() string { return hex.EncodeToString(p[:]) }

// ParseX25519Public decodes a 64-char hex string into a public key.
func ParseX25519Public(s string) (X25519Public, error) {
	var p X25519Public
	b, err := hex.DecodeString(s)
	if err != nil {
		return p, ErrInvalidPublicKey
	}
	if len(b) != len(p) {
		return p, ErrInvalidPublicKey
	}
	copy(p[:], b)
	return p, nil
}

// X25519Private is a Curve25519 private key (clamped per RFC 7748).
type X25519Private [32]byte

func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is a signing public key.
type Ed25519Public [32]byte

func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is a signing private key (ed25519.PrivateKey layout:
// seed followed by the public key).
type Ed25519Private [64]byte

func (k Ed25519Private) Slice() []byte { return k[:] }

// SessionKey is a pairwise symmetric key derived by ECDH. It is never
// transmitted and can always be re-derived, so it is never persisted.
type SessionKey [32]byte

// ChainKey is the evolving secret of a sender-key ratchet. The value at
// index i is a one-way function of the value at index i-1.
type ChainKey [32]byte

// Identity holds the long-term keys of the local user: an X25519 pair for
// Diffie-Hellman and an independent Ed25519 pair. The Ed25519 pair here is
// reserved for identity-level signatures; group ratchets generate their own
// per-(identity, group) signing pairs and never reuse these.
type Identity struct {
	XPub   X25519Public
	XPriv  X25519Private
	EdPub  Ed25519Public
	EdPriv Ed25519Private
}

// Fingerprint is a short display form of a public key.
type Fingerprint string
