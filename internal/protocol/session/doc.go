// Package session implements the pairwise session layer: a static
// symmetric key derived by X25519 from (our secret, their public), used
// with XChaCha20-Poly1305 and fresh random nonces.
//
// The derived key is symmetric — both peers compute the same value — and
// is never transmitted or persisted; it can always be re-derived. No prior
// relationship with the peer is required, which is what lets sender-key
// bundles reach strangers.
package session
