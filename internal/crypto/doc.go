// Package crypto exposes the primitives the murmur core is built on.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - XChaCha20-Poly1305 sealing with fresh random nonces (Seal, Open)
//   - The one-way chain KDF used by the sender-key ratchet (ChainStep)
//   - Short public-key fingerprints for display (Fingerprint)
//
// Everything here is stateless. Key material uses the fixed-size array
// types from internal/domain; callers should wipe derived secrets with
// internal/util/memzero when practical.
package crypto
