// Package senderkey implements the sender-key group ratchet.
//
// Each (group, sender) pair owns a chain key that advances by one one-way
// KDF step per message, a monotonically increasing message counter, and an
// Ed25519 signing pair identifying the sender's ratchet instance. One
// ciphertext is produced per group send and decrypted independently by
// every member; there is no per-recipient re-encryption.
//
// Functions here mutate state in memory only. Loading state before a call
// and persisting it after a successful one is the caller's job (see
// internal/services/group), and callers must serialise calls per
// (group, sender) — two concurrent advances would fork the chain.
package senderkey
