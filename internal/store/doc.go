// Package store provides murmur's persistence: the passphrase-encrypted
// identity file, a bbolt-backed store for sender-key ratchet state, groups
// and contacts, and an in-memory equivalent for tests.
//
// Records are JSON behind the domain store interfaces, so nothing above
// this package knows or cares which backend holds them.
package store
