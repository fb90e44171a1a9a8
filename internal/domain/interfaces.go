package domain

import "context"

// IdentityStore persists the long-term identity keys, encrypted at rest
// with a passphrase-derived key.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// SenderKeyStore keeps one ratchet state per (group, sender). Load returns
// ok=false when no state exists yet (the sender's bundle has not arrived).
type SenderKeyStore interface {
	SaveSenderKey(state SenderKeyState) error
	LoadSenderKey(groupID string, sender X25519Public) (SenderKeyState, bool, error)
	DeleteSenderKey(groupID string, sender X25519Public) error
}

// GroupStore persists group membership records.
type GroupStore interface {
	SaveGroup(g Group) error
	LoadGroup(id string) (Group, bool, error)
	ListGroups() ([]Group, error)
}

// ContactStore persists named peers.
type ContactStore interface {
	SaveContact(c Contact) error
	LoadContact(name string) (Contact, bool, error)
	ListContacts() ([]Contact, error)
}

// RelayClient is one live connection to the relay. Send is fire-and-forget:
// the relay drops envelopes for offline recipients and this layer never
// retries. Incoming delivers frames addressed to the registered key until
// the connection closes.
type RelayClient interface {
	Register(ctx context.Context, publicKey string) error
	Send(ctx context.Context, env Envelope) error
	Incoming() <-chan Envelope
	Close() error
}
