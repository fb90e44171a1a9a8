// Package contact keeps the local address book. Contacts are a naming
// convenience only — the crypto layers work from raw public keys and never
// require a prior contact entry.
package contact

import (
	"fmt"

	"murmur/internal/domain"
)

// Service adds and resolves named peers.
type Service struct {
	store domain.ContactStore
}

// New returns a contact service backed by the given store.
func New(s domain.ContactStore) *Service { return &Service{store: s} }

// Add stores a contact under name. The key must be a 64-char hex X25519
// public key.
func (s *Service) Add(name, pubHex string) (domain.Contact, error) {
	if name == "" {
		return domain.Contact{}, fmt.Errorf("contact name required")
	}
	pub, err := domain.ParseX25519Public(pubHex)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("invalid public key: %w", err)
	}
	c := domain.Contact{Name: name, Pub: pub}
	if err := s.store.SaveContact(c); err != nil {
		return domain.Contact{}, err
	}
	return c, nil
}

// Resolve accepts either a contact name or a raw hex public key.
func (s *Service) Resolve(nameOrKey string) (domain.X25519Public, error) {
	if c, ok, err := s.store.LoadContact(nameOrKey); err != nil {
		return domain.X25519Public{}, err
	} else if ok {
		return c.Pub, nil
	}
	return domain.ParseX25519Public(nameOrKey)
}

// List returns every stored contact.
func (s *Service) List() ([]domain.Contact, error) {
	return s.store.ListContacts()
}
