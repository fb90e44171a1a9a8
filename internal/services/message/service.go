// Package message sends and receives 1:1 messages over the pairwise
// session layer. Each direct message is sealed under the static session
// key for (us, peer) with a fresh nonce; the relay forwards the envelope
// verbatim or drops it if the peer is offline.
package message

import (
	"context"
	"time"

	"murmur/internal/domain"
	"murmur/internal/protocol/session"
)

// Service encrypts outbound and decrypts inbound direct messages.
type Service struct {
	idStore domain.IdentityStore
	relay   domain.RelayClient
}

// New constructs a message service. relay may be nil for offline use;
// Send then fails with domain.ErrTransportUnavailable.
func New(idStore domain.IdentityStore, relay domain.RelayClient) *Service {
	return &Service{idStore: idStore, relay: relay}
}

// Send seals plaintext for peer and posts one message envelope. Delivery
// is fire-and-forget: an offline peer silently receives nothing.
func (s *Service) Send(ctx context.Context, passphrase string, peer domain.X25519Public, plaintext []byte) error {
	if s.relay == nil {
		return domain.ErrTransportUnavailable
	}
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return err
	}
	key, err := session.Derive(id.XPriv, peer)
	if err != nil {
		return err
	}
	nonce, ct, err := session.Encrypt(key, plaintext)
	if err != nil {
		return err
	}
	env := domain.Envelope{
		Type:       domain.EnvMessage,
		From:       id.XPub.Hex(),
		To:         domain.Recipients{peer.Hex()},
		Ciphertext: ct,
		Nonce:      nonce,
		Timestamp:  time.Now().Unix(),
	}
	return s.relay.Send(ctx, env)
}

// Open decrypts one inbound message envelope with the session key for its
// sender. Fails closed on tampering or a wrong key.
func (s *Service) Open(passphrase string, env domain.Envelope) ([]byte, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	sender, err := domain.ParseX25519Public(env.From)
	if err != nil {
		return nil, err
	}
	key, err := session.Derive(id.XPriv, sender)
	if err != nil {
		return nil, err
	}
	return session.Decrypt(key, env.Nonce, env.Ciphertext)
}
