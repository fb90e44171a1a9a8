package group

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"murmur/internal/domain"
	"murmur/internal/protocol/senderkey"
	"murmur/internal/protocol/session"
)

// Group lifecycle events carried in group-event envelopes.
const (
	EventMemberAdded   = "member-added"
	EventMemberRemoved = "member-removed"
)

// ErrUnknownGroup is returned for operations on a group ID we hold no
// record for.
var ErrUnknownGroup = fmt.Errorf("unknown group")

// Service implements group membership, bundle distribution and the group
// message send/receive paths.
type Service struct {
	idStore    domain.IdentityStore
	senderKeys domain.SenderKeyStore
	groups     domain.GroupStore
	relay      domain.RelayClient

	chains *chainLocks
}

// New constructs a group service. relay may be nil for offline operation;
// operations that need it fail with domain.ErrTransportUnavailable.
func New(
	idStore domain.IdentityStore,
	senderKeys domain.SenderKeyStore,
	groups domain.GroupStore,
	relay domain.RelayClient,
) *Service {
	return &Service{
		idStore:    idStore,
		senderKeys: senderKeys,
		groups:     groups,
		relay:      relay,
		chains:     newChainLocks(),
	}
}

// Create makes a new group with ourselves as creator and sole member and
// initialises our sender state for it.
func (s *Service) Create(passphrase, name string) (domain.Group, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.Group{}, err
	}
	g := domain.Group{
		ID:      uuid.NewString(),
		Name:    name,
		Creator: id.XPub,
		Members: []domain.X25519Public{id.XPub},
	}
	if err := s.groups.SaveGroup(g); err != nil {
		return domain.Group{}, err
	}
	if _, err := s.EnsureSelfState(passphrase, g.ID); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

// Join records a group we were invited into. Our own sender state is
// created lazily on first send or when a bundle broadcast is requested.
func (s *Service) Join(g domain.Group) error {
	return s.groups.SaveGroup(g)
}

// Get loads a group record.
func (s *Service) Get(groupID string) (domain.Group, error) {
	g, ok, err := s.groups.LoadGroup(groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if !ok {
		return domain.Group{}, ErrUnknownGroup
	}
	return g, nil
}

// List returns every locally known group.
func (s *Service) List() ([]domain.Group, error) {
	return s.groups.ListGroups()
}

// AddMember adds pub to the group, sends the newcomer our current bundle
// so they can decrypt us from this point forward, and notifies existing
// members with a group-event.
func (s *Service) AddMember(ctx context.Context, passphrase, groupID string, pub domain.X25519Public) error {
	g, err := s.Get(groupID)
	if err != nil {
		return err
	}
	if g.HasMember(pub) {
		return nil
	}
	g.Members = append(g.Members, pub)
	if err := s.groups.SaveGroup(g); err != nil {
		return err
	}

	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return err
	}
	bundle, err := s.EnsureSelfState(passphrase, groupID)
	if err != nil {
		return err
	}
	if err := s.sendBundle(ctx, id, pub, bundle); err != nil {
		return err
	}
	return s.notify(ctx, id, g, pub, EventMemberAdded)
}

// RemoveMember drops pub from the group and rotates our sender key: the
// old chain dies with the removed member's copy of it, and the remaining
// members receive a fresh bundle.
func (s *Service) RemoveMember(ctx context.Context, passphrase, groupID string, pub domain.X25519Public) error {
	g, err := s.Get(groupID)
	if err != nil {
		return err
	}
	kept := g.Members[:0]
	for _, m := range g.Members {
		if m != pub {
			kept = append(kept, m)
		}
	}
	g.Members = kept
	if err := s.groups.SaveGroup(g); err != nil {
		return err
	}

	// The removed member's state for us is now worthless to them only if
	// we stop using the chain they hold. Rotate and redistribute.
	if err := s.Rotate(ctx, passphrase, groupID); err != nil {
		return err
	}

	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return err
	}
	return s.notify(ctx, id, g, pub, EventMemberRemoved)
}

// EnsureSelfState returns a bundle for our own ratchet state in groupID,
// creating the state on first use. Idempotent: repeated calls snapshot the
// current chain key and are safe to re-broadcast.
func (s *Service) EnsureSelfState(passphrase, groupID string) (domain.SenderKeyBundle, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.SenderKeyBundle{}, err
	}

	unlock := s.chains.lock(chainID(groupID, id.XPub))
	defer unlock()

	st, ok, err := s.senderKeys.LoadSenderKey(groupID, id.XPub)
	if err != nil {
		return domain.SenderKeyBundle{}, err
	}
	if !ok {
		st, err = senderkey.NewState(groupID, id.XPub)
		if err != nil {
			return domain.SenderKeyBundle{}, err
		}
		if err := s.senderKeys.SaveSenderKey(st); err != nil {
			return domain.SenderKeyBundle{}, err
		}
	}
	if !st.HasSigningSecret() {
		// A self state without its signing secret is corrupt and cannot
		// sign sends; only a fresh state recovers it.
		return domain.SenderKeyBundle{}, domain.ErrNoSenderKeyState
	}
	return senderkey.Bundle(&st), nil
}

// Distribute unicasts our current bundle, pairwise-encrypted, to every
// other group member. Works for strangers: the session layer needs only
// their public key.
func (s *Service) Distribute(ctx context.Context, passphrase, groupID string) error {
	g, err := s.Get(groupID)
	if err != nil {
		return err
	}
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return err
	}
	bundle, err := s.EnsureSelfState(passphrase, groupID)
	if err != nil {
		return err
	}
	for _, member := range g.Members {
		if member == id.XPub {
			continue
		}
		if err := s.sendBundle(ctx, id, member, bundle); err != nil {
			return err
		}
	}
	return nil
}

// Rotate discards our sender state for groupID, creates a fresh one and
// redistributes it. Used on membership change; the fresh bundle carries a
// new signing key, which is what tells receivers to replace the chain
// they hold for us rather than treat the bundle as a replay.
func (s *Service) Rotate(ctx context.Context, passphrase, groupID string) error {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return err
	}

	unlock := s.chains.lock(chainID(groupID, id.XPub))
	if err := s.senderKeys.DeleteSenderKey(groupID, id.XPub); err != nil {
		unlock()
		return err
	}
	unlock()

	return s.Distribute(ctx, passphrase, groupID)
}

// Send encrypts plaintext once with our group ratchet and hands the relay
// a single group-message envelope listing every other member; the relay
// fans the identical payload out per recipient.
func (s *Service) Send(ctx context.Context, passphrase, groupID string, plaintext []byte) (domain.GroupMessage, error) {
	if s.relay == nil {
		return domain.GroupMessage{}, domain.ErrTransportUnavailable
	}
	g, err := s.Get(groupID)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.GroupMessage{}, err
	}

	unlock := s.chains.lock(chainID(groupID, id.XPub))
	defer unlock()

	st, ok, err := s.senderKeys.LoadSenderKey(groupID, id.XPub)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	if !ok {
		return domain.GroupMessage{}, domain.ErrNoSenderKeyState
	}

	msg, err := senderkey.Encrypt(&st, plaintext)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	// Persist the advanced chain before the ciphertext leaves the process.
	if err := s.senderKeys.SaveSenderKey(st); err != nil {
		return domain.GroupMessage{}, err
	}

	to := make(domain.Recipients, 0, len(g.Members))
	for _, member := range g.Members {
		if member != id.XPub {
			to = append(to, member.Hex())
		}
	}
	if len(to) == 0 {
		return msg, nil
	}
	env := domain.Envelope{
		Type:      domain.EnvGroupMessage,
		From:      id.XPub.Hex(),
		To:        to,
		GroupID:   groupID,
		Timestamp: time.Now().Unix(),
		Packet:    &msg,
	}
	return msg, s.relay.Send(ctx, env)
}

// Receive authenticates and decrypts one inbound group message, advancing
// and persisting the sender's chain only on success.
func (s *Service) Receive(msg *domain.GroupMessage) ([]byte, error) {
	unlock := s.chains.lock(chainID(msg.GroupID, msg.SenderKey))
	defer unlock()

	st, ok, err := s.senderKeys.LoadSenderKey(msg.GroupID, msg.SenderKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUnknownSender
	}

	pt, err := senderkey.Decrypt(&st, msg)
	if err != nil {
		return nil, err
	}
	if err := s.senderKeys.SaveSenderKey(st); err != nil {
		return nil, err
	}
	return pt, nil
}

// HandleBundle decrypts a sender-key envelope with the pairwise session
// key for its sender and applies the bundle. Stale or replayed bundles
// never rewind a chain that has already advanced.
func (s *Service) HandleBundle(passphrase string, env domain.Envelope) (domain.SenderKeyBundle, bool, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.SenderKeyBundle{}, false, err
	}
	sender, err := domain.ParseX25519Public(env.From)
	if err != nil {
		return domain.SenderKeyBundle{}, false, err
	}

	key, err := session.Derive(id.XPriv, sender)
	if err != nil {
		return domain.SenderKeyBundle{}, false, err
	}
	raw, err := session.Decrypt(key, env.Nonce, env.Ciphertext)
	if err != nil {
		return domain.SenderKeyBundle{}, false, err
	}
	var bundle domain.SenderKeyBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return domain.SenderKeyBundle{}, false, fmt.Errorf("%w: bundle payload", domain.ErrMalformedEnvelope)
	}
	// The bundle must describe the peer that encrypted it to us.
	if bundle.SenderKey != sender {
		return domain.SenderKeyBundle{}, false, domain.ErrBundleSenderMismatch
	}

	unlock := s.chains.lock(chainID(bundle.GroupID, bundle.SenderKey))
	defer unlock()

	existing, exists, err := s.senderKeys.LoadSenderKey(bundle.GroupID, bundle.SenderKey)
	if err != nil {
		return domain.SenderKeyBundle{}, false, err
	}
	st, applied := senderkey.ApplyBundle(&existing, exists, bundle)
	if applied {
		if err := s.senderKeys.SaveSenderKey(st); err != nil {
			return domain.SenderKeyBundle{}, false, err
		}
	}
	return bundle, applied, nil
}

// sendBundle pairwise-encrypts bundle to one recipient and unicasts it.
func (s *Service) sendBundle(ctx context.Context, id domain.Identity, to domain.X25519Public, bundle domain.SenderKeyBundle) error {
	if s.relay == nil {
		return domain.ErrTransportUnavailable
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	key, err := session.Derive(id.XPriv, to)
	if err != nil {
		return err
	}
	nonce, ct, err := session.Encrypt(key, raw)
	if err != nil {
		return err
	}
	env := domain.Envelope{
		Type:       domain.EnvSenderKey,
		From:       id.XPub.Hex(),
		To:         domain.Recipients{to.Hex()},
		Ciphertext: ct,
		Nonce:      nonce,
	}
	return s.relay.Send(ctx, env)
}

// notify fans a membership event out to the group (including the affected
// key, so a removed member learns about it).
func (s *Service) notify(ctx context.Context, id domain.Identity, g domain.Group, affected domain.X25519Public, event string) error {
	if s.relay == nil {
		return domain.ErrTransportUnavailable
	}
	to := domain.Recipients{affected.Hex()}
	for _, member := range g.Members {
		if member != id.XPub && member != affected {
			to = append(to, member.Hex())
		}
	}
	env := domain.Envelope{
		Type:    domain.EnvGroupEvent,
		From:    id.XPub.Hex(),
		To:      to,
		GroupID: g.ID,
		Event:   event,
	}
	return s.relay.Send(ctx, env)
}

func chainID(groupID string, sender domain.X25519Public) string {
	return groupID + "|" + sender.Hex()
}
