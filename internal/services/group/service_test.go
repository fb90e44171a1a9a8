package group_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"murmur/internal/crypto"
	"murmur/internal/domain"
	"murmur/internal/protocol/senderkey"
	"murmur/internal/protocol/session"
	"murmur/internal/services/group"
	"murmur/internal/store"
)

// identityStore is an in-memory domain.IdentityStore for one test actor.
type identityStore struct {
	id domain.Identity
}

func (s *identityStore) SaveIdentity(string, domain.Identity) error { return nil }
func (s *identityStore) LoadIdentity(string) (domain.Identity, error) {
	return s.id, nil
}

// captureRelay records sent envelopes instead of hitting a network.
type captureRelay struct {
	sent []domain.Envelope
}

func (r *captureRelay) Register(context.Context, string) error { return nil }
func (r *captureRelay) Send(_ context.Context, env domain.Envelope) error {
	r.sent = append(r.sent, env)
	return nil
}
func (r *captureRelay) Incoming() <-chan domain.Envelope { return nil }
func (r *captureRelay) Close() error                     { return nil }

// actor is one group member with their own stores and service instance.
type actor struct {
	id    domain.Identity
	svc   *group.Service
	relay *captureRelay
}

func newActor(t *testing.T) *actor {
	t.Helper()
	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	id := domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}
	mem := store.NewMemory()
	relay := &captureRelay{}
	return &actor{
		id:    id,
		svc:   group.New(&identityStore{id: id}, mem, mem, relay),
		relay: relay,
	}
}

const pass = "unused-in-fakes"

// deliverBundles feeds every sender-key envelope addressed to the actor
// into their service, as the listen loop would.
func deliverBundles(t *testing.T, from *actor, to *actor) {
	t.Helper()
	for _, env := range from.relay.sent {
		if env.Type != domain.EnvSenderKey {
			continue
		}
		for _, rcpt := range env.To {
			if rcpt != to.id.XPub.Hex() {
				continue
			}
			if _, _, err := to.svc.HandleBundle(pass, env); err != nil {
				t.Fatalf("HandleBundle: %v", err)
			}
		}
	}
}

func TestGroup_BootstrapAndMessage(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t)
	bob := newActor(t)
	charlie := newActor(t)

	g, err := alice.svc.Create(pass, "team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := alice.svc.AddMember(ctx, pass, g.ID, bob.id.XPub); err != nil {
		t.Fatalf("AddMember(bob): %v", err)
	}
	if err := alice.svc.AddMember(ctx, pass, g.ID, charlie.id.XPub); err != nil {
		t.Fatalf("AddMember(charlie): %v", err)
	}

	// Two independent pairwise-encrypted bundle envelopes went out.
	var bundles int
	for _, env := range alice.relay.sent {
		if env.Type == domain.EnvSenderKey {
			bundles++
		}
	}
	if bundles != 2 {
		t.Fatalf("bundle envelopes = %d, want 2", bundles)
	}

	deliverBundles(t, alice, bob)
	deliverBundles(t, alice, charlie)

	msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("Hello Team"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Index != 0 {
		t.Fatalf("first group message index = %d, want 0", msg.Index)
	}

	// Bob and Charlie independently decrypt the same ciphertext.
	for name, member := range map[string]*actor{"bob": bob, "charlie": charlie} {
		pt, err := member.svc.Receive(&msg)
		if err != nil {
			t.Fatalf("%s Receive: %v", name, err)
		}
		if !bytes.Equal(pt, []byte("Hello Team")) {
			t.Fatalf("%s got %q", name, pt)
		}
	}
}

func TestGroup_ReceiveWithoutBundle_UnknownSender(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t)
	bob := newActor(t)

	g, err := alice.svc.Create(pass, "team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := alice.svc.AddMember(ctx, pass, g.ID, bob.id.XPub); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("hi"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	// Bob never received the bundle.
	if _, err := bob.svc.Receive(&msg); !errors.Is(err, domain.ErrUnknownSender) {
		t.Fatalf("got %v, want ErrUnknownSender", err)
	}
}

func TestGroup_StaleBundleRejected(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t)
	bob := newActor(t)

	g, err := alice.svc.Create(pass, "team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := alice.svc.AddMember(ctx, pass, g.ID, bob.id.XPub); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	deliverBundles(t, alice, bob)

	// Advance Bob's copy of Alice's chain to index 3.
	for i := 0; i < 3; i++ {
		msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("m"))
		if err != nil {
			t.Fatalf("Send #%d: %v", i, err)
		}
		if _, err := bob.svc.Receive(&msg); err != nil {
			t.Fatalf("Receive #%d: %v", i, err)
		}
	}

	// Replaying the original index-0 bundle must change nothing.
	var replayed bool
	for _, env := range alice.relay.sent {
		if env.Type != domain.EnvSenderKey {
			continue
		}
		_, applied, err := bob.svc.HandleBundle(pass, env)
		if err != nil {
			t.Fatalf("HandleBundle replay: %v", err)
		}
		if applied {
			t.Fatal("stale bundle was applied over an advanced chain")
		}
		replayed = true
	}
	if !replayed {
		t.Fatal("no bundle envelope to replay")
	}

	// The chain continues from index 3.
	msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("still going"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Index != 3 {
		t.Fatalf("index = %d, want 3", msg.Index)
	}
	if pt, err := bob.svc.Receive(&msg); err != nil || !bytes.Equal(pt, []byte("still going")) {
		t.Fatalf("Receive after replay: %q, %v", pt, err)
	}
}

func TestGroup_RemoveMemberRotatesSenderKey(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t)
	bob := newActor(t)
	mallory := newActor(t)

	g, err := alice.svc.Create(pass, "team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, m := range []*actor{bob, mallory} {
		if err := alice.svc.AddMember(ctx, pass, g.ID, m.id.XPub); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
	}
	deliverBundles(t, alice, bob)
	deliverBundles(t, alice, mallory)

	oldBundle, err := alice.svc.EnsureSelfState(pass, g.ID)
	if err != nil {
		t.Fatalf("EnsureSelfState: %v", err)
	}

	if err := alice.svc.RemoveMember(ctx, pass, g.ID, mallory.id.XPub); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	newBundle, err := alice.svc.EnsureSelfState(pass, g.ID)
	if err != nil {
		t.Fatalf("EnsureSelfState after rotate: %v", err)
	}
	if newBundle.ChainKey == oldBundle.ChainKey {
		t.Fatal("chain key not rotated on member removal")
	}
	if newBundle.SigningPub == oldBundle.SigningPub {
		t.Fatal("signing key not rotated on member removal")
	}

	// Bob picks up the fresh bundle and keeps decrypting; Mallory's old
	// state no longer matches Alice's sends.
	deliverBundles(t, alice, bob)
	msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("post-rotation"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if pt, err := bob.svc.Receive(&msg); err != nil || !bytes.Equal(pt, []byte("post-rotation")) {
		t.Fatalf("bob after rotation: %q, %v", pt, err)
	}
	if _, err := mallory.svc.Receive(&msg); err == nil {
		t.Fatal("removed member still decrypts after rotation")
	}

	// Mallory is gone from the membership record.
	got, err := alice.svc.Get(g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.HasMember(mallory.id.XPub) {
		t.Fatal("removed member still listed")
	}
}

func TestGroup_RotateAfterTraffic_ReceiverRecovers(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t)
	bob := newActor(t)
	mallory := newActor(t)

	g, err := alice.svc.Create(pass, "team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, m := range []*actor{bob, mallory} {
		if err := alice.svc.AddMember(ctx, pass, g.ID, m.id.XPub); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
	}
	deliverBundles(t, alice, bob)

	// Bob's copy of Alice's chain advances well past zero before the rotation.
	for i := 0; i < 2; i++ {
		msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("m"))
		if err != nil {
			t.Fatalf("Send #%d: %v", i, err)
		}
		if _, err := bob.svc.Receive(&msg); err != nil {
			t.Fatalf("Receive #%d: %v", i, err)
		}
	}

	if err := alice.svc.RemoveMember(ctx, pass, g.ID, mallory.id.XPub); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	// Replaying Alice's full bundle history leaves Bob on the rotated chain:
	// the old bundle cannot rewind his advanced state, the new one replaces it.
	deliverBundles(t, alice, bob)
	msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("post-rotation"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Index != 0 {
		t.Fatalf("rotated chain index = %d, want 0", msg.Index)
	}
	if pt, err := bob.svc.Receive(&msg); err != nil || !bytes.Equal(pt, []byte("post-rotation")) {
		t.Fatalf("bob after rotation: %q, %v", pt, err)
	}
}

func TestGroup_LateJoinerDecryptsFromJoinPoint(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t)
	bob := newActor(t)
	dave := newActor(t)

	g, err := alice.svc.Create(pass, "team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := alice.svc.AddMember(ctx, pass, g.ID, bob.id.XPub); err != nil {
		t.Fatalf("AddMember(bob): %v", err)
	}
	deliverBundles(t, alice, bob)

	// Three messages of prior traffic before Dave exists.
	var early domain.GroupMessage
	for i := 0; i < 3; i++ {
		early, err = alice.svc.Send(ctx, pass, g.ID, []byte("history"))
		if err != nil {
			t.Fatalf("Send #%d: %v", i, err)
		}
		if _, err := bob.svc.Receive(&early); err != nil {
			t.Fatalf("Receive #%d: %v", i, err)
		}
	}

	// Dave joins mid-conversation and gets a bundle snapshotting the chain
	// at index 3.
	if err := alice.svc.AddMember(ctx, pass, g.ID, dave.id.XPub); err != nil {
		t.Fatalf("AddMember(dave): %v", err)
	}
	deliverBundles(t, alice, dave)

	msg, err := alice.svc.Send(ctx, pass, g.ID, []byte("welcome"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Index != 3 {
		t.Fatalf("index = %d, want 3", msg.Index)
	}
	if pt, err := dave.svc.Receive(&msg); err != nil || !bytes.Equal(pt, []byte("welcome")) {
		t.Fatalf("dave's first message: %q, %v", pt, err)
	}

	// Traffic from before the join stays out of reach.
	if _, err := dave.svc.Receive(&early); !errors.Is(err, domain.ErrStaleOrDuplicate) {
		t.Fatalf("pre-join message: got %v, want ErrStaleOrDuplicate", err)
	}
}

func TestGroup_HandleBundle_SenderMismatchRejected(t *testing.T) {
	alice := newActor(t)
	bob := newActor(t)
	mallory := newActor(t)

	// Mallory session-encrypts a bundle to Bob that claims to describe
	// Alice's chain.
	st, err := senderkey.NewState("g1", alice.id.XPub)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	raw, err := json.Marshal(senderkey.Bundle(&st))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	key, err := session.Derive(mallory.id.XPriv, bob.id.XPub)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	nonce, ct, err := session.Encrypt(key, raw)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	env := domain.Envelope{
		Type:       domain.EnvSenderKey,
		From:       mallory.id.XPub.Hex(),
		To:         domain.Recipients{bob.id.XPub.Hex()},
		Ciphertext: ct,
		Nonce:      nonce,
	}

	_, applied, err := bob.svc.HandleBundle(pass, env)
	if !errors.Is(err, domain.ErrBundleSenderMismatch) {
		t.Fatalf("got %v, want ErrBundleSenderMismatch", err)
	}
	if applied {
		t.Fatal("mismatched bundle was applied")
	}
	// Nothing was stored under Alice's key.
	msg, err := senderkey.Encrypt(&st, []byte("m"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := bob.svc.Receive(&msg); !errors.Is(err, domain.ErrUnknownSender) {
		t.Fatalf("got %v, want ErrUnknownSender", err)
	}
}

func TestGroup_EnsureSelfState_Idempotent(t *testing.T) {
	alice := newActor(t)
	g, err := alice.svc.Create(pass, "team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	b1, err := alice.svc.EnsureSelfState(pass, g.ID)
	if err != nil {
		t.Fatalf("EnsureSelfState: %v", err)
	}
	b2, err := alice.svc.EnsureSelfState(pass, g.ID)
	if err != nil {
		t.Fatalf("EnsureSelfState: %v", err)
	}
	if b1 != b2 {
		t.Fatal("repeated EnsureSelfState changed the bundle")
	}
}
