package senderkey

import (
	"crypto/rand"
	"encoding/binary"

	"murmur/internal/crypto"
	"murmur/internal/domain"
	"murmur/internal/util/memzero"
)

// NewState creates our own ratchet state for a group: a random 32-byte
// seed chained once into the initial chain key, a fresh signing pair, and
// index 0. The raw seed is wiped and never stored or distributed.
func NewState(groupID string, sender domain.X25519Public) (domain.SenderKeyState, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return domain.SenderKeyState{}, err
	}
	ck := crypto.InitialChainKey(seed)
	memzero.Zero(seed[:])

	signPriv, signPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.SenderKeyState{}, err
	}
	return domain.SenderKeyState{
		GroupID:     groupID,
		SenderKey:   sender,
		ChainKey:    ck,
		Index:       0,
		SigningPub:  signPub,
		SigningPriv: signPriv,
	}, nil
}

// Bundle snapshots st for distribution. It exposes the current chain key
// and index, not the original seed, so re-broadcasting after sends never
// grants recipients access to earlier messages: a late joiner starts at
// the snapshot index and can only move forward.
func Bundle(st *domain.SenderKeyState) domain.SenderKeyBundle {
	return domain.SenderKeyBundle{
		GroupID:    st.GroupID,
		SenderKey:  st.SenderKey,
		SigningPub: st.SigningPub,
		ChainKey:   st.ChainKey,
		Index:      st.Index,
	}
}

// Encrypt seals plaintext at the current index, signs header‖ciphertext,
// and advances st. The AEAD nonce is prepended to the ciphertext so the
// receiver can recover it. Fails with domain.ErrNoSenderKeyState when st
// lacks its signing secret (it is not our send state).
func Encrypt(st *domain.SenderKeyState, plaintext []byte) (domain.GroupMessage, error) {
	if !st.HasSigningSecret() {
		return domain.GroupMessage{}, domain.ErrNoSenderKeyState
	}

	messageKey, next := crypto.ChainStep(st.ChainKey)
	nonce, ct, err := crypto.Seal(messageKey, plaintext)
	memzero.Zero(messageKey[:])
	if err != nil {
		return domain.GroupMessage{}, err
	}
	wire := append(nonce, ct...)

	msg := domain.GroupMessage{
		GroupID:    st.GroupID,
		SenderKey:  st.SenderKey,
		SigningPub: st.SigningPub,
		Index:      st.Index,
		Ciphertext: wire,
	}
	msg.Signature = crypto.SignEd25519(st.SigningPriv, signedBytes(&msg))

	st.ChainKey = next
	st.Index++
	return msg, nil
}

// Decrypt authenticates and opens msg against st, then advances st.
// Authentication precedes decryption: a bad signature never reaches the
// AEAD. The counter policy is strict successor — anything at or below the
// stored index is stale/duplicate, anything beyond it is from the future;
// both are rejected with st untouched.
func Decrypt(st *domain.SenderKeyState, msg *domain.GroupMessage) ([]byte, error) {
	header := domain.GroupMessage{
		GroupID:    msg.GroupID,
		SenderKey:  msg.SenderKey,
		SigningPub: st.SigningPub, // stored key, not the attacker-supplied one
		Index:      msg.Index,
		Ciphertext: msg.Ciphertext,
	}
	if !crypto.VerifyEd25519(st.SigningPub, signedBytes(&header), msg.Signature) {
		return nil, domain.ErrInvalidSignature
	}

	switch {
	case msg.Index < st.Index:
		return nil, domain.ErrStaleOrDuplicate
	case msg.Index > st.Index:
		return nil, domain.ErrFutureIndex
	}

	if len(msg.Ciphertext) < crypto.NonceBytes {
		return nil, domain.ErrAuthenticationFailure
	}
	nonce, ct := msg.Ciphertext[:crypto.NonceBytes], msg.Ciphertext[crypto.NonceBytes:]

	messageKey, next := crypto.ChainStep(st.ChainKey)
	pt, err := crypto.Open(messageKey, nonce, ct)
	memzero.Zero(messageKey[:])
	if err != nil {
		return nil, err
	}

	st.ChainKey = next
	st.Index++
	return pt, nil
}

// ApplyBundle installs a received bundle as the state for its sender. A
// bundle under the signing key already in use never rewinds a live chain:
// once the stored state has advanced past index 0, such a bundle is a
// stale copy or a replay and is ignored. A bundle under a different
// signing key announces a rotated chain and replaces the stored state,
// starting at the index the snapshot was taken at.
func ApplyBundle(existing *domain.SenderKeyState, exists bool, b domain.SenderKeyBundle) (domain.SenderKeyState, bool) {
	if exists && existing.Index > 0 && existing.SigningPub == b.SigningPub {
		return *existing, false
	}
	return domain.SenderKeyState{
		GroupID:    b.GroupID,
		SenderKey:  b.SenderKey,
		ChainKey:   b.ChainKey,
		Index:      b.Index,
		SigningPub: b.SigningPub,
	}, true
}

// signedBytes builds the canonical byte string covered by the message
// signature: a fixed prefix, the length-delimited group ID, the sender and
// signing keys, the counter, and the ciphertext. Binding all of these
// means a signature cannot be replayed under another group or counter.
func signedBytes(m *domain.GroupMessage) []byte {
	out := make([]byte, 0, 16+4+len(m.GroupID)+32+32+4+len(m.Ciphertext))
	out = append(out, "murmur/senderkey"...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(m.GroupID)))
	out = append(out, m.GroupID...)
	out = append(out, m.SenderKey[:]...)
	out = append(out, m.SigningPub[:]...)
	out = binary.BigEndian.AppendUint32(out, m.Index)
	out = append(out, m.Ciphertext...)
	return out
}
