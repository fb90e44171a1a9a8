package domain

// SenderKeyState is the per-(group, sender) ratchet state. Exactly one
// exists locally for each sender we can decrypt in each group; the copy
// for our own sends additionally carries the signing secret.
type SenderKeyState struct {
	GroupID   string       `json:"group_id"`
	SenderKey X25519Public `json:"sender_key"`

	// ChainKey advances by one KDF step per message processed for this
	// sender. It is never reused across two distinct messages.
	ChainKey ChainKey `json:"chain_key"`

	// Index is the next message counter expected (receive side) or to be
	// used (send side). Starts at 0.
	Index uint32 `json:"index"`

	// SigningPub identifies this sender's ratchet instance. Stable for
	// the life of the membership; exchanged via bundles, never re-derived.
	SigningPub Ed25519Public `json:"signing_pub"`

	// SigningPriv is present only in the sender's own copy of their own
	// state. Zero in every other member's copy.
	SigningPriv Ed25519Private `json:"signing_priv,omitempty"`
}

// HasSigningSecret reports whether this state can produce signatures,
// i.e. whether it is our own send state.
func (s *SenderKeyState) HasSigningSecret() bool {
	return s.SigningPriv != (Ed25519Private{})
}

// SenderKeyBundle is the bootstrap snapshot of a sender's ratchet state,
// distributed pairwise-encrypted to every other group member. It carries
// the sender's current chain key and the index that key is valid at, so a
// new recipient can decrypt messages from that point forward only.
type SenderKeyBundle struct {
	GroupID    string        `json:"group_id"`
	SenderKey  X25519Public  `json:"sender_key"`
	SigningPub Ed25519Public `json:"signing_pub"`
	ChainKey   ChainKey      `json:"chain_key"`
	Index      uint32        `json:"index"`
}

// GroupMessage is the wire payload of one group send. The same payload is
// delivered unmodified to every member; the AEAD nonce is prepended to
// Ciphertext rather than carried separately.
type GroupMessage struct {
	GroupID    string        `json:"groupId"`
	SenderKey  X25519Public  `json:"senderIdentityKey"`
	SigningPub Ed25519Public `json:"signingPublicKey"`
	Index      uint32        `json:"messageIndex"`
	Ciphertext []byte        `json:"ciphertext"`
	Signature  []byte        `json:"signature"`
}

// Group is the membership record the ratchet layer consumes to know who
// to unicast bundles to. Persisted by the store layer.
type Group struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Creator X25519Public   `json:"creator"`
	Members []X25519Public `json:"members"`
}

// HasMember reports whether pub is in the group's member list.
func (g *Group) HasMember(pub X25519Public) bool {
	for _, m := range g.Members {
		if m == pub {
			return true
		}
	}
	return false
}

// Contact is a locally named peer. Group messaging does not require one:
// bundles reach strangers via ad-hoc ECDH on their public key alone.
type Contact struct {
	Name string       `json:"name"`
	Pub  X25519Public `json:"pub"`
}
