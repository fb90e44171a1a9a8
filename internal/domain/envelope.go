package domain

import (
	"encoding/json"
	"fmt"
)

// Envelope types understood by the relay router. The relay reads only the
// discriminator and the routing fields; everything else is opaque to it.
const (
	EnvRegister     = "register"
	EnvMessage      = "message"
	EnvGroupEvent   = "group-event"
	EnvSenderKey    = "sender-key"
	EnvSenderKeyAlt = "group-sender-key-bundle" // legacy alias for sender-key
	EnvGroupMessage = "group-message"
)

// Recipients is the `to` field of an envelope. group-event envelopes may
// carry either a single key or a list; both decode into this type.
type Recipients []string

func (r Recipients) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = Recipients{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = Recipients(many)
	return nil
}

// Envelope is one JSON object per transport frame, discriminated by Type.
// It is parsed once at the transport boundary; the router switches
// exhaustively over Type and forwards verbatim.
type Envelope struct {
	Type string `json:"type"`

	// register
	PublicKey string `json:"publicKey,omitempty"`

	// routing
	From string     `json:"from,omitempty"`
	To   Recipients `json:"to,omitempty"`

	// message / sender-key payloads. Nonce is null when the sending
	// ratchet encodes it inside the ciphertext.
	Ciphertext []byte `json:"ciphertext,omitempty"`
	Nonce      []byte `json:"nonce,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	GroupID    string `json:"groupId,omitempty"`

	// group-event
	Event string `json:"event,omitempty"`

	// group-message
	Packet *GroupMessage `json:"packet,omitempty"`
}

// ParseEnvelope decodes and validates one frame. Unknown types and missing
// required fields fail with ErrMalformedEnvelope so callers can drop the
// frame without tearing the connection down.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Validate checks the per-type required fields from the wire table.
func (e *Envelope) Validate() error {
	switch e.Type {
	case EnvRegister:
		if e.PublicKey == "" {
			return fmt.Errorf("%w: register without publicKey", ErrMalformedEnvelope)
		}
	case EnvMessage:
		if e.From == "" || len(e.To) == 0 || len(e.Ciphertext) == 0 {
			return fmt.Errorf("%w: message missing from/to/ciphertext", ErrMalformedEnvelope)
		}
	case EnvGroupEvent:
		if e.From == "" || len(e.To) == 0 || e.Event == "" {
			return fmt.Errorf("%w: group-event missing from/to/event", ErrMalformedEnvelope)
		}
	case EnvSenderKey, EnvSenderKeyAlt:
		if e.From == "" || len(e.To) == 0 || len(e.Ciphertext) == 0 {
			return fmt.Errorf("%w: sender-key missing from/to/ciphertext", ErrMalformedEnvelope)
		}
	case EnvGroupMessage:
		if e.From == "" || len(e.To) == 0 || e.Packet == nil {
			return fmt.Errorf("%w: group-message missing from/to/packet", ErrMalformedEnvelope)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEnvelope, e.Type)
	}
	return nil
}
