package domain

import "errors"

// Failure taxonomy for the crypto core and the relay edge. Cryptographic
// failures are surfaced to the caller and never retried; transport
// failures are fire-and-forget and informational only.
var (
	// ErrAuthenticationFailure is returned when an AEAD tag does not
	// verify or a nonce has the wrong length. No partial plaintext is
	// ever returned alongside it.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// ErrInvalidSignature is returned when a group message's Ed25519
	// signature does not verify against the stored signing key.
	// Verification happens before any decryption is attempted.
	ErrInvalidSignature = errors.New("invalid group message signature")

	// ErrNoSenderKeyState is returned when our own ratchet state for a
	// group is missing or lacks its signing secret.
	ErrNoSenderKeyState = errors.New("no sender key state for group")

	// ErrUnknownSender is returned when a group message arrives from a
	// sender we hold no bundle for. Recoverable: await or request a bundle.
	ErrUnknownSender = errors.New("unknown sender: no bundle received")

	// ErrStaleOrDuplicate is returned for a message counter at or below
	// the locally stored index. The local state is left untouched.
	ErrStaleOrDuplicate = errors.New("stale or duplicate message index")

	// ErrFutureIndex is returned for a message counter more than one step
	// ahead of the locally stored index. The local state is left untouched.
	ErrFutureIndex = errors.New("message index ahead of chain")

	// ErrMalformedEnvelope is returned for unparseable frames or envelopes
	// missing required fields.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrBundleSenderMismatch is returned when a sender key bundle names a
	// sender other than the envelope it arrived in. The bundle is discarded.
	ErrBundleSenderMismatch = errors.New("bundle sender does not match envelope sender")

	// ErrInvalidPublicKey is returned when a hex public key does not
	// decode to the right length.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrTransportUnavailable is returned when there is no open relay
	// connection to send through. The message is lost; this layer does
	// not retry.
	ErrTransportUnavailable = errors.New("transport unavailable")
)
