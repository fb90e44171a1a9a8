// Package domain defines the types shared across murmur: key material,
// sender-key ratchet state, wire envelopes exchanged with the relay, and
// the store/service interfaces the rest of the codebase is wired through.
//
// Key material uses fixed-size array types so that copies are explicit and
// accidental aliasing of secrets through slices is harder to write.
package domain
