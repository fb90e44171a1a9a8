// Package relay implements the untrusted relay: a router that maps public
// keys to live connections and fans envelopes out by type, a TCP server
// hosting it, and the client the murmur CLI connects with.
//
// Frames are newline-delimited JSON, one envelope per line. The relay
// holds nothing at rest: an envelope for a key with no live connection is
// dropped silently, and a key is pruned the instant its last connection
// closes. It never decrypts and never validates ciphertext authenticity —
// all cryptographic gatekeeping lives in the session and sender-key layers.
package relay
