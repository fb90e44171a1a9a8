// Command relay runs the murmur relay: an untrusted, in-memory router
// that forwards encrypted envelopes between registered public keys. It
// stores nothing, queues nothing for offline peers, and cannot read any
// plaintext.
package main
