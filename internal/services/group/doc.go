// Package group drives group messaging on top of the sender-key ratchet:
// membership records, bootstrap bundle distribution over the pairwise
// session layer, and the send/receive paths that load, advance and persist
// ratchet state.
//
// Every read-derive-advance sequence on one (group, sender) chain runs
// under a per-chain mutex. Two concurrent advances on the same chain key
// would fork the chain and desynchronise sender and receivers.
package group
