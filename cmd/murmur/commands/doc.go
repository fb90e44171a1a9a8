// Package commands implements the murmur CLI: identity management,
// contacts, groups, direct and group messaging, and the listen loop that
// stays connected to the relay and decrypts inbound traffic.
package commands
