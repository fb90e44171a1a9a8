// Package identity manages the long-term identity: generation, vault
// access through the encrypted identity store, and display fingerprints.
package identity
