// Package memzero provides best-effort wiping of secret byte slices to
// shorten the time key material sits in memory.
package memzero

import "crypto/subtle"

// Zero overwrites b with zeros. subtle.ConstantTimeCopy keeps the write
// from being elided.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}
