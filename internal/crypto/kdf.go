package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"murmur/internal/domain"
)

// HKDF labels separating the two derivations off one chain key. The two
// outputs are independent: holding a message key or the next chain key
// yields nothing about the current chain key.
var (
	labelMessage = []byte("SK|msg")
	labelChain   = []byte("SK|chain")
)

// ChainStep derives the message key for the current index and the next
// chain key from ck. The chain key itself is consumed exactly once per
// message and never reused.
func ChainStep(ck domain.ChainKey) (messageKey [32]byte, next domain.ChainKey) {
	readKDF(ck, labelMessage, messageKey[:])
	readKDF(ck, labelChain, next[:])
	return
}

// InitialChainKey chains a random seed once so the seed itself never
// leaves the generating process, even inside a bundle.
func InitialChainKey(seed [32]byte) domain.ChainKey {
	var ck domain.ChainKey
	readKDF(domain.ChainKey(seed), labelChain, ck[:])
	return ck
}

func readKDF(ck domain.ChainKey, label, out []byte) {
	r := hkdf.New(sha256.New, ck[:], nil, label)
	if _, err := io.ReadFull(r, out); err != nil {
		// HKDF over SHA-256 cannot fail for 32-byte reads.
		panic(err)
	}
}
