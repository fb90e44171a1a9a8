package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintBytes of the SHA-256 digest survive truncation; rendered as
// hex in colon-separated groups of four digits.
const fingerprintBytes = 8

// Fingerprint condenses a public key for out-of-band comparison, e.g.
// reading it aloud over a call. Collisions on the truncated digest exist
// but are useless to an attacker who cannot also choose the key.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	enc := hex.EncodeToString(sum[:fingerprintBytes])
	groups := make([]string, 0, len(enc)/4)
	for i := 0; i < len(enc); i += 4 {
		groups = append(groups, enc[i:i+4])
	}
	return strings.Join(groups, ":")
}
