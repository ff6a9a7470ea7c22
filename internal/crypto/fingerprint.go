package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"tonbridge/internal/domain"
)

// Fingerprint identifies a public key to a person comparing it by eye:
// the first 10 bytes of its SHA-256, hex, in groups of four.
func Fingerprint(pub []byte) domain.Fingerprint {
	sum := sha256.Sum256(pub)
	h := hex.EncodeToString(sum[:10])
	groups := make([]string, 0, len(h)/4)
	for i := 0; i < len(h); i += 4 {
		groups = append(groups, h[i:i+4])
	}
	return domain.Fingerprint(strings.Join(groups, "-"))
}
