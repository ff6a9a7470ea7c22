package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"tonbridge/internal/domain"
)

// ErrInvalidClientID is returned when a client id is not 32 bytes of hex.
var ErrInvalidClientID = errors.New("invalid client id")

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// ClientIDFromPublic returns the relay client id for pub.
func ClientIDFromPublic(pub domain.X25519Public) domain.ClientID {
	return domain.ClientID(pub.Hex())
}

// ParseClientID decodes a hex client id into a public key.
func ParseClientID(id domain.ClientID) (domain.X25519Public, error) {
	var pub domain.X25519Public
	raw, err := hex.DecodeString(string(id))
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrInvalidClientID, err)
	}
	if len(raw) != len(pub) {
		return pub, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidClientID, len(pub), len(raw))
	}
	copy(pub[:], raw)
	return pub, nil
}
