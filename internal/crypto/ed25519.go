package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"tonbridge/internal/domain"
)

// ErrInvalidSeed is returned for seeds that are not 32 bytes.
var ErrInvalidSeed = errors.New("ed25519 seed must be 32 bytes")

// NewWalletKey generates a wallet signing key. A non-nil seed imports an
// existing key instead.
func NewWalletKey(seed []byte) (domain.Ed25519Private, domain.Ed25519Public, error) {
	var (
		priv domain.Ed25519Private
		pub  domain.Ed25519Public
		sk   ed25519.PrivateKey
	)
	switch {
	case seed == nil:
		var err error
		if _, sk, err = ed25519.GenerateKey(rand.Reader); err != nil {
			return priv, pub, err
		}
	case len(seed) == ed25519.SeedSize:
		sk = ed25519.NewKeyFromSeed(seed)
	default:
		return priv, pub, ErrInvalidSeed
	}
	copy(priv[:], sk)
	copy(pub[:], sk[ed25519.SeedSize:])
	return priv, pub, nil
}

// SigningKey returns priv as an independent ed25519.PrivateKey.
func SigningKey(priv domain.Ed25519Private) ed25519.PrivateKey {
	return append(ed25519.PrivateKey(nil), priv[:]...)
}
