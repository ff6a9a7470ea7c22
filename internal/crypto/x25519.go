package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"tonbridge/internal/domain"
	"tonbridge/internal/util/memzero"
)

// generateBoxKey creates a session key pair the way NaCl box expects it.
func generateBoxKey() (domain.X25519Private, domain.X25519Public, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return domain.X25519Private{}, domain.X25519Public{}, err
	}
	defer memzero.Zero(priv[:])
	return domain.X25519Private(*priv), domain.X25519Public(*pub), nil
}

// derivePublic recomputes the public half of a stored session key.
func derivePublic(priv domain.X25519Private) (domain.X25519Public, error) {
	b, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return domain.X25519Public{}, err
	}
	return domain.X25519Public(b), nil
}
