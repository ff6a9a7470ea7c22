package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/box"

	"tonbridge/internal/domain"
	"tonbridge/internal/util/memzero"
)

const nonceSize = 24

// ErrAuthenticationFailed is returned when a ciphertext does not open under
// the given keys. It covers tampering, truncation and wrong keys alike.
var ErrAuthenticationFailed = errors.New("session message authentication failed")

// SessionCrypto owns one X25519 key pair and encrypts to peers with NaCl box
// (X25519, XSalsa20-Poly1305). Ciphertexts carry a random 24 byte nonce
// prefix.
type SessionCrypto struct {
	priv domain.X25519Private
	pub  domain.X25519Public
}

// NewSessionCrypto generates a fresh session key pair.
func NewSessionCrypto() (*SessionCrypto, error) {
	priv, pub, err := generateBoxKey()
	if err != nil {
		return nil, err
	}
	return &SessionCrypto{priv: priv, pub: pub}, nil
}

// SessionCryptoFromPrivate restores the key pair of an existing session.
func SessionCryptoFromPrivate(priv domain.X25519Private) (*SessionCrypto, error) {
	pub, err := derivePublic(priv)
	if err != nil {
		return nil, err
	}
	return &SessionCrypto{priv: priv, pub: pub}, nil
}

// SessionID is the hex encoded public key, used as our relay client id.
func (s *SessionCrypto) SessionID() domain.ClientID { return ClientIDFromPublic(s.pub) }

// PublicKey returns the session public key.
func (s *SessionCrypto) PublicKey() domain.X25519Public { return s.pub }

// PrivateKey returns the session private key for persistence.
func (s *SessionCrypto) PrivateKey() domain.X25519Private { return s.priv }

// Encrypt seals plaintext for peer.
func (s *SessionCrypto) Encrypt(plaintext []byte, peer domain.X25519Public) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	shared := s.precompute(peer)
	defer memzero.Zero(shared[:])
	return box.SealAfterPrecomputation(nonce[:], plaintext, &nonce, shared), nil
}

// Decrypt opens a ciphertext produced by peer.
func (s *SessionCrypto) Decrypt(ciphertext []byte, peer domain.X25519Public) ([]byte, error) {
	if len(ciphertext) < nonceSize+box.Overhead {
		return nil, ErrAuthenticationFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])
	shared := s.precompute(peer)
	defer memzero.Zero(shared[:])
	pt, ok := box.OpenAfterPrecomputation(nil, ciphertext[nonceSize:], &nonce, shared)
	if !ok {
		return nil, ErrAuthenticationFailed
	}
	return pt, nil
}

func (s *SessionCrypto) precompute(peer domain.X25519Public) *[32]byte {
	var shared [32]byte
	peerKey := [32]byte(peer)
	privKey := [32]byte(s.priv)
	box.Precompute(&shared, &peerKey, &privKey)
	memzero.Zero(privKey[:])
	return &shared
}
