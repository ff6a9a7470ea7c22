package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"tonbridge/internal/util/memzero"
)

// keystoreFormatVersion is written into every passphrase-protected file.
const keystoreFormatVersion = 2

const saltSize = 16

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// ciphertext has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted keystore")

// KDFParams are the scrypt cost parameters stored next to each salt.
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// DefaultKDF is used for new files.
var DefaultKDF = KDFParams{N: 1 << 15, R: 8, P: 1}

func (p KDFParams) validate() error {
	if p.N < 2 || p.N&(p.N-1) != 0 || p.R < 1 || p.P < 1 {
		return fmt.Errorf("invalid scrypt parameters N=%d r=%d p=%d", p.N, p.R, p.P)
	}
	return nil
}

// envelope is a passphrase-encrypted record. The salt doubles as additional
// data so a blob cannot be re-salted.
type envelope struct {
	V      int       `json:"v"`
	KDF    KDFParams `json:"kdf"`
	Salt   []byte    `json:"salt"`
	Nonce  []byte    `json:"nonce"`
	Cipher []byte    `json:"cipher"`
}

func deriveKey(passphrase string, salt []byte, p KDFParams) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, chacha20poly1305.KeySize)
}

// encrypt seals raw under a key derived from passphrase. ad binds the
// result to the record it belongs to, such as the wallet id.
func encrypt(passphrase string, raw, ad []byte, p KDFParams) ([]byte, error) {
	env := envelope{
		V:     keystoreFormatVersion,
		KDF:   p,
		Salt:  make([]byte, saltSize),
		Nonce: make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(env.Salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(env.Nonce); err != nil {
		return nil, err
	}

	key, err := deriveKey(passphrase, env.Salt, p)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	env.Cipher = aead.Seal(nil, env.Nonce, raw, envelopeAD(env.Salt, ad))
	return json.Marshal(env)
}

// decrypt opens a record written by encrypt.
func decrypt(passphrase string, b, ad []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode keystore: %w", err)
	}
	if env.V != keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", env.V)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX || len(env.Salt) != saltSize {
		return nil, ErrWrongPassphrase
	}

	key, err := deriveKey(passphrase, env.Salt, env.KDF)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, env.Nonce, env.Cipher, envelopeAD(env.Salt, ad))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func envelopeAD(salt, ad []byte) []byte {
	out := make([]byte, 0, len(salt)+len(ad))
	return append(append(out, salt...), ad...)
}
