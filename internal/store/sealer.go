package store

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"

	"tonbridge/internal/util/memzero"
)

const sealerFilename = "sealer.json"

var sealerCheck = []byte("tonbridge sealer v1")

var errSealedTooShort = errors.New("sealed value too short")

// Sealer encrypts small secrets, such as session private keys, under a key
// derived once from the home passphrase. The salt and a check value live in
// sealer.json so a wrong passphrase is detected on open.
type Sealer struct {
	aead cipher.AEAD
}

type sealerFile struct {
	V     int       `json:"v"`
	KDF   KDFParams `json:"kdf"`
	Salt  []byte    `json:"salt"`
	Check []byte    `json:"check"`
}

// OpenSealer loads or creates the sealer for dir.
func OpenSealer(dir, passphrase string) (*Sealer, error) {
	return OpenSealerKDF(dir, passphrase, DefaultKDF)
}

// OpenSealerKDF is OpenSealer with explicit scrypt parameters for a new
// sealer. An existing sealer keeps the parameters it was created with.
func OpenSealerKDF(dir, passphrase string, p KDFParams) (*Sealer, error) {
	path := filepath.Join(dir, sealerFilename)

	var f sealerFile
	if err := loadJSON(path, &f); err != nil {
		return nil, err
	}
	create := len(f.Salt) == 0
	if create {
		f = sealerFile{V: keystoreFormatVersion, KDF: p, Salt: make([]byte, saltSize)}
		if _, err := rand.Read(f.Salt); err != nil {
			return nil, err
		}
	}

	key, err := deriveKey(passphrase, f.Salt, f.KDF)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	s := &Sealer{aead: aead}

	if create {
		if f.Check, err = s.Seal(sealerCheck, nil); err != nil {
			return nil, err
		}
		if err := storeJSON(path, f); err != nil {
			return nil, err
		}
		return s, nil
	}
	if _, err := s.Open(f.Check, nil); err != nil {
		return nil, ErrWrongPassphrase
	}
	return s, nil
}

// Seal encrypts plaintext with a random nonce, prefixed to the result.
func (s *Sealer) Seal(plaintext, ad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, ad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, errSealedTooShort
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], ad)
}
