package types

import "encoding/hex"

// X25519Public is a session (box) public key. Its lowercase hex form is the
// relay ClientID.
type X25519Public [32]byte

func (p X25519Public) Slice() []byte { return p[:] }

// Hex returns the lowercase hex encoding used on the wire.
func (p X25519Public) Hex() string { return hex.EncodeToString(p[:]) }

// X25519Private is a session (box) private key.
type X25519Private [32]byte

func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is a wallet public key.
type Ed25519Public [32]byte

func (p Ed25519Public) Slice() []byte { return p[:] }

// Hex returns the lowercase hex encoding TON Connect uses for publicKey.
func (p Ed25519Public) Hex() string { return hex.EncodeToString(p[:]) }

// Ed25519Private is a wallet signing key: 32-byte seed then public key.
type Ed25519Private [64]byte

func (k Ed25519Private) Slice() []byte { return k[:] }
