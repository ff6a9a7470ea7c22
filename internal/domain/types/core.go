package types

// WalletID identifies a wallet managed by this process.
type WalletID string

// String returns the string form of the wallet identifier.
func (id WalletID) String() string { return string(id) }

// ClientID is a relay address: the lowercase hex encoding of an X25519
// session public key.
type ClientID string

// String returns the string form of the client identifier.
func (id ClientID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
