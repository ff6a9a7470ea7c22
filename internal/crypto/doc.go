// Package crypto exposes the primitives used by the bridge.
//
// Contents
//
//   - Session key pairs and encryption between two X25519 keys using NaCl
//     box (SessionCrypto)
//   - Wallet Ed25519 key generation and import (NewWalletKey, SigningKey)
//   - Client id encoding (ClientIDFromPublic, ParseClientID) and short
//     public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Keys cross package boundaries as the fixed-size array types of
// internal/domain. Shared secrets are wiped with memzero once used.
package crypto
