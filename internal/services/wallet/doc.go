// Package wallet manages creation, encryption and unlocking of local wallet
// keys.
//
// It enforces the passphrase policy, generates or imports Ed25519 signing
// keys, persists them via the domain.WalletStore and, once unlocked, serves
// them through domain.PrivateKeyProvider. Address and state-init derivation
// belong to the wallet contract and are supplied by the caller.
package wallet
