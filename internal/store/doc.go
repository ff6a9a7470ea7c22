// Package store provides persistence for tonbridge's local state.
//
// It contains concrete implementations of the domain storage interfaces:
//   - Wallet keys (WalletFileStore), each file a scrypt + ChaCha20-Poly1305
//     blob under the user's passphrase.
//   - App sessions (AppSessionFileStore, RedisStore), with the session
//     private key sealed by a Sealer.
//   - Relay resume cursors (CursorFileStore, RedisStore).
//
// File stores serialise access with a mutex and replace files atomically
// (temp file, fsync, rename). "Not found" is reported as (zero, false, nil).
// Files live under the configured home directory.
package store
