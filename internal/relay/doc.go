// Package relay provides an HTTP implementation of the domain.RelayClient
// interface used by tonbridge.
//
// The relay is an untrusted store-and-forward service keyed by client id. It
// never sees plaintext: every body is a base64 NaCl box produced by
// internal/crypto.
//
// Supported operations:
//   - Posting a ciphertext to a peer: POST /message?client_id&to&ttl.
//   - Subscribing to events for a set of client ids: GET /events as a
//     server-sent event stream, resumable through last_event_id.
//
// Transport errors that mean the host has no usable network are wrapped with
// ErrNoConnectivity so callers can tell them apart from relay failures.
// Non-2xx statuses are returned as errors carrying the path and status text.
package relay
