// Package app wires application dependencies for the CLI.
//
// LoadConfig reads .env and TONBRIDGE_* variables. NewWire builds the
// passphrase-independent graph (HTTP clients, relay, manifest loader, chain
// adapters, keystore). Open unlocks one wallet, opens the session stores
// with the passphrase-derived sealer and returns an App carrying that
// wallet's Bridge.
package app
