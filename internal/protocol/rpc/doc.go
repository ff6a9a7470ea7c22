// Package rpc encodes wallet responses and events and decodes app requests.
//
// Requests arrive as {"method", "params", "id"}. Responses are
// {"result", "id"} or {"error": {"code", "message"}, "id"}, encrypted for
// the peer before they leave the process. Wallet-originated events
// (connect, connect_error, disconnect) share the {"event", "id", "payload"}
// shape.
package rpc
