// Package bridge ties the per-wallet pieces together.
//
// A Bridge owns one event subscription and one confirmation machine for a
// wallet. It turns connection URIs into sessions, keeps the subscription's
// client-id set in line with the stored sessions and routes every decrypted
// app request:
//   - sendTransaction goes to the confirmation machine,
//   - disconnect deletes the session and acknowledges with an empty result,
//   - anything else is answered with "method not supported".
package bridge
