// Package subscription keeps one wallet's relay event stream open.
//
// A Service subscribes to the relay for the client ids of every stored app
// session, resumes from the durable cursor, and reconnects on failure:
//
//   - a clean end of stream is reopened at once;
//   - a connectivity failure moves to NoConnectivity and, under the default
//     WaitForSignal policy, waits for Start or Reconnect;
//   - any other failure moves to Disconnected and retries after RetryDelay.
//
// Each message event is decrypted with the session of its sender. Events
// from unknown senders or that fail authentication are dropped. The cursor
// is saved before the plaintext is handed to the Dispatcher, in stream order.
// Observers receive state changes and delivered messages through a
// notify.Hub and can never block the stream.
package subscription
