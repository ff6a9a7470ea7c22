// Package manifest fetches the app manifest referenced by a connection URI.
//
// A Loader performs one GET per call with a bounded timeout and response
// size. Concurrent loads of the same URL share a single request; nothing is
// kept once that request finishes.
package manifest
