// Package connect performs the wallet side of the connection handshake.
//
// Connect generates a session key pair for one app, builds the requested
// capability grants (address, ton_proof), sends the encrypted connect event
// through the relay and only then persists the AppSession. Reject answers a
// connection the user declined; Disconnect ends a session from the wallet
// side.
package connect
