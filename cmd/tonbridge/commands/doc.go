// Package commands defines the tonbridge CLI and wires dependencies for subcommands.
//
// Commands
//
//   - wallet init       Create or import a wallet key
//   - wallet show       Print wallet address and fingerprint
//   - connect <uri>     Approve or reject an app's connection request
//   - sessions list     List connected apps
//   - sessions remove   Disconnect an app
//   - listen            Serve app requests with interactive confirmation
//   - inspect <uri>     Parse a connection URI without contacting anyone
//
// # Implementation
//
// The root command loads configuration (.env, TONBRIDGE_* variables, then
// flags), builds the logger and the passphrase-independent dependency graph
// before any subcommand runs. Commands that touch keys or sessions unlock a
// wallet through app.Wire.Open.
package commands
