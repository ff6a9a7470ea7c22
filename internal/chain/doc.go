// Package chain holds HTTP adapters for the chain collaborators.
//
// HTTPService speaks a toncenter v2 shaped JSON API for submitting signed
// transactions and estimating fees. HTTPSigner delegates transaction
// construction to a remote builder; the wallet key never leaves the
// process, only a signature over the builder's signing hash does.
package chain
