package types

// Network is the chain id a wallet lives on, as TON Connect encodes it.
type Network string

const (
	NetworkMainnet Network = "-239"
	NetworkTestnet Network = "-3"
)

// Wallet describes the account a dApp connects to.
type Wallet struct {
	ID WalletID `json:"id"`
	// Address is the raw form "<workchain>:<64 hex chars>".
	Address   string        `json:"address"`
	Network   Network       `json:"network"`
	PublicKey Ed25519Public `json:"public_key"`
	// StateInit is the base64 BOC of the wallet contract state init.
	StateInit string `json:"state_init,omitempty"`
}

// WalletKey is a wallet together with its signing key, as stored locally.
type WalletKey struct {
	Wallet     Wallet         `json:"wallet"`
	PrivateKey Ed25519Private `json:"private_key"`
}
