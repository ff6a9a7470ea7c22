package types

// BOC is a serialized bag of cells.
type BOC []byte

// UnsignedTransaction is a built, not yet signed, transfer.
type UnsignedTransaction struct {
	Wallet  WalletID `json:"wallet"`
	Address string   `json:"address"`
	Body    BOC      `json:"body"`
	Outputs []Output `json:"outputs"`
	// SigningHash is what the wallet key signs. Empty when the builder
	// signs Body directly.
	SigningHash []byte `json:"signing_hash,omitempty"`
}

// Receipt is returned by the chain after accepting a transaction.
type Receipt struct {
	Hash string `json:"hash"`
}

// RiskLevel grades an emulated transaction.
type RiskLevel string

const (
	RiskUnknown RiskLevel = ""
	RiskLow     RiskLevel = "low"
	RiskHigh    RiskLevel = "high"
)

// Estimate is the emulation result for a transaction.
type Estimate struct {
	// Fee is the total fee in nanotons.
	Fee      uint64    `json:"fee"`
	Risk     RiskLevel `json:"risk"`
	Warnings []string  `json:"warnings,omitempty"`
}
