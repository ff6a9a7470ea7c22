package types

import "encoding/json"

// Capability item names used on the wire.
const (
	ItemAddress = "ton_addr"
	ItemProof   = "ton_proof"
)

// ConnectionParameters is the parsed form of a connection URI.
type ConnectionParameters struct {
	Version        string
	PeerClientID   ClientID
	ManifestURL    string
	RequestedItems []CapabilityRequest
	// Return is the optional "ret" strategy: "back", "none" or a URL.
	Return string
}

// CapabilityRequest is one requested item. The set of implementations is
// closed: AddressProof, AuthChallenge and UnknownCapability.
type CapabilityRequest interface {
	ItemName() string
	isCapabilityRequest()
}

// AddressProof asks for the wallet address.
type AddressProof struct{}

// ItemName returns "ton_addr".
func (AddressProof) ItemName() string    { return ItemAddress }
func (AddressProof) isCapabilityRequest() {}

// AuthChallenge asks for a signed ownership proof over Payload.
type AuthChallenge struct {
	Payload string
}

// ItemName returns "ton_proof".
func (AuthChallenge) ItemName() string    { return ItemProof }
func (AuthChallenge) isCapabilityRequest() {}

// UnknownCapability preserves an item this version does not understand.
type UnknownCapability struct {
	Name string
	Raw  json.RawMessage
}

// ItemName returns the item's wire name.
func (u UnknownCapability) ItemName() string  { return u.Name }
func (UnknownCapability) isCapabilityRequest() {}

// CapabilityGrant is what the wallet reveals for one requested item.
type CapabilityGrant struct {
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Network   Network   `json:"network,omitempty"`
	PublicKey string    `json:"publicKey,omitempty"`
	StateInit string    `json:"walletStateInit,omitempty"`
	Proof     *TonProof `json:"proof,omitempty"`
}

// TonProof is a signed ownership proof.
type TonProof struct {
	Timestamp int64       `json:"timestamp"`
	Domain    ProofDomain `json:"domain"`
	Signature string      `json:"signature"`
	Payload   string      `json:"payload"`
}

// ProofDomain is the app domain the proof is bound to.
type ProofDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

// AppManifest describes the requesting application.
type AppManifest struct {
	URL              string `json:"url"`
	Name             string `json:"name"`
	IconURL          string `json:"iconUrl,omitempty"`
	TermsOfUseURL    string `json:"termsOfUseUrl,omitempty"`
	PrivacyPolicyURL string `json:"privacyPolicyUrl,omitempty"`
}

// DeviceInfo is sent to the app in the connect event.
type DeviceInfo struct {
	Platform           string `json:"platform"`
	AppName            string `json:"appName"`
	AppVersion         string `json:"appVersion"`
	MaxProtocolVersion int    `json:"maxProtocolVersion"`
	Features           []any  `json:"features"`
}
