package types

import "time"

// AppSession is one connected app for one wallet.
type AppSession struct {
	WalletID      WalletID     `json:"wallet_id"`
	PeerClientID  ClientID     `json:"peer_client_id"`
	PeerPublicKey X25519Public `json:"peer_public_key"`
	// ClientID is our side of the channel, derived from SessionPrivateKey.
	ClientID          ClientID          `json:"client_id"`
	SessionPrivateKey X25519Private     `json:"session_private_key"`
	Grants            []CapabilityGrant `json:"grants"`
	AppName           string            `json:"app_name"`
	AppURL            string            `json:"app_url"`
	AppIconURL        string            `json:"app_icon_url,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ResumeCursor is the last relay event id durably processed for a wallet.
type ResumeCursor struct {
	WalletID    WalletID  `json:"wallet_id"`
	LastEventID string    `json:"last_event_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}
