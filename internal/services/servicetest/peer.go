package servicetest

import (
	"encoding/json"
	"testing"
	"time"

	"tonbridge/internal/crypto"
	"tonbridge/internal/domain"
)

// Peer plays the app side of a session.
type Peer struct {
	SC *crypto.SessionCrypto
}

func NewPeer(t *testing.T) *Peer {
	t.Helper()
	sc, err := crypto.NewSessionCrypto()
	if err != nil {
		t.Fatalf("peer session: %v", err)
	}
	return &Peer{SC: sc}
}

// ID returns the peer's relay client id.
func (p *Peer) ID() domain.ClientID { return p.SC.SessionID() }

// Session returns a wallet-side AppSession with this peer.
func (p *Peer) Session(t *testing.T, wallet domain.WalletID) domain.AppSession {
	t.Helper()
	ours, err := crypto.NewSessionCrypto()
	if err != nil {
		t.Fatalf("wallet session: %v", err)
	}
	return domain.AppSession{
		WalletID:          wallet,
		PeerClientID:      p.ID(),
		PeerPublicKey:     p.SC.PublicKey(),
		ClientID:          ours.SessionID(),
		SessionPrivateKey: ours.PrivateKey(),
		AppName:           "Example",
		AppURL:            "https://app.example",
		CreatedAt:         time.Now(),
	}
}

// Envelope encrypts plaintext to sess and wraps it as a relay message event.
func (p *Peer) Envelope(t *testing.T, sess domain.AppSession, id string, plaintext []byte) domain.RelayEvent {
	t.Helper()
	ourPub, err := crypto.ParseClientID(sess.ClientID)
	if err != nil {
		t.Fatalf("parse client id: %v", err)
	}
	ct, err := p.SC.Encrypt(plaintext, ourPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	data, err := json.Marshal(domain.RelayEnvelope{From: p.ID(), Message: crypto.B64(ct)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return domain.RelayEvent{ID: id, Event: "message", Data: data}
}

// Open decrypts a post sent by the wallet to this peer.
func (p *Peer) Open(t *testing.T, post Post) map[string]any {
	t.Helper()
	walletPub, err := crypto.ParseClientID(post.From)
	if err != nil {
		t.Fatalf("parse sender: %v", err)
	}
	pt, err := p.SC.Decrypt(post.Body, walletPub)
	if err != nil {
		t.Fatalf("decrypt post: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(pt, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", pt, err)
	}
	return m
}
