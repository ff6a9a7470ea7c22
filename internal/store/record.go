package store

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"tonbridge/internal/domain"
)

var ErrSealerRequired = errors.New("store: sealer is required")

// sessionRecord is the persisted form of an AppSession. The session private
// key is sealed; everything else is public to the relay anyway.
type sessionRecord struct {
	WalletID      domain.WalletID          `json:"wallet_id"`
	PeerClientID  domain.ClientID          `json:"peer_client_id"`
	PeerPublicKey []byte                   `json:"peer_public_key"`
	ClientID      domain.ClientID          `json:"client_id"`
	SealedKey     []byte                   `json:"sealed_key"`
	Grants        []domain.CapabilityGrant `json:"grants"`
	AppName       string                   `json:"app_name"`
	AppURL        string                   `json:"app_url"`
	AppIconURL    string                   `json:"app_icon_url,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

func sessionAD(wallet domain.WalletID, peer domain.ClientID) []byte {
	return []byte(string(wallet) + "/" + string(peer))
}

func toRecord(s *Sealer, sess domain.AppSession) (sessionRecord, error) {
	if s == nil {
		return sessionRecord{}, ErrSealerRequired
	}
	sealed, err := s.Seal(sess.SessionPrivateKey[:], sessionAD(sess.WalletID, sess.PeerClientID))
	if err != nil {
		return sessionRecord{}, err
	}
	return sessionRecord{
		WalletID:      sess.WalletID,
		PeerClientID:  sess.PeerClientID,
		PeerPublicKey: sess.PeerPublicKey[:],
		ClientID:      sess.ClientID,
		SealedKey:     sealed,
		Grants:        sess.Grants,
		AppName:       sess.AppName,
		AppURL:        sess.AppURL,
		AppIconURL:    sess.AppIconURL,
		CreatedAt:     sess.CreatedAt,
	}, nil
}

func fromRecord(s *Sealer, r sessionRecord) (domain.AppSession, error) {
	if s == nil {
		return domain.AppSession{}, ErrSealerRequired
	}
	priv, err := s.Open(r.SealedKey, sessionAD(r.WalletID, r.PeerClientID))
	if err != nil {
		return domain.AppSession{}, fmt.Errorf("open session key for %s: %w", r.PeerClientID, err)
	}
	if len(priv) != 32 || len(r.PeerPublicKey) != 32 {
		return domain.AppSession{}, fmt.Errorf("session %s: bad key length", r.PeerClientID)
	}
	sess := domain.AppSession{
		WalletID:     r.WalletID,
		PeerClientID: r.PeerClientID,
		ClientID:     r.ClientID,
		Grants:       r.Grants,
		AppName:      r.AppName,
		AppURL:       r.AppURL,
		AppIconURL:   r.AppIconURL,
		CreatedAt:    r.CreatedAt,
	}
	copy(sess.PeerPublicKey[:], r.PeerPublicKey)
	copy(sess.SessionPrivateKey[:], priv)
	return sess, nil
}

// safeName escapes an id for use as a file name.
func safeName(id string) string {
	return url.PathEscape(id)
}
