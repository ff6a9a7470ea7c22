package connect

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tonbridge/internal/crypto"
	"tonbridge/internal/domain"
	"tonbridge/internal/protocol/rpc"
	"tonbridge/internal/protocol/tonproof"
)

// ConnectTTL is the relay lifetime of connect and connect_error events.
const ConnectTTL = 300 * time.Second

// Service establishes app sessions.
type Service struct {
	relay    domain.RelayClient
	sessions domain.AppSessionStore
	keys     domain.PrivateKeyProvider
	device   domain.DeviceInfo
	log      *zap.Logger

	now     func() time.Time
	eventID atomic.Int64
}

// New constructs a connect Service. A nil logger discards output.
func New(
	relay domain.RelayClient,
	sessions domain.AppSessionStore,
	keys domain.PrivateKeyProvider,
	device domain.DeviceInfo,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		relay:    relay,
		sessions: sessions,
		keys:     keys,
		device:   device,
		log:      log,
		now:      time.Now,
	}
	s.eventID.Store(time.Now().UnixMilli())
	return s
}

// WithClock replaces the time source used for proofs and CreatedAt.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Connect runs the handshake for params on behalf of wallet.
//
// Steps:
//  1. Decode the peer's session public key from its client id.
//  2. Generate a fresh session key pair for this app.
//  3. Build one grant per understood item; unknown items are skipped.
//  4. Encrypt the connect event for the peer and post it to the relay.
//  5. Persist the AppSession, only after the post succeeded.
func (s *Service) Connect(
	ctx context.Context,
	params domain.ConnectionParameters,
	manifest domain.AppManifest,
	wallet domain.Wallet,
) (domain.AppSession, error) {
	peerPub, err := crypto.ParseClientID(params.PeerClientID)
	if err != nil {
		return domain.AppSession{}, fail(ErrInvalidPeerKey, err)
	}

	sc, err := crypto.NewSessionCrypto()
	if err != nil {
		return domain.AppSession{}, err
	}

	now := s.now()
	grants, err := s.grants(ctx, params.RequestedItems, manifest, wallet, now)
	if err != nil {
		return domain.AppSession{}, err
	}

	event, err := rpc.ConnectEvent(s.eventID.Add(1), grants, s.device)
	if err != nil {
		return domain.AppSession{}, err
	}
	ct, err := sc.Encrypt(event, peerPub)
	if err != nil {
		return domain.AppSession{}, err
	}
	if err := s.relay.PostMessage(ctx, sc.SessionID(), params.PeerClientID, ct, ConnectTTL); err != nil {
		return domain.AppSession{}, fail(ErrRelayUnreachable, err)
	}

	sess := domain.AppSession{
		WalletID:          wallet.ID,
		PeerClientID:      params.PeerClientID,
		PeerPublicKey:     peerPub,
		ClientID:          sc.SessionID(),
		SessionPrivateKey: sc.PrivateKey(),
		Grants:            grants,
		AppName:           manifest.Name,
		AppURL:            manifest.URL,
		AppIconURL:        manifest.IconURL,
		CreatedAt:         now,
	}
	if err := s.sessions.SaveAppSession(ctx, sess); err != nil {
		return domain.AppSession{}, fail(ErrPersist, err)
	}

	s.log.Info("app connected",
		zap.String("wallet", wallet.ID.String()),
		zap.String("peer", params.PeerClientID.String()),
		zap.String("client_id", sess.ClientID.String()),
		zap.String("app", manifest.Name),
		zap.Int("grants", len(grants)))
	return sess, nil
}

func (s *Service) grants(
	ctx context.Context,
	items []domain.CapabilityRequest,
	manifest domain.AppManifest,
	wallet domain.Wallet,
	now time.Time,
) ([]domain.CapabilityGrant, error) {
	grants := make([]domain.CapabilityGrant, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case domain.AddressProof:
			grants = append(grants, domain.CapabilityGrant{
				Name:      domain.ItemAddress,
				Address:   wallet.Address,
				Network:   wallet.Network,
				PublicKey: wallet.PublicKey.Hex(),
				StateInit: wallet.StateInit,
			})
		case domain.AuthChallenge:
			priv, err := s.keys.PrivateKey(ctx, wallet.ID)
			if err != nil {
				return nil, fail(ErrKeyUnavailable, err)
			}
			proof, err := tonproof.Sign(priv, wallet.Address, appDomain(manifest.URL), now, it.Payload)
			if err != nil {
				return nil, fail(ErrProof, err)
			}
			grants = append(grants, domain.CapabilityGrant{Name: domain.ItemProof, Proof: &proof})
		default:
			s.log.Debug("skipping unknown connect item", zap.String("item", item.ItemName()))
		}
	}
	return grants, nil
}

// Reject tells the app its connection request was refused. Nothing is
// persisted.
func (s *Service) Reject(ctx context.Context, params domain.ConnectionParameters, code domain.ErrorCode) error {
	peerPub, err := crypto.ParseClientID(params.PeerClientID)
	if err != nil {
		return fail(ErrInvalidPeerKey, err)
	}
	sc, err := crypto.NewSessionCrypto()
	if err != nil {
		return err
	}
	event, err := rpc.ConnectErrorEvent(s.eventID.Add(1), code, "")
	if err != nil {
		return err
	}
	ct, err := sc.Encrypt(event, peerPub)
	if err != nil {
		return err
	}
	if err := s.relay.PostMessage(ctx, sc.SessionID(), params.PeerClientID, ct, ConnectTTL); err != nil {
		return fail(ErrRelayUnreachable, err)
	}
	s.log.Info("connection rejected", zap.String("peer", params.PeerClientID.String()), zap.Int("code", int(code)))
	return nil
}

// Disconnect notifies the app and deletes the session. The session is
// deleted even when the notification cannot be delivered.
func (s *Service) Disconnect(ctx context.Context, sess domain.AppSession) error {
	if err := s.notifyDisconnect(ctx, sess); err != nil {
		s.log.Warn("disconnect notification not delivered",
			zap.String("peer", sess.PeerClientID.String()), zap.Error(err))
	}
	if _, err := s.sessions.DeleteAppSession(ctx, sess.WalletID, sess.PeerClientID); err != nil {
		return fail(ErrPersist, err)
	}
	s.log.Info("app disconnected",
		zap.String("wallet", sess.WalletID.String()),
		zap.String("peer", sess.PeerClientID.String()))
	return nil
}

func (s *Service) notifyDisconnect(ctx context.Context, sess domain.AppSession) error {
	sc, err := crypto.SessionCryptoFromPrivate(sess.SessionPrivateKey)
	if err != nil {
		return err
	}
	event, err := rpc.DisconnectEvent(s.eventID.Add(1))
	if err != nil {
		return err
	}
	ct, err := sc.Encrypt(event, sess.PeerPublicKey)
	if err != nil {
		return err
	}
	return s.relay.PostMessage(ctx, sess.ClientID, sess.PeerClientID, ct, ConnectTTL)
}

// appDomain returns the host an ownership proof is bound to.
func appDomain(appURL string) string {
	u, err := url.Parse(appURL)
	if err != nil || u.Host == "" {
		return appURL
	}
	return u.Host
}
