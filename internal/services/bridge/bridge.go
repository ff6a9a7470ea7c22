package bridge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tonbridge/internal/domain"
	"tonbridge/internal/notify"
	"tonbridge/internal/protocol/connecturi"
	"tonbridge/internal/protocol/rpc"
	"tonbridge/internal/services/confirm"
	"tonbridge/internal/services/connect"
	"tonbridge/internal/services/respond"
	"tonbridge/internal/services/subscription"
)

// ErrUnknownSession is returned when no session exists for a peer.
var ErrUnknownSession = errors.New("no session with app")

// Deps are the collaborators a Bridge is built from.
type Deps struct {
	Relay     domain.RelayClient
	Sessions  domain.AppSessionStore
	Cursors   domain.CursorStore
	Keys      domain.PrivateKeyProvider
	Builder   domain.TransactionBuilder
	Chain     domain.ChainService
	Manifests domain.ManifestLoader
	Device    domain.DeviceInfo
}

// Options tune the parts a Bridge owns.
type Options struct {
	Parser       connecturi.Parser
	Subscription subscription.Options
	Confirm      confirm.Options
}

// Bridge serves one wallet.
type Bridge struct {
	wallet    domain.Wallet
	parser    connecturi.Parser
	manifests domain.ManifestLoader
	sessions  domain.AppSessionStore
	connector *connect.Service
	sub       *subscription.Service
	machine   *confirm.Machine
	reply     respond.Responder
	log       *zap.Logger
}

var _ domain.Dispatcher = (*Bridge)(nil)

// New constructs a Bridge for wallet. Nothing touches the network until
// Open or Connect. A nil logger discards output.
func New(wallet domain.Wallet, deps Deps, opts Options, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.Parser.Schemes) == 0 {
		opts.Parser.Schemes = connecturi.DefaultSchemes
	}
	b := &Bridge{
		wallet:    wallet,
		parser:    opts.Parser,
		manifests: deps.Manifests,
		sessions:  deps.Sessions,
		connector: connect.New(deps.Relay, deps.Sessions, deps.Keys, deps.Device, log.Named("connect")),
		machine: confirm.New(wallet, deps.Builder, deps.Chain, deps.Keys, deps.Relay,
			opts.Confirm, log.Named("confirm")),
		reply: respond.New(deps.Relay),
		log:   log.With(zap.String("wallet", wallet.ID.String())),
	}
	b.sub = subscription.New(wallet.ID, deps.Relay, deps.Sessions, deps.Cursors, b,
		opts.Subscription, log.Named("subscription"))
	return b
}

// Wallet returns the wallet this bridge serves.
func (b *Bridge) Wallet() domain.Wallet { return b.wallet }

// Open subscribes for every stored session of the wallet.
func (b *Bridge) Open(ctx context.Context) error {
	return b.resubscribe(ctx)
}

// Preview parses uri and fetches the app's manifest without contacting the
// app, so the user can decide whether to connect.
func (b *Bridge) Preview(ctx context.Context, uri string) (domain.ConnectionParameters, domain.AppManifest, error) {
	params, err := b.parser.Parse(uri)
	if err != nil {
		return domain.ConnectionParameters{}, domain.AppManifest{}, err
	}
	m, err := b.manifests.Load(ctx, params.ManifestURL)
	if err != nil {
		return params, domain.AppManifest{}, fmt.Errorf("manifest %s: %w", params.ManifestURL, err)
	}
	return params, m, nil
}

// Approve completes a previewed connection and adds the new session to the
// subscription.
func (b *Bridge) Approve(ctx context.Context, params domain.ConnectionParameters, m domain.AppManifest) (domain.AppSession, error) {
	sess, err := b.connector.Connect(ctx, params, m, b.wallet)
	if err != nil {
		return domain.AppSession{}, err
	}
	if err := b.resubscribe(ctx); err != nil {
		b.log.Warn("resubscribe after connect", zap.Error(err))
	}
	return sess, nil
}

// Reject declines a previewed connection.
func (b *Bridge) Reject(ctx context.Context, params domain.ConnectionParameters) error {
	return b.connector.Reject(ctx, params, domain.ErrorCodeUserDeclined)
}

// Connect is Preview followed by Approve.
func (b *Bridge) Connect(ctx context.Context, uri string) (domain.AppSession, error) {
	params, m, err := b.Preview(ctx, uri)
	if err != nil {
		return domain.AppSession{}, err
	}
	return b.Approve(ctx, params, m)
}

// Disconnect ends the session with peer from the wallet side.
func (b *Bridge) Disconnect(ctx context.Context, peer domain.ClientID) error {
	sess, ok, err := b.sessions.LoadAppSession(ctx, b.wallet.ID, peer)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownSession
	}
	b.dropPending(ctx, peer)
	if err := b.connector.Disconnect(ctx, sess); err != nil {
		return err
	}
	return b.resubscribe(ctx)
}

// Sessions lists the wallet's connected apps.
func (b *Bridge) Sessions(ctx context.Context) ([]domain.AppSession, error) {
	return b.sessions.ListAppSessions(ctx, b.wallet.ID)
}

// Confirm approves the pending request.
func (b *Bridge) Confirm(ctx context.Context) error { return b.machine.Confirm(ctx) }

// ConfirmTrace approves the pending request only if it is still the one
// with traceID.
func (b *Bridge) ConfirmTrace(ctx context.Context, traceID string) error {
	return b.machine.ConfirmTrace(ctx, traceID)
}

// Cancel declines the pending request.
func (b *Bridge) Cancel(ctx context.Context) { b.machine.Cancel(ctx) }

// CancelTrace declines the pending request only if it is still the one
// with traceID.
func (b *Bridge) CancelTrace(ctx context.Context, traceID string) bool {
	return b.machine.CancelTrace(ctx, traceID)
}

// Pending returns the confirmation machine's state.
func (b *Bridge) Pending() confirm.State { return b.machine.State() }

// ConnectionState returns the subscription state.
func (b *Bridge) ConnectionState() subscription.State { return b.sub.State() }

// WatchRequests observes the confirmation machine.
func (b *Bridge) WatchRequests(buffer int) *notify.Subscription[confirm.Event] {
	return b.machine.Subscribe(buffer)
}

// WatchConnection observes the subscription.
func (b *Bridge) WatchConnection(buffer int) *notify.Subscription[subscription.Event] {
	return b.sub.Subscribe(buffer)
}

// Reconnect forwards a connectivity signal to the subscription.
func (b *Bridge) Reconnect() { b.sub.Reconnect() }

// Close stops the subscription and the machine.
func (b *Bridge) Close() {
	b.sub.Close()
	b.machine.Close()
}

// Dispatch routes one decrypted request. It runs on the subscription
// goroutine, so a sendTransaction blocks until the machine accepts it.
func (b *Bridge) Dispatch(ctx context.Context, sess domain.AppSession, plaintext []byte) {
	req, err := rpc.DecodeRequest(plaintext, sess.PeerClientID)
	log := b.log.With(
		zap.String("peer", sess.PeerClientID.String()),
		zap.String("request_id", req.ID),
		zap.String("method", string(req.Method)))
	if err != nil {
		log.Info("malformed request", zap.Error(err))
		if req.ID != "" {
			b.respondError(ctx, sess, req.ID, domain.ErrorCodeBadRequest, err.Error())
		}
		return
	}

	switch req.Method {
	case domain.MethodSendTransaction:
		b.machine.HandleIncomingRequest(ctx, req, sess)
	case domain.MethodDisconnect:
		b.appDisconnected(ctx, sess, req.ID)
	default:
		log.Info("method not supported")
		b.respondError(ctx, sess, req.ID, domain.ErrorCodeMethodNotSupported, "")
	}
}

func (b *Bridge) appDisconnected(ctx context.Context, sess domain.AppSession, requestID string) {
	b.dropPending(ctx, sess.PeerClientID)
	if _, err := b.sessions.DeleteAppSession(ctx, sess.WalletID, sess.PeerClientID); err != nil {
		b.log.Error("delete session", zap.String("peer", sess.PeerClientID.String()), zap.Error(err))
		return
	}
	if err := b.reply.Success(ctx, sess, requestID, struct{}{}); err != nil {
		b.log.Warn("disconnect acknowledgement not delivered", zap.Error(err))
	}
	b.log.Info("app disconnected", zap.String("peer", sess.PeerClientID.String()))
	if err := b.resubscribe(ctx); err != nil {
		b.log.Warn("resubscribe after disconnect", zap.Error(err))
	}
}

// dropPending declines the pending request when it came from peer.
func (b *Bridge) dropPending(ctx context.Context, peer domain.ClientID) {
	if b.machine.CancelFrom(ctx, peer) {
		b.log.Info("pending request dropped with its session", zap.String("peer", peer.String()))
	}
}

func (b *Bridge) respondError(ctx context.Context, sess domain.AppSession, id string, code domain.ErrorCode, msg string) {
	if err := b.reply.Error(ctx, sess, id, code, msg); err != nil {
		b.log.Warn("error response not delivered", zap.String("request_id", id), zap.Error(err))
	}
}

func (b *Bridge) resubscribe(ctx context.Context) error {
	sessions, err := b.sessions.ListAppSessions(ctx, b.wallet.ID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	b.sub.Start(sessions)
	return nil
}
