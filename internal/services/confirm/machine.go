package confirm

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tonbridge/internal/domain"
	"tonbridge/internal/notify"
	"tonbridge/internal/services/respond"
)

const defaultEmulationTimeout = 30 * time.Second

// Machine serializes request handling for one wallet.
type Machine struct {
	wallet  domain.Wallet
	builder domain.TransactionBuilder
	chain   domain.ChainService
	keys    domain.PrivateKeyProvider
	reply   respond.Responder
	opts    Options
	log     *zap.Logger
	hub     *notify.Hub[Event]
	now     func() time.Time

	// op is held for the full duration of every operation.
	op sync.Mutex

	// mu guards state and emuCancel for snapshots and emulation updates.
	mu        sync.Mutex
	state     State
	emuCancel context.CancelFunc
}

// New constructs a Machine for wallet. A nil logger discards output.
func New(
	wallet domain.Wallet,
	builder domain.TransactionBuilder,
	chain domain.ChainService,
	keys domain.PrivateKeyProvider,
	relay domain.RelayClient,
	opts Options,
	log *zap.Logger,
) *Machine {
	if opts.EmulationTimeout <= 0 {
		opts.EmulationTimeout = defaultEmulationTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		wallet:  wallet,
		builder: builder,
		chain:   chain,
		keys:    keys,
		reply:   respond.New(relay),
		opts:    opts,
		log:     log.With(zap.String("wallet", wallet.ID.String())),
		hub:     notify.NewHub[Event](),
		now:     time.Now,
	}
}

// WithClock replaces the time source used for deadlines.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer.
func (m *Machine) Subscribe(buffer int) *notify.Subscription[Event] {
	return m.hub.Subscribe(buffer)
}

// Close cancels background emulation and closes observer subscriptions.
// The pending request, if any, is left unanswered.
func (m *Machine) Close() {
	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	m.stopEmulationLocked()
	m.mu.Unlock()
	m.hub.Close()
}

// HandleIncomingRequest makes req the pending request. A request already
// pending is declined first. A request that has expired or targets another
// network is answered with a bad-request error and never becomes pending.
func (m *Machine) HandleIncomingRequest(ctx context.Context, req domain.AppRequest, sess domain.AppSession) {
	m.op.Lock()
	defer m.op.Unlock()

	log := m.log.With(zap.String("request_id", req.ID), zap.String("peer", sess.PeerClientID.String()))

	if msg := m.invalid(req); msg != "" {
		log.Info("request rejected", zap.String("reason", msg))
		m.respondError(ctx, "", req, sess, domain.ErrorCodeBadRequest, msg)
		m.publish(Event{Kind: RequestRejected, Request: req})
		return
	}

	if cur := m.State(); cur.Phase != Idle {
		log.Info("pending request superseded", zap.String("superseded", cur.Request.ID))
		m.respondError(ctx, cur.TraceID, cur.Request, cur.Session, domain.ErrorCodeUserDeclined, "")
		m.toIdle()
		m.publish(Event{Kind: RequestSuperseded, TraceID: cur.TraceID, Request: cur.Request})
	}

	traceID := uuid.NewString()
	emuCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.EmulationTimeout)

	m.mu.Lock()
	m.state = State{
		Phase:     AwaitingConfirmation,
		TraceID:   traceID,
		Request:   req,
		Session:   sess,
		Emulation: Emulation{Status: EmulationPending},
		Since:     m.now(),
	}
	m.emuCancel = cancel
	m.mu.Unlock()

	log.Info("request awaiting confirmation", zap.String("trace_id", traceID), zap.Int("outputs", len(req.Outputs)))
	m.publish(Event{Kind: RequestPending, TraceID: traceID, Request: req})

	go m.emulate(emuCtx, traceID, req)
}

// Cancel declines the pending request. It is a no-op when nothing is
// pending.
func (m *Machine) Cancel(ctx context.Context) {
	m.cancelIf(ctx, func(State) bool { return true })
}

// CancelTrace declines the pending request only if its trace id is
// traceID, and reports whether it did.
func (m *Machine) CancelTrace(ctx context.Context, traceID string) bool {
	return m.cancelIf(ctx, func(st State) bool { return st.TraceID == traceID })
}

// CancelFrom declines the pending request only if it came from peer, and
// reports whether it did.
func (m *Machine) CancelFrom(ctx context.Context, peer domain.ClientID) bool {
	return m.cancelIf(ctx, func(st State) bool { return st.Session.PeerClientID == peer })
}

func (m *Machine) cancelIf(ctx context.Context, match func(State) bool) bool {
	m.op.Lock()
	defer m.op.Unlock()

	cur := m.State()
	if cur.Phase != AwaitingConfirmation || !match(cur) {
		return false
	}
	m.respondError(ctx, cur.TraceID, cur.Request, cur.Session, domain.ErrorCodeUserDeclined, "")
	m.toIdle()
	m.log.Info("request declined", zap.String("request_id", cur.Request.ID), zap.String("trace_id", cur.TraceID))
	m.publish(Event{Kind: RequestDeclined, TraceID: cur.TraceID, Request: cur.Request})
	return true
}

// Confirm builds, signs and submits the pending request, then answers the
// app with the signed BOC.
//
// Failures before the chain accepted the transaction leave the request
// pending so Confirm can be retried. Once submitted, Confirm succeeds even
// if the response cannot be delivered; that case is reported to observers
// as DeliveryFailed.
func (m *Machine) Confirm(ctx context.Context) error {
	return m.confirm(ctx, "")
}

// ConfirmTrace is Confirm bound to the request the caller showed the user:
// it returns ErrNoPendingRequest unless the pending request's trace id is
// traceID.
func (m *Machine) ConfirmTrace(ctx context.Context, traceID string) error {
	if traceID == "" {
		return ErrNoPendingRequest
	}
	return m.confirm(ctx, traceID)
}

func (m *Machine) confirm(ctx context.Context, traceID string) error {
	m.op.Lock()
	defer m.op.Unlock()

	cur := m.State()
	if cur.Phase != AwaitingConfirmation || (traceID != "" && cur.TraceID != traceID) {
		return ErrNoPendingRequest
	}
	log := m.log.With(zap.String("request_id", cur.Request.ID), zap.String("trace_id", cur.TraceID))

	if m.expired(cur.Request) {
		m.respondError(ctx, cur.TraceID, cur.Request, cur.Session, domain.ErrorCodeBadRequest, "request expired")
		m.toIdle()
		m.publish(Event{Kind: RequestRejected, TraceID: cur.TraceID, Request: cur.Request})
		return ErrRequestExpired
	}
	if m.opts.RequireEmulation && cur.Emulation.Status != EmulationReady {
		return ErrEmulationRequired
	}

	tx, err := m.builder.Build(ctx, m.wallet, cur.Request.Outputs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	priv, err := m.keys.PrivateKey(ctx, m.wallet.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}
	boc, err := m.builder.Sign(ctx, tx, priv)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignFailed, err)
	}

	// From here on the caller can no longer abort.
	ctx = context.WithoutCancel(ctx)
	receipt, err := m.chain.Submit(ctx, boc)
	if err != nil {
		log.Warn("submit failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	m.mu.Lock()
	m.stopEmulationLocked()
	m.state.Phase = Confirmed
	m.mu.Unlock()
	log.Info("transaction submitted", zap.String("hash", receipt.Hash))
	m.publish(Event{Kind: TransactionSubmitted, TraceID: cur.TraceID, Request: cur.Request, Receipt: receipt})

	result := base64.StdEncoding.EncodeToString(boc)
	if err := m.reply.Success(ctx, cur.Session, cur.Request.ID, result); err != nil {
		log.Error("transaction submitted but response not delivered", zap.Error(err))
		m.publish(Event{Kind: DeliveryFailed, TraceID: cur.TraceID, Request: cur.Request, Receipt: receipt, Err: err})
	} else {
		m.publish(Event{Kind: ResponseDelivered, TraceID: cur.TraceID, Request: cur.Request, Receipt: receipt})
	}

	m.toIdle()
	return nil
}

func (m *Machine) emulate(ctx context.Context, traceID string, req domain.AppRequest) {
	emu := Emulation{Status: EmulationReady}
	tx, err := m.builder.Build(ctx, m.wallet, req.Outputs)
	if err == nil {
		emu.Estimate, err = m.chain.Estimate(ctx, tx)
	}
	if err != nil {
		emu = Emulation{Status: EmulationFailed, Err: err}
	}

	m.mu.Lock()
	if m.state.TraceID != traceID || m.state.Phase != AwaitingConfirmation {
		m.mu.Unlock()
		return
	}
	m.state.Emulation = emu
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("emulation failed", zap.String("trace_id", traceID), zap.Error(err))
		m.publish(Event{Kind: EmulationFailedEvent, TraceID: traceID, Request: req, Err: err})
		return
	}
	m.log.Debug("emulation ready", zap.String("trace_id", traceID), zap.Uint64("fee", emu.Estimate.Fee))
	m.publish(Event{Kind: EmulationSucceeded, TraceID: traceID, Request: req, Estimate: emu.Estimate})
}

func (m *Machine) invalid(req domain.AppRequest) string {
	if m.expired(req) {
		return "request expired"
	}
	if req.Network != "" && m.wallet.Network != "" && req.Network != m.wallet.Network {
		return "wrong network"
	}
	if len(req.Outputs) == 0 {
		return "no messages"
	}
	return ""
}

func (m *Machine) expired(req domain.AppRequest) bool {
	return !req.ValidUntil.IsZero() && !m.now().Before(req.ValidUntil)
}

// respondError answers a request. A delivery failure is logged and
// reported; it never changes the outcome of the operation.
func (m *Machine) respondError(ctx context.Context, traceID string, req domain.AppRequest, sess domain.AppSession, code domain.ErrorCode, msg string) {
	if err := m.reply.Error(ctx, sess, req.ID, code, msg); err != nil {
		m.log.Warn("error response not delivered",
			zap.String("request_id", req.ID), zap.Int("code", int(code)), zap.Error(err))
		m.publish(Event{Kind: DeliveryFailed, TraceID: traceID, Request: req, Err: err})
	}
}

func (m *Machine) toIdle() {
	m.mu.Lock()
	m.stopEmulationLocked()
	m.state = State{Phase: Idle, Since: m.now()}
	m.mu.Unlock()
}

func (m *Machine) stopEmulationLocked() {
	if m.emuCancel != nil {
		m.emuCancel()
		m.emuCancel = nil
	}
}

func (m *Machine) publish(ev Event) {
	if dropped := m.hub.Publish(ev); dropped > 0 {
		m.log.Debug("observer buffer full, event dropped", zap.Stringer("event", ev.Kind))
	}
}
