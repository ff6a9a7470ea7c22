package subscription

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"tonbridge/internal/crypto"
	"tonbridge/internal/domain"
	"tonbridge/internal/notify"
	"tonbridge/internal/relay"
)

const messageEvent = "message"

// Service owns the relay subscription of one wallet.
type Service struct {
	wallet     domain.WalletID
	relay      domain.RelayClient
	sessions   domain.AppSessionStore
	cursors    domain.CursorStore
	dispatcher domain.Dispatcher
	opts       Options
	log        *zap.Logger
	hub        *notify.Hub[Event]

	mu      sync.Mutex
	state   State
	targets []domain.ClientID
	cancel  context.CancelFunc
	gen     uint64
}

// New constructs a subscription Service for wallet. A nil logger discards
// output; a zero RetryDelay uses DefaultRetryDelay.
func New(
	wallet domain.WalletID,
	relayClient domain.RelayClient,
	sessions domain.AppSessionStore,
	cursors domain.CursorStore,
	dispatcher domain.Dispatcher,
	opts Options,
	log *zap.Logger,
) *Service {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		wallet:     wallet,
		relay:      relayClient,
		sessions:   sessions,
		cursors:    cursors,
		dispatcher: dispatcher,
		opts:       opts,
		log:        log.With(zap.String("wallet", wallet.String())),
		hub:        notify.NewHub[Event](),
	}
}

// State returns the current state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an observer. Close the returned subscription to stop
// receiving events.
func (s *Service) Subscribe(buffer int) *notify.Subscription[Event] {
	return s.hub.Subscribe(buffer)
}

// Start subscribes for the client ids of sessions. It is a no-op when the
// service is already connecting or connected with the same set; otherwise
// the previous stream and retry timer are cancelled first. An empty set
// stops the service.
func (s *Service) Start(sessions []domain.AppSession) {
	ids := clientIDs(sessions)
	if len(ids) == 0 {
		s.Stop()
		return
	}

	s.mu.Lock()
	if (s.state == Connecting || s.state == Connected) && slices.Equal(ids, s.targets) {
		s.mu.Unlock()
		return
	}
	changed := s.restartLocked(ids)
	s.mu.Unlock()
	s.publishState(changed, Connecting)
}

// Reconnect restarts the last subscription unless it is already connecting
// or connected. It is the hook for connectivity-change signals.
func (s *Service) Reconnect() {
	s.mu.Lock()
	if len(s.targets) == 0 || s.state == Connecting || s.state == Connected {
		s.mu.Unlock()
		return
	}
	changed := s.restartLocked(s.targets)
	s.mu.Unlock()
	s.publishState(changed, Connecting)
}

// Stop cancels the stream and any pending retry. Idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	changed := s.state != Disconnected
	s.state = Disconnected
	s.mu.Unlock()
	s.publishState(changed, Disconnected)
}

// Close stops the service and closes every observer subscription.
func (s *Service) Close() {
	s.Stop()
	s.hub.Close()
}

func (s *Service) restartLocked(ids []domain.ClientID) bool {
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.targets = ids
	changed := s.state != Connecting
	s.state = Connecting
	go s.run(ctx, s.gen, ids)
	return changed
}

// setState applies st if gen is still the current run.
func (s *Service) setState(gen uint64, st State) {
	s.mu.Lock()
	if gen != s.gen || s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	s.mu.Unlock()
	s.publishState(true, st)
}

func (s *Service) publishState(changed bool, st State) {
	if !changed {
		return
	}
	s.log.Debug("subscription state", zap.Stringer("state", st))
	s.publish(Event{Kind: StateChanged, State: st})
}

func (s *Service) publish(ev Event) {
	if dropped := s.hub.Publish(ev); dropped > 0 {
		s.log.Debug("observer buffer full, event dropped", zap.Int("observers", dropped))
	}
}

func (s *Service) run(ctx context.Context, gen uint64, ids []domain.ClientID) {
	for ctx.Err() == nil {
		s.setState(gen, Connecting)

		cursor := s.loadCursor(ctx)
		stream, err := s.relay.Subscribe(ctx, ids, cursor)
		if err != nil {
			if ctx.Err() != nil || !s.backoff(ctx, gen, err) {
				return
			}
			continue
		}
		s.setState(gen, Connected)
		s.log.Info("relay stream connected", zap.Int("sessions", len(ids)), zap.String("event_id", cursor))

		err = s.consume(ctx, stream)
		_ = stream.Close()
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			s.log.Debug("relay stream ended, reopening")
			continue
		}
		if !s.backoff(ctx, gen, err) {
			return
		}
	}
}

// backoff moves to the failure state for err and waits for the retry
// timer. It returns false when the loop should exit.
func (s *Service) backoff(ctx context.Context, gen uint64, err error) bool {
	if relay.IsNoConnectivity(err) {
		s.setState(gen, NoConnectivity)
		if s.opts.NoConnectivity == WaitForSignal {
			s.log.Warn("relay unreachable, waiting for connectivity", zap.Error(err))
			return false
		}
		s.log.Warn("relay unreachable, retrying", zap.Error(err), zap.Duration("delay", s.opts.RetryDelay))
	} else {
		s.setState(gen, Disconnected)
		s.log.Warn("relay stream failed, retrying", zap.Error(err), zap.Duration("delay", s.opts.RetryDelay))
	}

	t := time.NewTimer(s.opts.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Service) loadCursor(ctx context.Context) string {
	c, ok, err := s.cursors.LoadCursor(ctx, s.wallet)
	if err != nil {
		s.log.Warn("load cursor", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return c.LastEventID
}

// consume reads until the stream ends. A clean end returns nil.
func (s *Service) consume(ctx context.Context, stream domain.EventStream) error {
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ev.Event != messageEvent {
			continue
		}
		s.handle(ctx, ev)
	}
}

func (s *Service) handle(ctx context.Context, ev domain.RelayEvent) {
	log := s.log.With(zap.String("event_id", ev.ID))

	var env domain.RelayEnvelope
	if err := json.Unmarshal(ev.Data, &env); err != nil || env.From == "" {
		log.Warn("malformed relay envelope dropped", zap.Error(err))
		return
	}
	log = log.With(zap.String("peer", env.From.String()))

	sess, ok, err := s.sessions.LoadAppSession(ctx, s.wallet, env.From)
	if err != nil {
		log.Warn("load session", zap.Error(err))
		return
	}
	if !ok {
		log.Debug("event from unknown sender dropped")
		return
	}

	ct, err := base64.StdEncoding.DecodeString(env.Message)
	if err != nil {
		log.Warn("undecodable message dropped", zap.Error(err))
		return
	}
	sc, err := crypto.SessionCryptoFromPrivate(sess.SessionPrivateKey)
	if err != nil {
		log.Warn("restore session key", zap.Error(err))
		return
	}
	plaintext, err := sc.Decrypt(ct, sess.PeerPublicKey)
	if err != nil {
		log.Warn("message failed authentication, possible tampering", zap.Error(err))
		return
	}

	if ev.ID != "" {
		cur := domain.ResumeCursor{WalletID: s.wallet, LastEventID: ev.ID, UpdatedAt: time.Now()}
		if err := s.cursors.SaveCursor(ctx, cur); err != nil {
			// The event may be redelivered after a restart; dispatch is idempotent.
			log.Error("save cursor", zap.Error(err))
		}
	}

	s.dispatcher.Dispatch(ctx, sess, plaintext)
	s.publish(Event{Kind: MessageReceived, State: Connected, EventID: ev.ID, Peer: env.From, Plaintext: plaintext})
}

func clientIDs(sessions []domain.AppSession) []domain.ClientID {
	ids := make([]domain.ClientID, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ClientID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
