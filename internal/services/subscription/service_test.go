package subscription_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"tonbridge/internal/domain"
	"tonbridge/internal/relay"
	"tonbridge/internal/services/servicetest"
	"tonbridge/internal/services/subscription"
)

const wallet domain.WalletID = "w1"

type dispatched struct {
	peer      domain.ClientID
	plaintext string
}

type recorder struct {
	mu    sync.Mutex
	order []string
	got   chan dispatched
}

func newRecorder() *recorder { return &recorder{got: make(chan dispatched, 64)} }

func (r *recorder) Dispatch(_ context.Context, sess domain.AppSession, plaintext []byte) {
	r.note("dispatch:" + string(plaintext))
	r.got <- dispatched{peer: sess.PeerClientID, plaintext: string(plaintext)}
}

func (r *recorder) note(s string) {
	r.mu.Lock()
	r.order = append(r.order, s)
	r.mu.Unlock()
}

func (r *recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type fixture struct {
	relay    *servicetest.Relay
	sessions *servicetest.Sessions
	cursors  *servicetest.Cursors
	disp     *recorder
	svc      *subscription.Service
	peerA    *servicetest.Peer
	peerB    *servicetest.Peer
	sessA    domain.AppSession
	sessB    domain.AppSession
}

func newFixture(t *testing.T, opts subscription.Options) *fixture {
	t.Helper()
	f := &fixture{
		relay:   servicetest.NewRelay(),
		cursors: servicetest.NewCursors(),
		disp:    newRecorder(),
		peerA:   servicetest.NewPeer(t),
		peerB:   servicetest.NewPeer(t),
	}
	f.sessA = f.peerA.Session(t, wallet)
	f.sessB = f.peerB.Session(t, wallet)
	f.sessions = servicetest.NewSessions(f.sessA, f.sessB)
	f.cursors.OnSave = func(c domain.ResumeCursor) { f.disp.note("cursor:" + c.LastEventID) }
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 50 * time.Millisecond
	}
	f.svc = subscription.New(wallet, f.relay, f.sessions, f.cursors, f.disp, opts, nil)
	t.Cleanup(f.svc.Close)
	return f
}

func (f *fixture) start(t *testing.T) (servicetest.SubscribeCall, *servicetest.Stream) {
	t.Helper()
	f.svc.Start([]domain.AppSession{f.sessA, f.sessB})
	call := f.relay.NextSubscribe(t)
	stream := f.relay.NextStream(t)
	waitState(t, f.svc, subscription.Connected)
	return call, stream
}

func waitState(t *testing.T, svc *subscription.Service, want subscription.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for svc.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", svc.State(), want)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (f *fixture) nextDispatch(t *testing.T) dispatched {
	t.Helper()
	select {
	case d := <-f.disp.got:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("nothing dispatched")
		return dispatched{}
	}
}

func (f *fixture) noDispatch(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case d := <-f.disp.got:
		t.Fatalf("unexpected dispatch %+v", d)
	case <-time.After(within):
	}
}

func (f *fixture) noSubscribe(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case c := <-f.relay.Subscribed:
		t.Fatalf("unexpected Subscribe %+v", c)
	case <-time.After(within):
	}
}

func TestStart_SubscribesWithSortedIDsAndCursor(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	_ = f.cursors.SaveCursor(context.Background(), domain.ResumeCursor{WalletID: wallet, LastEventID: "41"})

	call, _ := f.start(t)
	want := []domain.ClientID{f.sessA.ClientID, f.sessB.ClientID}
	slices.Sort(want)
	if !slices.Equal(call.ClientIDs, want) {
		t.Fatalf("client ids = %v, want %v", call.ClientIDs, want)
	}
	if call.LastEventID != "41" {
		t.Fatalf("last event id = %q, want 41", call.LastEventID)
	}
}

func TestMessage_CursorSavedBeforeDispatch(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	obs := f.svc.Subscribe(16)
	_, stream := f.start(t)

	stream.Send(f.peerA.Envelope(t, f.sessA, "42", []byte("hello")))
	stream.Send(f.peerB.Envelope(t, f.sessB, "43", []byte("world")))

	if d := f.nextDispatch(t); d.peer != f.peerA.ID() || d.plaintext != "hello" {
		t.Fatalf("first dispatch = %+v", d)
	}
	if d := f.nextDispatch(t); d.peer != f.peerB.ID() || d.plaintext != "world" {
		t.Fatalf("second dispatch = %+v", d)
	}

	want := []string{"cursor:42", "dispatch:hello", "cursor:43", "dispatch:world"}
	if got := f.disp.Order(); !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-obs.C:
			if ev.Kind == subscription.MessageReceived && ev.EventID == "42" {
				return
			}
		case <-deadline:
			t.Fatal("observer did not see the message")
		}
	}
}

func TestMessage_UnknownSenderDropped(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	_, stream := f.start(t)

	stranger := servicetest.NewPeer(t)
	fake := stranger.Session(t, wallet)
	stream.Send(stranger.Envelope(t, fake, "50", []byte("spoof")))

	f.noDispatch(t, 100*time.Millisecond)
	if f.svc.State() != subscription.Connected {
		t.Fatalf("state = %v, want connected", f.svc.State())
	}
	if saved := f.cursors.Saved(); len(saved) != 0 {
		t.Fatalf("cursor advanced for dropped event: %v", saved)
	}
}

func TestMessage_TamperedAndHeartbeatDropped(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	_, stream := f.start(t)

	// Encrypted for a different session key than the one stored for peer A.
	other := f.peerA.Session(t, wallet)
	stream.Send(f.peerA.Envelope(t, other, "60", []byte("forged")))
	stream.Send(domain.RelayEvent{Event: "heartbeat"})
	stream.Send(domain.RelayEvent{ID: "61", Event: "message", Data: []byte("not json")})
	stream.Send(f.peerA.Envelope(t, f.sessA, "62", []byte("real")))

	if d := f.nextDispatch(t); d.plaintext != "real" {
		t.Fatalf("dispatch = %+v", d)
	}
	if saved := f.cursors.Saved(); !slices.Equal(saved, []string{"62"}) {
		t.Fatalf("saved cursors = %v", saved)
	}
}

func TestNoConnectivity_WaitsForSignal(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	_, stream := f.start(t)

	stream.Fail(fmt.Errorf("%w: not connected to the internet", relay.ErrNoConnectivity))
	waitState(t, f.svc, subscription.NoConnectivity)
	f.noSubscribe(t, 4*50*time.Millisecond)
	if f.svc.State() != subscription.NoConnectivity {
		t.Fatalf("state = %v, want no_connectivity", f.svc.State())
	}

	f.svc.Reconnect()
	f.relay.NextSubscribe(t)
	f.relay.NextStream(t)
	waitState(t, f.svc, subscription.Connected)
}

func TestNoConnectivity_StartSameSetRetries(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	_, stream := f.start(t)

	stream.Fail(fmt.Errorf("%w: offline", relay.ErrNoConnectivity))
	waitState(t, f.svc, subscription.NoConnectivity)

	f.svc.Start([]domain.AppSession{f.sessB, f.sessA})
	f.relay.NextSubscribe(t)
	waitState(t, f.svc, subscription.Connected)
}

func TestNoConnectivity_RetryPolicy(t *testing.T) {
	f := newFixture(t, subscription.Options{NoConnectivity: subscription.RetryAfterDelay})
	_, stream := f.start(t)

	stream.Fail(fmt.Errorf("%w: offline", relay.ErrNoConnectivity))
	waitState(t, f.svc, subscription.NoConnectivity)
	f.relay.NextSubscribe(t)
	waitState(t, f.svc, subscription.Connected)
}

func TestOtherError_RetriesAfterDelayFromLatestCursor(t *testing.T) {
	f := newFixture(t, subscription.Options{RetryDelay: 80 * time.Millisecond})
	_, stream := f.start(t)

	stream.Send(f.peerA.Envelope(t, f.sessA, "70", []byte("a")))
	f.nextDispatch(t)

	failedAt := time.Now()
	stream.Fail(errors.New("relay returned 502"))
	waitState(t, f.svc, subscription.Disconnected)

	call := f.relay.NextSubscribe(t)
	if elapsed := time.Since(failedAt); elapsed < 60*time.Millisecond {
		t.Fatalf("retried after %v, before the delay", elapsed)
	}
	if call.LastEventID != "70" {
		t.Fatalf("resumed from %q, want 70", call.LastEventID)
	}
	waitState(t, f.svc, subscription.Connected)
}

func TestSubscribeError_Retries(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	var mu sync.Mutex
	fails := 1
	next := f.relay.OnSubscribe
	f.relay.OnSubscribe = func(c servicetest.SubscribeCall) (domain.EventStream, error) {
		mu.Lock()
		defer mu.Unlock()
		if fails > 0 {
			fails--
			return nil, errors.New("503")
		}
		return next(c)
	}

	f.svc.Start([]domain.AppSession{f.sessA})
	f.relay.NextSubscribe(t)
	f.relay.NextSubscribe(t)
	waitState(t, f.svc, subscription.Connected)
}

func TestCleanEnd_ReopensImmediately(t *testing.T) {
	f := newFixture(t, subscription.Options{RetryDelay: time.Hour})
	_, stream := f.start(t)

	stream.End()
	f.relay.NextSubscribe(t)
	f.relay.NextStream(t)
	waitState(t, f.svc, subscription.Connected)
}

func TestStart_SameSetIsNoop_NewSetRestarts(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	_, first := f.start(t)

	f.svc.Start([]domain.AppSession{f.sessB, f.sessA})
	f.noSubscribe(t, 100*time.Millisecond)

	f.svc.Start([]domain.AppSession{f.sessA})
	select {
	case <-first.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("previous stream not closed on restart")
	}
	call := f.relay.NextSubscribe(t)
	if len(call.ClientIDs) != 1 || call.ClientIDs[0] != f.sessA.ClientID {
		t.Fatalf("client ids = %v", call.ClientIDs)
	}
}

func TestStop_CancelsStreamAndTimer(t *testing.T) {
	f := newFixture(t, subscription.Options{RetryDelay: 50 * time.Millisecond})
	_, stream := f.start(t)

	f.svc.Stop()
	select {
	case <-stream.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed by Stop")
	}
	if f.svc.State() != subscription.Disconnected {
		t.Fatalf("state = %v", f.svc.State())
	}
	f.svc.Stop()

	// A failure while stopping must not schedule a retry.
	f.noSubscribe(t, 150*time.Millisecond)
}

func TestStop_CancelsPendingRetry(t *testing.T) {
	f := newFixture(t, subscription.Options{RetryDelay: 100 * time.Millisecond})
	_, stream := f.start(t)

	stream.Fail(errors.New("boom"))
	waitState(t, f.svc, subscription.Disconnected)
	f.svc.Stop()
	f.noSubscribe(t, 250*time.Millisecond)
}

func TestStart_EmptySetStops(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	f.start(t)

	f.svc.Start(nil)
	if f.svc.State() != subscription.Disconnected {
		t.Fatalf("state = %v, want disconnected", f.svc.State())
	}
}

func TestSlowObserverDoesNotBlock(t *testing.T) {
	f := newFixture(t, subscription.Options{})
	slow := f.svc.Subscribe(1)
	defer slow.Close()
	_, stream := f.start(t)

	for i := 0; i < 10; i++ {
		stream.Send(f.peerA.Envelope(t, f.sessA, fmt.Sprint(100+i), []byte{byte('a' + i)}))
	}
	for i := 0; i < 10; i++ {
		f.nextDispatch(t)
	}
	if slow.Dropped() == 0 {
		t.Fatal("expected drops on a full observer")
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]subscription.Policy{
		"":      subscription.WaitForSignal,
		"wait":  subscription.WaitForSignal,
		"RETRY": subscription.RetryAfterDelay,
	} {
		got, err := subscription.ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := subscription.ParsePolicy("sometimes"); err == nil {
		t.Fatal("expected error")
	}
}
