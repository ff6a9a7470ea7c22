package servicetest

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"tonbridge/internal/domain"
)

// Post is one recorded PostMessage call.
type Post struct {
	From, To domain.ClientID
	Body     []byte
	TTL      time.Duration
}

// SubscribeCall is one recorded Subscribe call.
type SubscribeCall struct {
	ClientIDs   []domain.ClientID
	LastEventID string
}

// Relay records posts and hands out test-controlled streams.
type Relay struct {
	mu      sync.Mutex
	posts   []Post
	postErr error

	// Subscribed receives every Subscribe call.
	Subscribed chan SubscribeCall
	// OnSubscribe decides the outcome of a Subscribe call. The default
	// returns a fresh Stream published on Streams.
	OnSubscribe func(SubscribeCall) (domain.EventStream, error)
	// Streams receives every stream handed out by the default OnSubscribe.
	Streams chan *Stream
}

func NewRelay() *Relay {
	r := &Relay{
		Subscribed: make(chan SubscribeCall, 64),
		Streams:    make(chan *Stream, 64),
	}
	r.OnSubscribe = func(SubscribeCall) (domain.EventStream, error) {
		s := NewStream()
		r.Streams <- s
		return s, nil
	}
	return r
}

var _ domain.RelayClient = (*Relay)(nil)

func (r *Relay) PostMessage(_ context.Context, from, to domain.ClientID, body []byte, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.postErr != nil {
		return r.postErr
	}
	r.posts = append(r.posts, Post{From: from, To: to, Body: append([]byte(nil), body...), TTL: ttl})
	return nil
}

func (r *Relay) Subscribe(ctx context.Context, ids []domain.ClientID, last string) (domain.EventStream, error) {
	call := SubscribeCall{ClientIDs: append([]domain.ClientID(nil), ids...), LastEventID: last}
	select {
	case r.Subscribed <- call:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	r.mu.Lock()
	on := r.OnSubscribe
	r.mu.Unlock()
	return on(call)
}

// SetPostErr makes every following PostMessage fail with err.
func (r *Relay) SetPostErr(err error) {
	r.mu.Lock()
	r.postErr = err
	r.mu.Unlock()
}

// Posts returns a copy of the recorded posts.
func (r *Relay) Posts() []Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Post(nil), r.posts...)
}

// WaitPosts waits until at least n posts were recorded.
func (r *Relay) WaitPosts(t *testing.T, n int) []Post {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		posts := r.Posts()
		if len(posts) >= n {
			return posts
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d posts, want %d", len(posts), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// NextSubscribe waits for the next Subscribe call.
func (r *Relay) NextSubscribe(t *testing.T) SubscribeCall {
	t.Helper()
	select {
	case c := <-r.Subscribed:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no Subscribe call")
		return SubscribeCall{}
	}
}

// NextStream waits for the next stream handed out by the default OnSubscribe.
func (r *Relay) NextStream(t *testing.T) *Stream {
	t.Helper()
	select {
	case s := <-r.Streams:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no stream opened")
		return nil
	}
}

var errStreamClosed = errors.New("stream closed")

type item struct {
	ev  domain.RelayEvent
	err error
}

// Stream is a test-driven domain.EventStream.
type Stream struct {
	ch     chan item
	done   chan struct{}
	once   sync.Once
	closed chan struct{}
}

func NewStream() *Stream {
	return &Stream{ch: make(chan item, 64), done: make(chan struct{}), closed: make(chan struct{})}
}

// Send queues an event.
func (s *Stream) Send(ev domain.RelayEvent) { s.ch <- item{ev: ev} }

// Fail ends the stream with err.
func (s *Stream) Fail(err error) { s.ch <- item{err: err} }

// End ends the stream cleanly.
func (s *Stream) End() { s.ch <- item{err: io.EOF} }

func (s *Stream) Next() (domain.RelayEvent, error) {
	select {
	case it := <-s.ch:
		return it.ev, it.err
	case <-s.done:
		return domain.RelayEvent{}, errStreamClosed
	}
}

func (s *Stream) Close() error {
	s.once.Do(func() { close(s.done); close(s.closed) })
	return nil
}

// Closed is closed once the consumer closed the stream.
func (s *Stream) Closed() <-chan struct{} { return s.closed }
