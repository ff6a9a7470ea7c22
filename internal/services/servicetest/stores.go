package servicetest

import (
	"context"
	"sort"
	"sync"

	"tonbridge/internal/domain"
)

type sessionKey struct {
	wallet domain.WalletID
	peer   domain.ClientID
}

// Sessions is an in-memory domain.AppSessionStore.
type Sessions struct {
	mu      sync.Mutex
	m       map[sessionKey]domain.AppSession
	SaveErr error
}

func NewSessions(ss ...domain.AppSession) *Sessions {
	s := &Sessions{m: make(map[sessionKey]domain.AppSession)}
	for _, sess := range ss {
		s.m[sessionKey{sess.WalletID, sess.PeerClientID}] = sess
	}
	return s
}

var _ domain.AppSessionStore = (*Sessions)(nil)

func (s *Sessions) SaveAppSession(_ context.Context, sess domain.AppSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.m[sessionKey{sess.WalletID, sess.PeerClientID}] = sess
	return nil
}

func (s *Sessions) LoadAppSession(_ context.Context, wallet domain.WalletID, peer domain.ClientID) (domain.AppSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[sessionKey{wallet, peer}]
	return sess, ok, nil
}

func (s *Sessions) ListAppSessions(_ context.Context, wallet domain.WalletID) ([]domain.AppSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AppSession
	for k, sess := range s.m {
		if k.wallet == wallet {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerClientID < out[j].PeerClientID })
	return out, nil
}

func (s *Sessions) DeleteAppSession(_ context.Context, wallet domain.WalletID, peer domain.ClientID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := sessionKey{wallet, peer}
	_, ok := s.m[k]
	delete(s.m, k)
	return ok, nil
}

// Len returns the number of stored sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Cursors is an in-memory domain.CursorStore that records every save.
type Cursors struct {
	mu    sync.Mutex
	m     map[domain.WalletID]domain.ResumeCursor
	saved []string
	// OnSave runs inside SaveCursor, before it returns.
	OnSave func(domain.ResumeCursor)
}

func NewCursors() *Cursors {
	return &Cursors{m: make(map[domain.WalletID]domain.ResumeCursor)}
}

var _ domain.CursorStore = (*Cursors)(nil)

func (c *Cursors) LoadCursor(_ context.Context, wallet domain.WalletID) (domain.ResumeCursor, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.m[wallet]
	return cur, ok, nil
}

func (c *Cursors) SaveCursor(_ context.Context, cur domain.ResumeCursor) error {
	c.mu.Lock()
	c.m[cur.WalletID] = cur
	c.saved = append(c.saved, cur.LastEventID)
	on := c.OnSave
	c.mu.Unlock()
	if on != nil {
		on(cur)
	}
	return nil
}

// Saved returns every saved event id in order.
func (c *Cursors) Saved() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.saved...)
}
