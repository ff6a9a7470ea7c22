package store

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"tonbridge/internal/domain"
)

const sessionsDir = "sessions"

// AppSessionFileStore persists app sessions to disk, one JSON file per
// wallet keyed by peer client id.
type AppSessionFileStore struct {
	dir    string
	sealer *Sealer
	mu     sync.Mutex
}

// NewAppSessionFileStore returns an AppSessionFileStore rooted at dir.
func NewAppSessionFileStore(dir string, sealer *Sealer) *AppSessionFileStore {
	return &AppSessionFileStore{dir: dir, sealer: sealer}
}

// SaveAppSession writes sess, replacing any session with the same peer.
func (s *AppSessionFileStore) SaveAppSession(_ context.Context, sess domain.AppSession) error {
	rec, err := toRecord(s.sealer, sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(sess.WalletID)
	m := map[domain.ClientID]sessionRecord{}
	if err := loadJSON(path, &m); err != nil {
		return err
	}
	m[sess.PeerClientID] = rec
	return storeJSON(path, m)
}

// LoadAppSession retrieves the session with peer.
func (s *AppSessionFileStore) LoadAppSession(_ context.Context, wallet domain.WalletID, peer domain.ClientID) (domain.AppSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := map[domain.ClientID]sessionRecord{}
	if err := loadJSON(s.path(wallet), &m); err != nil {
		return domain.AppSession{}, false, err
	}
	rec, ok := m[peer]
	if !ok {
		return domain.AppSession{}, false, nil
	}
	sess, err := fromRecord(s.sealer, rec)
	if err != nil {
		return domain.AppSession{}, false, err
	}
	return sess, true, nil
}

// ListAppSessions returns all sessions of wallet, oldest first.
func (s *AppSessionFileStore) ListAppSessions(_ context.Context, wallet domain.WalletID) ([]domain.AppSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := map[domain.ClientID]sessionRecord{}
	if err := loadJSON(s.path(wallet), &m); err != nil {
		return nil, err
	}
	out := make([]domain.AppSession, 0, len(m))
	for _, rec := range m {
		sess, err := fromRecord(s.sealer, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sortSessions(out)
	return out, nil
}

// DeleteAppSession removes the session with peer and reports whether it
// existed.
func (s *AppSessionFileStore) DeleteAppSession(_ context.Context, wallet domain.WalletID, peer domain.ClientID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(wallet)
	m := map[domain.ClientID]sessionRecord{}
	if err := loadJSON(path, &m); err != nil {
		return false, err
	}
	if _, ok := m[peer]; !ok {
		return false, nil
	}
	delete(m, peer)
	return true, storeJSON(path, m)
}

func (s *AppSessionFileStore) path(wallet domain.WalletID) string {
	return filepath.Join(s.dir, sessionsDir, safeName(string(wallet))+".json")
}

func sortSessions(ss []domain.AppSession) {
	sort.Slice(ss, func(i, j int) bool {
		if !ss[i].CreatedAt.Equal(ss[j].CreatedAt) {
			return ss[i].CreatedAt.Before(ss[j].CreatedAt)
		}
		return ss[i].PeerClientID < ss[j].PeerClientID
	})
}

// Compile-time assertion that AppSessionFileStore implements domain.AppSessionStore.
var _ domain.AppSessionStore = (*AppSessionFileStore)(nil)
