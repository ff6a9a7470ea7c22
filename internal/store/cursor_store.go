package store

import (
	"context"
	"path/filepath"
	"sync"

	"tonbridge/internal/domain"
)

const cursorsFilename = "cursors.json"

// CursorFileStore persists the relay resume cursor of every wallet. Each
// SaveCursor is fsynced before it returns.
type CursorFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewCursorFileStore returns a CursorFileStore rooted at dir.
func NewCursorFileStore(dir string) *CursorFileStore {
	return &CursorFileStore{dir: dir}
}

// LoadCursor returns wallet's cursor; false when none was saved.
func (s *CursorFileStore) LoadCursor(_ context.Context, wallet domain.WalletID) (domain.ResumeCursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := map[domain.WalletID]domain.ResumeCursor{}
	if err := loadJSON(filepath.Join(s.dir, cursorsFilename), &m); err != nil {
		return domain.ResumeCursor{}, false, err
	}
	c, ok := m[wallet]
	return c, ok, nil
}

// SaveCursor replaces the cursor of c.WalletID.
func (s *CursorFileStore) SaveCursor(_ context.Context, c domain.ResumeCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, cursorsFilename)
	m := map[domain.WalletID]domain.ResumeCursor{}
	if err := loadJSON(path, &m); err != nil {
		return err
	}
	m[c.WalletID] = c
	return storeJSON(path, m)
}

// Compile-time assertion that CursorFileStore implements domain.CursorStore.
var _ domain.CursorStore = (*CursorFileStore)(nil)
