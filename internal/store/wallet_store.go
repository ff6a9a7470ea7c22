package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"tonbridge/internal/domain"
)

const (
	walletsDir    = "wallets"
	walletFileExt = ".json.enc"
)

// WalletFileStore persists passphrase-encrypted wallet keys, one file per
// wallet.
type WalletFileStore struct {
	dir string
	kdf KDFParams
	mu  sync.Mutex
}

// NewWalletFileStore returns a WalletFileStore rooted at dir.
func NewWalletFileStore(dir string) *WalletFileStore {
	return &WalletFileStore{dir: dir, kdf: DefaultKDF}
}

// WithKDF overrides the scrypt cost for new blobs.
func (s *WalletFileStore) WithKDF(p KDFParams) *WalletFileStore {
	s.kdf = p
	return s
}

// SaveWallet writes the encrypted wallet key to disk.
func (s *WalletFileStore) SaveWallet(passphrase string, key domain.WalletKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	ct, err := encrypt(passphrase, raw, []byte(key.Wallet.ID), s.kdf)
	if err != nil {
		return err
	}
	return storeFile(s.path(key.Wallet.ID), ct)
}

// LoadWallet reads and decrypts the wallet key for id.
func (s *WalletFileStore) LoadWallet(passphrase string, id domain.WalletID) (domain.WalletKey, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := loadFile(s.path(id))
	if err != nil || b == nil {
		return domain.WalletKey{}, false, err
	}
	pt, err := decrypt(passphrase, b, []byte(id))
	if err != nil {
		return domain.WalletKey{}, false, err
	}
	var key domain.WalletKey
	if err := json.Unmarshal(pt, &key); err != nil {
		return domain.WalletKey{}, false, err
	}
	return key, true, nil
}

// ListWallets returns the stored wallet ids in lexical order.
func (s *WalletFileStore) ListWallets() ([]domain.WalletID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, walletsDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []domain.WalletID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, walletFileExt) {
			continue
		}
		ids = append(ids, domain.WalletID(strings.TrimSuffix(name, walletFileExt)))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *WalletFileStore) path(id domain.WalletID) string {
	return filepath.Join(s.dir, walletsDir, safeName(string(id))+walletFileExt)
}

// Compile-time assertion that WalletFileStore implements domain.WalletStore.
var _ domain.WalletStore = (*WalletFileStore)(nil)
