package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"tonbridge/internal/crypto"
	"tonbridge/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
	ErrKeyUnavailable = errors.New("wallet key unavailable")
	ErrNotFound       = errors.New("wallet not found")
	ErrInvalidAddress = errors.New("invalid raw address")
	ErrInvalidSeed    = crypto.ErrInvalidSeed
)

var rawAddress = regexp.MustCompile(`^-?[0-9]+:[0-9a-fA-F]{64}$`)

// Options describe a wallet to create.
type Options struct {
	// Address is the raw "<workchain>:<hex>" address of the wallet contract.
	Address   string
	Network   domain.Network
	StateInit string
	// Seed imports an existing key; nil generates a fresh one.
	Seed []byte
}

// Service creates wallets and holds unlocked keys in memory.
type Service struct {
	store domain.WalletStore

	mu       sync.RWMutex
	unlocked map[domain.WalletID]domain.WalletKey
}

// New returns a wallet service backed by the given store.
func New(s domain.WalletStore) *Service {
	return &Service{store: s, unlocked: make(map[domain.WalletID]domain.WalletKey)}
}

// Create generates (or imports) a wallet key, saves it encrypted with the
// passphrase and returns the wallet plus a short fingerprint of its public
// key. The new wallet is left unlocked.
func (s *Service) Create(passphrase string, opts Options) (domain.Wallet, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Wallet{}, "", ErrWeakPassphrase
	}
	if !rawAddress.MatchString(opts.Address) {
		return domain.Wallet{}, "", fmt.Errorf("%w: %q", ErrInvalidAddress, opts.Address)
	}
	if opts.Network == "" {
		opts.Network = domain.NetworkMainnet
	}

	priv, pub, err := crypto.NewWalletKey(opts.Seed)
	if err != nil {
		return domain.Wallet{}, "", err
	}

	key := domain.WalletKey{
		Wallet: domain.Wallet{
			ID:        domain.WalletID(uuid.NewString()),
			Address:   strings.ToLower(opts.Address),
			Network:   opts.Network,
			PublicKey: pub,
			StateInit: opts.StateInit,
		},
		PrivateKey: priv,
	}
	if err := s.store.SaveWallet(passphrase, key); err != nil {
		return domain.Wallet{}, "", err
	}

	s.mu.Lock()
	s.unlocked[key.Wallet.ID] = key
	s.mu.Unlock()
	return key.Wallet, Fingerprint(key.Wallet), nil
}

// Unlock decrypts wallet id and keeps its key in memory until Lock.
func (s *Service) Unlock(passphrase string, id domain.WalletID) (domain.Wallet, error) {
	key, ok, err := s.store.LoadWallet(passphrase, id)
	if err != nil {
		return domain.Wallet{}, err
	}
	if !ok {
		return domain.Wallet{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Lock()
	s.unlocked[id] = key
	s.mu.Unlock()
	return key.Wallet, nil
}

// Wallet returns an unlocked wallet's public description.
func (s *Service) Wallet(id domain.WalletID) (domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.unlocked[id]
	if !ok {
		return domain.Wallet{}, fmt.Errorf("%w: %s is locked", ErrKeyUnavailable, id)
	}
	return key.Wallet, nil
}

// List returns the ids of all stored wallets.
func (s *Service) List() ([]domain.WalletID, error) {
	return s.store.ListWallets()
}

// PrivateKey returns the signing key of an unlocked wallet.
func (s *Service) PrivateKey(_ context.Context, id domain.WalletID) (ed25519.PrivateKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.unlocked[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", ErrKeyUnavailable, id)
	}
	return crypto.SigningKey(key.PrivateKey), nil
}

// Lock forgets every unlocked key.
func (s *Service) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.unlocked)
}

// Fingerprint returns a short fingerprint of the wallet public key.
func Fingerprint(w domain.Wallet) domain.Fingerprint {
	return crypto.Fingerprint(w.PublicKey.Slice())
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.PrivateKeyProvider.
var _ domain.PrivateKeyProvider = (*Service)(nil)
