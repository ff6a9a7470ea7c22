package servicetest

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"tonbridge/internal/domain"
)

var ErrLocked = errors.New("wallet locked")

// Keys is a domain.PrivateKeyProvider backed by a map.
type Keys struct {
	mu sync.Mutex
	m  map[domain.WalletID]ed25519.PrivateKey
}

func NewKeys() *Keys { return &Keys{m: make(map[domain.WalletID]ed25519.PrivateKey)} }

var _ domain.PrivateKeyProvider = (*Keys)(nil)

// Add generates a key for wallet id and returns the wallet.
func (k *Keys) Add(id domain.WalletID, address string) domain.Wallet {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	k.mu.Lock()
	k.m[id] = priv
	k.mu.Unlock()
	w := domain.Wallet{ID: id, Address: address, Network: domain.NetworkMainnet}
	copy(w.PublicKey[:], pub)
	return w
}

func (k *Keys) PrivateKey(_ context.Context, id domain.WalletID) (ed25519.PrivateKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	priv, ok := k.m[id]
	if !ok {
		return nil, ErrLocked
	}
	return priv, nil
}

// Builder is a domain.TransactionBuilder that signs the body with Ed25519.
type Builder struct {
	mu       sync.Mutex
	BuildErr error
	SignErr  error
	builds   int
}

var _ domain.TransactionBuilder = (*Builder)(nil)

func (b *Builder) Build(_ context.Context, w domain.Wallet, outs []domain.Output) (domain.UnsignedTransaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.BuildErr != nil {
		return domain.UnsignedTransaction{}, b.BuildErr
	}
	b.builds++
	return domain.UnsignedTransaction{Wallet: w.ID, Address: w.Address, Body: domain.BOC("body"), Outputs: outs}, nil
}

func (b *Builder) Sign(_ context.Context, tx domain.UnsignedTransaction, priv ed25519.PrivateKey) (domain.BOC, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SignErr != nil {
		return nil, b.SignErr
	}
	return append(domain.BOC("signed:"), ed25519.Sign(priv, tx.Body)[:4]...), nil
}

// Builds returns how many transactions were built.
func (b *Builder) Builds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

// Chain is a domain.ChainService with controllable failures.
type Chain struct {
	mu          sync.Mutex
	SubmitErr   error
	EstimateErr error
	// EstimateGate, when set, blocks Estimate until it is closed.
	EstimateGate chan struct{}
	// SubmitGate, when set, blocks Submit until it is closed.
	SubmitGate chan struct{}
	submits    atomic.Int32
}

var _ domain.ChainService = (*Chain)(nil)

func (c *Chain) Submit(ctx context.Context, boc domain.BOC) (domain.Receipt, error) {
	c.mu.Lock()
	gate, err := c.SubmitGate, c.SubmitErr
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Receipt{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.Receipt{}, err
	}
	n := c.submits.Add(1)
	return domain.Receipt{Hash: fmt.Sprintf("hash-%d-%d", n, len(boc))}, nil
}

func (c *Chain) Estimate(ctx context.Context, _ domain.UnsignedTransaction) (domain.Estimate, error) {
	c.mu.Lock()
	gate, err := c.EstimateGate, c.EstimateErr
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Estimate{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.Estimate{}, err
	}
	return domain.Estimate{Fee: 1500, Risk: domain.RiskLow}, nil
}

// SetSubmitErr changes the Submit outcome.
func (c *Chain) SetSubmitErr(err error) {
	c.mu.Lock()
	c.SubmitErr = err
	c.mu.Unlock()
}

// Submits returns how many transactions were accepted.
func (c *Chain) Submits() int { return int(c.submits.Load()) }
