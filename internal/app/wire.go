package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"tonbridge/internal/chain"
	"tonbridge/internal/domain"
	"tonbridge/internal/manifest"
	"tonbridge/internal/relay"
	walletsvc "tonbridge/internal/services/wallet"
	"tonbridge/internal/store"
)

// Version is reported to apps in the connect event.
var Version = "dev"

// Wire bundles the stores, services and clients that do not need a
// passphrase.
type Wire struct {
	Config    Config
	Log       *zap.Logger
	HTTP      *http.Client
	Wallets   *walletsvc.Service
	Relay     domain.RelayClient
	Manifests domain.ManifestLoader
	Chain     domain.ChainService
	Builder   domain.TransactionBuilder
	Device    domain.DeviceInfo
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log *zap.Logger) (*Wire, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	rc := relay.NewHTTP(cfg.BridgeURL, log.Named("relay"))
	rc.HTTP = httpClient

	cs := chain.NewHTTPService(cfg.ChainURL, cfg.ChainAPIKey, log.Named("chain"))
	cs.HTTP = httpClient
	signer := chain.NewHTTPSigner(cfg.SignerURL)
	signer.HTTP = httpClient

	return &Wire{
		Config:    cfg,
		Log:       log,
		HTTP:      httpClient,
		Wallets:   walletsvc.New(store.NewWalletFileStore(cfg.Home)),
		Relay:     rc,
		Manifests: manifest.New(httpClient, cfg.ManifestTimeout, log.Named("manifest")),
		Chain:     cs,
		Builder:   signer,
		Device: domain.DeviceInfo{
			Platform:           runtime.GOOS,
			AppName:            "tonbridge",
			AppVersion:         Version,
			MaxProtocolVersion: 2,
			Features:           []any{"SendTransaction", map[string]any{"name": "SendTransaction", "maxMessages": 4}},
		},
	}, nil
}

// Stores is the session and cursor storage of one passphrase.
type Stores struct {
	Sessions domain.AppSessionStore
	Cursors  domain.CursorStore
	close    func() error
}

// Close releases the stores' connections.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores opens session and cursor storage. Session keys are sealed with
// a key derived from passphrase.
func (w *Wire) OpenStores(ctx context.Context, passphrase string) (*Stores, error) {
	sealer, err := store.OpenSealer(w.Config.Home, passphrase)
	if err != nil {
		return nil, err
	}
	if w.Config.RedisURL == "" {
		return &Stores{
			Sessions: store.NewAppSessionFileStore(w.Config.Home, sealer),
			Cursors:  store.NewCursorFileStore(w.Config.Home),
		}, nil
	}
	rs, err := store.NewRedisStore(ctx, w.Config.RedisURL, w.Config.RedisPrefix, sealer)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	w.Log.Info("using redis session store", zap.String("prefix", w.Config.RedisPrefix))
	return &Stores{Sessions: rs, Cursors: rs, close: rs.Close}, nil
}

// ResolveWallet picks the wallet to use: id when set, otherwise the only
// stored wallet.
func (w *Wire) ResolveWallet(id domain.WalletID) (domain.WalletID, error) {
	if id != "" {
		return id, nil
	}
	ids, err := w.Wallets.List()
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", errors.New("no wallet; run `tonbridge wallet init` first")
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%d wallets stored; choose one with --wallet", len(ids))
	}
}
