package app

import (
	"context"

	"tonbridge/internal/domain"
	"tonbridge/internal/protocol/connecturi"
	"tonbridge/internal/services/bridge"
	"tonbridge/internal/services/confirm"
	"tonbridge/internal/services/subscription"
)

// App is one unlocked wallet with its bridge.
type App struct {
	Wallet   domain.Wallet
	Sessions domain.AppSessionStore
	Bridge   *bridge.Bridge

	wire   *Wire
	stores *Stores
}

// Open unlocks wallet id (or the only stored wallet) and builds its bridge.
// The bridge is not started; call Bridge.Open.
func (w *Wire) Open(ctx context.Context, passphrase string, id domain.WalletID) (*App, error) {
	id, err := w.ResolveWallet(id)
	if err != nil {
		return nil, err
	}
	wallet, err := w.Wallets.Unlock(passphrase, id)
	if err != nil {
		return nil, err
	}
	stores, err := w.OpenStores(ctx, passphrase)
	if err != nil {
		w.Wallets.Lock()
		return nil, err
	}

	b := bridge.New(wallet, bridge.Deps{
		Relay:     w.Relay,
		Sessions:  stores.Sessions,
		Cursors:   stores.Cursors,
		Keys:      w.Wallets,
		Builder:   w.Builder,
		Chain:     w.Chain,
		Manifests: w.Manifests,
		Device:    w.Device,
	}, bridge.Options{
		Parser: connecturi.Parser{
			Schemes:        connecturi.DefaultSchemes,
			UniversalLinks: w.Config.UniversalLinks,
		},
		Subscription: subscription.Options{
			RetryDelay:     w.Config.RetryDelay,
			NoConnectivity: w.Config.NoConnectivity,
		},
		Confirm: confirm.Options{RequireEmulation: w.Config.RequireEmulation},
	}, w.Log)

	return &App{
		Wallet:   wallet,
		Sessions: stores.Sessions,
		Bridge:   b,
		wire:     w,
		stores:   stores,
	}, nil
}

// Close stops the bridge, closes the stores and forgets the unlocked key.
func (a *App) Close() error {
	a.Bridge.Close()
	err := a.stores.Close()
	a.wire.Wallets.Lock()
	return err
}
