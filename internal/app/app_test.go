package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tonbridge/internal/app"
	"tonbridge/internal/services/subscription"
	walletsvc "tonbridge/internal/services/wallet"
)

const pass = "Correct-Horse-9!"

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TONBRIDGE_HOME", home)
	t.Setenv("TONBRIDGE_BRIDGE_URL", "")
	t.Setenv("TONBRIDGE_NO_CONNECTIVITY_POLICY", "")
	t.Setenv("TONBRIDGE_RETRY_DELAY", "")
	t.Setenv("TONBRIDGE_REQUIRE_EMULATION", "")

	cfg, err := app.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Home != home || cfg.BridgeURL != app.DefaultBridgeURL {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.NoConnectivity != subscription.WaitForSignal || cfg.RetryDelay != subscription.DefaultRetryDelay {
		t.Fatalf("unexpected subscription options: %+v", cfg)
	}
	if cfg.RequireEmulation {
		t.Fatal("RequireEmulation on by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("TONBRIDGE_HOME", t.TempDir())
	t.Setenv("TONBRIDGE_BRIDGE_URL", "http://127.0.0.1:9000/bridge")
	t.Setenv("TONBRIDGE_NO_CONNECTIVITY_POLICY", "retry")
	t.Setenv("TONBRIDGE_RETRY_DELAY", "2s")
	t.Setenv("TONBRIDGE_MANIFEST_TIMEOUT", "7")
	t.Setenv("TONBRIDGE_REQUIRE_EMULATION", "true")
	t.Setenv("TONBRIDGE_UNIVERSAL_LINKS", "https://wallet.example/tc, https://alt.example/tc")

	cfg, err := app.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BridgeURL != "http://127.0.0.1:9000/bridge" {
		t.Fatalf("BridgeURL = %q", cfg.BridgeURL)
	}
	if cfg.NoConnectivity != subscription.RetryAfterDelay || cfg.RetryDelay != 2*time.Second {
		t.Fatalf("subscription options = %v %v", cfg.NoConnectivity, cfg.RetryDelay)
	}
	if cfg.ManifestTimeout != 7*time.Second {
		t.Fatalf("ManifestTimeout = %v, want 7s", cfg.ManifestTimeout)
	}
	if !cfg.RequireEmulation || len(cfg.UniversalLinks) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigBadPolicy(t *testing.T) {
	t.Setenv("TONBRIDGE_HOME", t.TempDir())
	t.Setenv("TONBRIDGE_NO_CONNECTIVITY_POLICY", "sometimes")
	if _, err := app.LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted an unknown policy")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := app.NewLogger("debug", "json"); err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if _, err := app.NewLogger("loud", "console"); err == nil {
		t.Fatal("NewLogger accepted an unknown level")
	}
	if _, err := app.NewLogger("info", "xml"); err == nil {
		t.Fatal("NewLogger accepted an unknown format")
	}
}

func TestOpenWallet(t *testing.T) {
	w, err := app.NewWire(app.Config{Home: t.TempDir(), BridgeURL: "http://127.0.0.1:1"}, nil)
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	ctx := context.Background()

	if _, err := w.Open(ctx, pass, ""); err == nil {
		t.Fatal("Open succeeded without a wallet")
	}

	created, _, err := w.Wallets.Create(pass, walletsvc.Options{Address: "0:" + strings.Repeat("1f", 32)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Wallets.Lock()

	a, err := w.Open(ctx, pass, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.Wallet.ID != created.ID {
		t.Fatalf("opened %s, want %s", a.Wallet.ID, created.ID)
	}
	if _, err := w.Wallets.PrivateKey(ctx, created.ID); err != nil {
		t.Fatalf("key not unlocked: %v", err)
	}
	sessions, err := a.Bridge.Sessions(ctx)
	if err != nil || len(sessions) != 0 {
		t.Fatalf("Sessions = %v, %v", sessions, err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := w.Wallets.PrivateKey(ctx, created.ID); !errors.Is(err, walletsvc.ErrKeyUnavailable) {
		t.Fatalf("PrivateKey after Close err = %v, want ErrKeyUnavailable", err)
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	w, err := app.NewWire(app.Config{Home: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	created, _, err := w.Wallets.Create(pass, walletsvc.Options{Address: "0:" + strings.Repeat("1f", 32)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Open(context.Background(), "Wrong-Horse-9!!", created.ID); err == nil {
		t.Fatal("Open succeeded with the wrong passphrase")
	}
}
