package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tonbridge/internal/domain"
	"tonbridge/internal/store"
)

var fastKDF = store.KDFParams{N: 1 << 10, R: 8, P: 1}

func newSealer(t *testing.T, home string) *store.Sealer {
	t.Helper()
	s, err := store.OpenSealerKDF(home, "pass-phrase-123", fastKDF)
	if err != nil {
		t.Fatalf("open sealer: %v", err)
	}
	return s
}

func session(wallet domain.WalletID, peer domain.ClientID, at time.Time) domain.AppSession {
	return domain.AppSession{
		WalletID:          wallet,
		PeerClientID:      peer,
		PeerPublicKey:     domain.X25519Public{1, 2, 3},
		ClientID:          "ours",
		SessionPrivateKey: domain.X25519Private{9, 8, 7},
		Grants:            []domain.CapabilityGrant{{Name: domain.ItemAddress, Address: "0:ab"}},
		AppName:           "Example",
		AppURL:            "https://app.example",
		CreatedAt:         at,
	}
}

func TestWallet_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()
	pass := "pass"

	var ws domain.WalletStore = store.NewWalletFileStore(home).WithKDF(fastKDF)

	key := domain.WalletKey{
		Wallet: domain.Wallet{
			ID:        "w1",
			Address:   "0:" + strings.Repeat("ab", 32),
			Network:   domain.NetworkTestnet,
			PublicKey: domain.Ed25519Public{3},
		},
		PrivateKey: domain.Ed25519Private{4},
	}

	if err := ws.SaveWallet(pass, key); err != nil {
		t.Fatalf("save wallet: %v", err)
	}

	got, ok, err := ws.LoadWallet(pass, "w1")
	if err != nil || !ok {
		t.Fatalf("load wallet: ok=%v err=%v", ok, err)
	}
	if got.Wallet != key.Wallet || got.PrivateKey != key.PrivateKey {
		t.Fatalf("mismatch after load")
	}

	ids, err := ws.ListWallets()
	if err != nil {
		t.Fatalf("list wallets: %v", err)
	}
	if len(ids) != 1 || ids[0] != "w1" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestWallet_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	ws := store.NewWalletFileStore(home).WithKDF(fastKDF)

	if err := ws.SaveWallet("correct", domain.WalletKey{Wallet: domain.Wallet{ID: "w1"}}); err != nil {
		t.Fatalf("save wallet: %v", err)
	}
	if _, _, err := ws.LoadWallet("wrong", "w1"); !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("err = %v, want ErrWrongPassphrase", err)
	}
	if _, ok, err := ws.LoadWallet("correct", "missing"); ok || err != nil {
		t.Fatalf("missing wallet: ok=%v err=%v", ok, err)
	}
}

func TestSealer_ReopenAndWrongPassphrase(t *testing.T) {
	home := t.TempDir()
	s := newSealer(t, home)

	sealed, err := s.Seal([]byte("secret"), []byte("ad"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	again := newSealer(t, home)
	pt, err := again.Open(sealed, []byte("ad"))
	if err != nil || string(pt) != "secret" {
		t.Fatalf("open after reopen: %q, %v", pt, err)
	}
	if _, err := again.Open(sealed, []byte("other")); err == nil {
		t.Fatal("open with wrong ad should fail")
	}

	if _, err := store.OpenSealerKDF(home, "nope", fastKDF); !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("err = %v, want ErrWrongPassphrase", err)
	}
}

func TestAppSessions_SaveLoadListDelete(t *testing.T) {
	ctx := context.Background()
	home := t.TempDir()
	var ss domain.AppSessionStore = store.NewAppSessionFileStore(home, newSealer(t, home))

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := session("w1", "peer-a", t0.Add(time.Minute))
	b := session("w1", "peer-b", t0)
	for _, s := range []domain.AppSession{a, b, session("w2", "peer-c", t0)} {
		if err := ss.SaveAppSession(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, ok, err := ss.LoadAppSession(ctx, "w1", "peer-a")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.SessionPrivateKey != a.SessionPrivateKey || got.PeerPublicKey != a.PeerPublicKey || got.AppName != "Example" {
		t.Fatalf("unexpected session %+v", got)
	}
	if len(got.Grants) != 1 || got.Grants[0].Address != "0:ab" {
		t.Fatalf("grants = %+v", got.Grants)
	}

	list, err := ss.ListAppSessions(ctx, "w1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].PeerClientID != "peer-b" || list[1].PeerClientID != "peer-a" {
		t.Fatalf("list order = %v", list)
	}

	if _, ok, _ := ss.LoadAppSession(ctx, "w1", "peer-c"); ok {
		t.Fatal("sessions leaked across wallets")
	}

	removed, err := ss.DeleteAppSession(ctx, "w1", "peer-a")
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	removed, err = ss.DeleteAppSession(ctx, "w1", "peer-a")
	if err != nil || removed {
		t.Fatalf("second delete: removed=%v err=%v", removed, err)
	}
	if _, ok, _ := ss.LoadAppSession(ctx, "w1", "peer-a"); ok {
		t.Fatal("session still present after delete")
	}
}

func TestAppSessions_ReplaceSamePeer(t *testing.T) {
	ctx := context.Background()
	home := t.TempDir()
	ss := store.NewAppSessionFileStore(home, newSealer(t, home))

	first := session("w1", "peer", time.Now())
	second := first
	second.SessionPrivateKey = domain.X25519Private{42}
	second.AppName = "Renamed"

	_ = ss.SaveAppSession(ctx, first)
	if err := ss.SaveAppSession(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, _ := ss.ListAppSessions(ctx, "w1")
	if len(list) != 1 || list[0].AppName != "Renamed" || list[0].SessionPrivateKey != second.SessionPrivateKey {
		t.Fatalf("list = %+v", list)
	}
}

func TestAppSessions_PrivateKeyNotStoredInClear(t *testing.T) {
	ctx := context.Background()
	home := t.TempDir()
	ss := store.NewAppSessionFileStore(home, newSealer(t, home))

	sess := session("w1", "peer", time.Now())
	if err := ss.SaveAppSession(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(home, "sessions", "w1.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(raw), "session_private_key") {
		t.Fatal("session private key written in clear")
	}
}

func TestAppSessions_RequiresSealer(t *testing.T) {
	ss := store.NewAppSessionFileStore(t.TempDir(), nil)
	err := ss.SaveAppSession(context.Background(), session("w1", "p", time.Now()))
	if !errors.Is(err, store.ErrSealerRequired) {
		t.Fatalf("err = %v, want ErrSealerRequired", err)
	}
}

func TestCursor_SaveLoad(t *testing.T) {
	ctx := context.Background()
	var cs domain.CursorStore = store.NewCursorFileStore(t.TempDir())

	if _, ok, err := cs.LoadCursor(ctx, "w1"); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	for _, id := range []string{"10", "11"} {
		if err := cs.SaveCursor(ctx, domain.ResumeCursor{WalletID: "w1", LastEventID: id}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	c, ok, err := cs.LoadCursor(ctx, "w1")
	if err != nil || !ok || c.LastEventID != "11" {
		t.Fatalf("load: %+v ok=%v err=%v", c, ok, err)
	}
}

func TestCursor_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	home := t.TempDir()

	if err := store.NewCursorFileStore(home).SaveCursor(ctx, domain.ResumeCursor{WalletID: "w1", LastEventID: "99"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	c, ok, err := store.NewCursorFileStore(home).LoadCursor(ctx, "w1")
	if err != nil || !ok || c.LastEventID != "99" {
		t.Fatalf("reopen: %+v ok=%v err=%v", c, ok, err)
	}
}
