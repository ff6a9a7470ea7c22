package store_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tonbridge/internal/domain"
	"tonbridge/internal/store"
)

// newRedisStore runs against an in-process server, or against the server
// at TONBRIDGE_TEST_REDIS_URL (e.g. redis://localhost:6379/15) when set.
func newRedisStore(t *testing.T) *store.RedisStore {
	t.Helper()
	url := os.Getenv("TONBRIDGE_TEST_REDIS_URL")
	if url == "" {
		url = "redis://" + miniredis.RunT(t).Addr()
	}
	home := t.TempDir()
	prefix := "tonbridge-test:" + uuid.NewString() + ":"
	rs, err := store.NewRedisStore(context.Background(), url, prefix, newSealer(t, home))
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })
	return rs
}

func TestRedis_Sessions(t *testing.T) {
	ctx := context.Background()
	rs := newRedisStore(t)

	a := session("w1", "peer-a", time.Now().Add(-time.Hour))
	b := session("w1", "peer-b", time.Now())
	for _, s := range []domain.AppSession{a, b} {
		if err := rs.SaveAppSession(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, ok, err := rs.LoadAppSession(ctx, "w1", "peer-a")
	if err != nil || !ok || got.SessionPrivateKey != a.SessionPrivateKey {
		t.Fatalf("load: %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, err := rs.LoadAppSession(ctx, "w1", "nobody"); ok || err != nil {
		t.Fatalf("missing: ok=%v err=%v", ok, err)
	}

	list, err := rs.ListAppSessions(ctx, "w1")
	if err != nil || len(list) != 2 || list[0].PeerClientID != "peer-a" {
		t.Fatalf("list: %v err=%v", list, err)
	}

	removed, err := rs.DeleteAppSession(ctx, "w1", "peer-a")
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	_, _ = rs.DeleteAppSession(ctx, "w1", "peer-b")
}

func TestRedis_Cursor(t *testing.T) {
	ctx := context.Background()
	rs := newRedisStore(t)

	if _, ok, err := rs.LoadCursor(ctx, "w1"); ok || err != nil {
		t.Fatalf("empty: ok=%v err=%v", ok, err)
	}
	if err := rs.SaveCursor(ctx, domain.ResumeCursor{WalletID: "w1", LastEventID: "5"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	c, ok, err := rs.LoadCursor(ctx, "w1")
	if err != nil || !ok || c.LastEventID != "5" {
		t.Fatalf("load: %+v ok=%v err=%v", c, ok, err)
	}
}

func TestRedis_PrivateKeyNotStoredInClear(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rs := store.NewRedisStoreFromClient(client, "", newSealer(t, t.TempDir()))
	t.Cleanup(func() { _ = rs.Close() })

	if err := rs.SaveAppSession(ctx, session("w1", "peer", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw := mr.HGet(store.DefaultRedisPrefix+"sessions:w1", "peer")
	if raw == "" {
		t.Fatal("session not written under the default prefix")
	}
	if strings.Contains(raw, "session_private_key") {
		t.Fatal("session private key written in clear")
	}
}

func TestRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := store.NewRedisStore(context.Background(), "redis://"+addr, "", newSealer(t, t.TempDir()))
	if err == nil {
		t.Fatal("NewRedisStore succeeded without a server")
	}
}
