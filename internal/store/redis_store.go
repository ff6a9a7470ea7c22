package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tonbridge/internal/domain"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "tonbridge:"

// RedisStore keeps app sessions and resume cursors in Redis. Sessions of a
// wallet live in one hash keyed by peer client id; cursors are plain keys.
type RedisStore struct {
	client *redis.Client
	prefix string
	sealer *Sealer
}

// NewRedisStore connects to redisURL (redis://[:password@]host:port/db) and
// verifies the connection.
func NewRedisStore(ctx context.Context, redisURL, prefix string, sealer *Sealer) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisStoreFromClient(client, prefix, sealer), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string, sealer *Sealer) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, sealer: sealer}
}

func (r *RedisStore) sessionsKey(wallet domain.WalletID) string {
	return r.prefix + "sessions:" + string(wallet)
}

func (r *RedisStore) cursorKey(wallet domain.WalletID) string {
	return r.prefix + "cursor:" + string(wallet)
}

func (r *RedisStore) SaveAppSession(ctx context.Context, sess domain.AppSession) error {
	rec, err := toRecord(r.sealer, sess)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.sessionsKey(sess.WalletID), string(sess.PeerClientID), data).Err()
}

func (r *RedisStore) LoadAppSession(ctx context.Context, wallet domain.WalletID, peer domain.ClientID) (domain.AppSession, bool, error) {
	data, err := r.client.HGet(ctx, r.sessionsKey(wallet), string(peer)).Bytes()
	if err == redis.Nil {
		return domain.AppSession{}, false, nil
	}
	if err != nil {
		return domain.AppSession{}, false, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.AppSession{}, false, err
	}
	sess, err := fromRecord(r.sealer, rec)
	if err != nil {
		return domain.AppSession{}, false, err
	}
	return sess, true, nil
}

func (r *RedisStore) ListAppSessions(ctx context.Context, wallet domain.WalletID) ([]domain.AppSession, error) {
	all, err := r.client.HGetAll(ctx, r.sessionsKey(wallet)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.AppSession, 0, len(all))
	for _, v := range all {
		var rec sessionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, err
		}
		sess, err := fromRecord(r.sealer, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sortSessions(out)
	return out, nil
}

func (r *RedisStore) DeleteAppSession(ctx context.Context, wallet domain.WalletID, peer domain.ClientID) (bool, error) {
	n, err := r.client.HDel(ctx, r.sessionsKey(wallet), string(peer)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) LoadCursor(ctx context.Context, wallet domain.WalletID) (domain.ResumeCursor, bool, error) {
	data, err := r.client.Get(ctx, r.cursorKey(wallet)).Bytes()
	if err == redis.Nil {
		return domain.ResumeCursor{}, false, nil
	}
	if err != nil {
		return domain.ResumeCursor{}, false, err
	}
	var c domain.ResumeCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.ResumeCursor{}, false, err
	}
	return c, true, nil
}

// SaveCursor writes c with no expiry. Durability follows the server's
// persistence configuration.
func (r *RedisStore) SaveCursor(ctx context.Context, c domain.ResumeCursor) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.cursorKey(c.WalletID), data, 0).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var (
	_ domain.AppSessionStore = (*RedisStore)(nil)
	_ domain.CursorStore     = (*RedisStore)(nil)
)
