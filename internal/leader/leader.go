// Package leader decides whether this process may advance and persist the
// global phase state. Leadership is best-effort: the engine stays correct
// under concurrent writers (last write wins plus reconciliation), so a
// lost lock only costs a little visible jitter, never consistency.
package leader

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Elector interface {
	// IsLeader reports whether this process should drive phase advancement
	// right now.
	IsLeader(ctx context.Context) bool
}

// Static is an elector with a fixed answer. Static(true) is the default for
// single-process deployments.
type Static bool

func (s Static) IsLeader(context.Context) bool { return bool(s) }

const (
	lockKey = "vleague:leader"
	lockTTL = 10 * time.Second
)

// lockCommands is the slice of the redis client the elector needs. Narrowed
// to an interface so the lock protocol tests against a fake.
type lockCommands interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisElector holds an advisory lock in redis (SET NX with TTL). Each
// IsLeader call acquires or refreshes the lock; any redis error demotes
// the caller until the next attempt.
type RedisElector struct {
	client lockCommands
	id     string
}

func NewRedisElector(client *redis.Client) *RedisElector {
	return &RedisElector{client: client, id: uuid.New().String()}
}

func (e *RedisElector) IsLeader(ctx context.Context) bool {
	ok, err := e.client.SetNX(ctx, lockKey, e.id, lockTTL).Result()
	if err != nil {
		slog.Warn("leader lock unavailable", "error", err)
		return false
	}
	if ok {
		return true
	}
	holder, err := e.client.Get(ctx, lockKey).Result()
	if err != nil || holder != e.id {
		return false
	}
	// Still ours; push the expiry out.
	if err := e.client.Expire(ctx, lockKey, lockTTL).Err(); err != nil {
		slog.Warn("leader lock refresh failed", "error", err)
		return false
	}
	return true
}

// Release drops the lock if this process holds it, letting another process
// take over immediately on shutdown.
func (e *RedisElector) Release(ctx context.Context) {
	holder, err := e.client.Get(ctx, lockKey).Result()
	if err == nil && holder == e.id {
		e.client.Del(ctx, lockKey)
	}
}
