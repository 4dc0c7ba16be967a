package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCollectionLocked means another ingestion run holds the writer lock
// for the target collection.
var ErrCollectionLocked = errors.New("collection is locked by another ingestion run")

// CollectionLocker enforces the advisory single-writer discipline: at
// most one ingestion pipeline writes a given collection at a time.
// Readers never take the lock.
type CollectionLocker interface {
	// Acquire takes the writer lock for collection, tagging it with the
	// run's token. Returns ErrCollectionLocked when already held.
	Acquire(ctx context.Context, collection, token string) error
	// Release drops the lock if this run still holds it.
	Release(ctx context.Context, collection, token string) error
}

// RedisLocker implements CollectionLocker with SET NX EX. The TTL
// guards against a crashed run holding the lock forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker connects to Redis and verifies it responds.
func NewRedisLocker(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisLocker, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return &RedisLocker{client: client, ttl: ttl}, nil
}

func lockKey(collection string) string { return "climafact:ingest:" + collection }

// Acquire implements CollectionLocker.
func (l *RedisLocker) Acquire(ctx context.Context, collection, token string) error {
	ok, err := l.client.SetNX(ctx, lockKey(collection), token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("collection %q: %w", collection, ErrCollectionLocked)
	}
	return nil
}

// releaseScript deletes the lock only when this run still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release implements CollectionLocker.
func (l *RedisLocker) Release(ctx context.Context, collection, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey(collection)}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release ingest lock: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (l *RedisLocker) Close() error { return l.client.Close() }

// NopLocker satisfies CollectionLocker without any coordination, for
// single-process runs where no Redis is configured.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string, string) error { return nil }
func (NopLocker) Release(context.Context, string, string) error { return nil }
