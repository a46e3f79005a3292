package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Defaults for RedisLocker.
const (
	DefaultLockTTL       = 5 * time.Minute
	DefaultRetryInterval = 50 * time.Millisecond
	defaultLockPrefix    = "resume-builder:thread-lock:"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// extendScript pushes the expiry forward only while the lock still holds
// our token.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`)

// RedisLocker is a Locker shared by every server instance. A held lock is
// extended every TTL/3 until it is released, so a long turn keeps it, while
// a crashed holder loses it after TTL.
type RedisLocker struct {
	client        *redis.Client
	prefix        string
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLocker creates a locker. Zero durations use the defaults.
func NewRedisLocker(client *redis.Client, ttl, retryInterval time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	return &RedisLocker{
		client:        client,
		prefix:        defaultLockPrefix,
		ttl:           ttl,
		retryInterval: retryInterval,
	}, nil
}

// Lock polls SET NX until the key is acquired or ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := r.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(lockKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// Release with a fresh context so a cancelled turn still unlocks.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, r.client, []string{lockKey}, token).Err()
		})
	}, nil
}

// keepAlive extends the lock until stop is closed or the lock is lost.
func (r *RedisLocker) keepAlive(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := max(r.ttl/3, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := extendScript.Run(ctx, r.client, []string{lockKey}, token, r.ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}
