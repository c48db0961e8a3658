package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the lock could not be taken before WaitTimeout.
var ErrLockTimeout = errors.New("redis: lock wait timeout")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockConfig configures Locker.
type LockConfig struct {
	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration
	// WaitTimeout bounds how long Lock polls for a held key.
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// DefaultLockConfig returns sensible defaults for get-or-create sections,
// which take a couple of remote round trips.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL:          15 * time.Second,
		WaitTimeout:  10 * time.Second,
		PollInterval: 50 * time.Millisecond,
	}
}

// Locker is a SET NX PX mutex keyed by string.
type Locker struct {
	rdb    *redis.Client
	config LockConfig
}

// NewLocker creates a Locker on top of the client.
func NewLocker(c *Client, cfg LockConfig) *Locker {
	d := DefaultLockConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = d.TTL
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = d.WaitTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = d.PollInterval
	}
	return &Locker{rdb: c.rdb, config: cfg}
}

// Lock blocks until key is acquired, ctx is done, or WaitTimeout passes.
func (l *Locker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	redisKey := LockKey(key)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.config.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(waitCtx, redisKey, token, l.config.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire lock %s: %w", redisKey, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Err()
			}, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// LockKey hashes the natural key so that arbitrary uids stay within a
// predictable key length.
func LockKey(key string) string {
	sum := sha1.Sum([]byte(key))
	return PrefixLock + hex.EncodeToString(sum[:])
}
