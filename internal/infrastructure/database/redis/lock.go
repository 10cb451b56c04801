package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/pkg/errors"
)

const (
	DefaultLockTTL    = 2 * time.Minute
	DefaultRetryDelay = 200 * time.Millisecond
	DefaultLockWait   = 90 * time.Second
	releaseTimeout    = 3 * time.Second
)

var ErrLockNotAcquired = errors.New(errors.ErrCodeReceptorLockNotAcquired, "failed to acquire receptor lock")

type LockOption func(*lockConfig)

// Non-positive durations leave the default in place.

// WithLockTTL bounds how long a crashed holder can block others.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { setPositive(&c.ttl, ttl) }
}

// WithRetryDelay sets the pause between polls of a held key.
func WithRetryDelay(delay time.Duration) LockOption {
	return func(c *lockConfig) { setPositive(&c.retryDelay, delay) }
}

// WithLockWait caps the total time Acquire polls a held key.
func WithLockWait(wait time.Duration) LockOption {
	return func(c *lockConfig) { setPositive(&c.wait, wait) }
}

func setPositive(dst *time.Duration, d time.Duration) {
	if d > 0 {
		*dst = d
	}
}

type lockConfig struct {
	ttl        time.Duration
	retryDelay time.Duration
	wait       time.Duration
}

// ReceptorLocker is a SET NX PX mutex keyed by receptor path.  It satisfies
// the docking executor's locker contract.
type ReceptorLocker struct {
	client *Client
	config lockConfig
	logger logging.Logger
}

func NewReceptorLocker(client *Client, log logging.Logger, opts ...LockOption) *ReceptorLocker {
	cfg := lockConfig{
		ttl:        DefaultLockTTL,
		retryDelay: DefaultRetryDelay,
		wait:       DefaultLockWait,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ReceptorLocker{client: client, config: cfg, logger: log}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Acquire blocks until the lock for name is held, the wait budget runs out or
// ctx ends.  The returned release is idempotent.
func (l *ReceptorLocker) Acquire(ctx context.Context, name string) (func(), error) {
	if l.client.isClosed() {
		return nil, ErrClientClosed
	}
	key := l.client.Key("lock", "receptor", name)
	value := uuid.NewString()
	deadline := time.Now().Add(l.config.wait)
	rdb := l.client.GetUnderlyingClient()

	for {
		ok, err := rdb.SetNX(ctx, key, value, l.config.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
		}
		if ok {
			l.logger.Debug("receptor lock acquired", logging.String("key", key))
			return l.releaser(key, value), nil
		}
		if !time.Now().Add(l.config.retryDelay).Before(deadline) {
			return nil, ErrLockNotAcquired.WithDetail(key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.config.retryDelay):
		}
	}
}

func (l *ReceptorLocker) releaser(key, value string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			res, err := unlockScript.Run(ctx, l.client.GetUnderlyingClient(), []string{key}, value).Int64()
			if err != nil {
				l.logger.Warn("failed to release receptor lock", logging.String("key", key), logging.Err(err))
				return
			}
			if res == 0 {
				l.logger.Warn("receptor lock expired before release", logging.String("key", key))
			}
		})
	}
}

//Personal.AI order the ending
