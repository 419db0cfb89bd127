package load

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	redispkg "github.com/Ramsey-B/aster/pkg/redis"
)

// Locker serializes load cycles. The load_id computation and the dimension
// cache seed are read-then-write sequences, so at most one cycle may run
// against a warehouse at a time.
type Locker interface {
	// TryLock acquires the lock and returns its release func, or
	// ErrLoadInProgress when another cycle holds it.
	TryLock(ctx context.Context) (func(), error)
}

// LocalLocker serializes cycles within a single process.
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryLock(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrLoadInProgress
	}
	return l.mu.Unlock, nil
}

// RedisLocker serializes cycles across processes through a Redis lock.
type RedisLocker struct {
	locker *redispkg.Locker
	logger ectologger.Logger
	key    string
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(locker *redispkg.Locker, logger ectologger.Logger, key string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		locker: locker,
		logger: logger,
		key:    key,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(), error) {
	lock, err := l.locker.TryAcquire(ctx, l.key, l.ttl, l.wait)
	if err != nil {
		if errors.Is(err, redispkg.ErrLockNotAcquired) {
			return nil, ErrLoadInProgress
		}
		return nil, err
	}

	release := func() {
		// release must run even when the request context is already gone
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			l.logger.WithError(err).Warnf("failed to release load lock %s", l.key)
		}
	}
	return release, nil
}
