package purchasesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/solucions-socials/platform/pkg/common/logger"
)

// Locker grants one sync at a time per company. Acquire fails with
// ErrSyncInProgress instead of waiting.
type Locker interface {
	Acquire(ctx context.Context, company string) (release func(), err error)
}

// LocalLocker serialises syncs inside a single process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, company string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[company]; busy {
		return nil, ErrSyncInProgress
	}
	l.held[company] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, company)
			l.mu.Unlock()
		})
	}, nil
}

// RedisLocker shares the per-company lock between service replicas. The lock
// is refreshed every half TTL while held, so a sync longer than the TTL keeps
// it; a crashed replica loses it after at most one TTL.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redislock.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, company string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "holded:sync:"+company, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrSyncInProgress
	}
	if err != nil {
		return nil, err
	}

	stop := keepAlive(lock, l.ttl, company)
	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.WithCompany(company).WithError(err).Warn("failed to release sync lock")
			}
		})
	}, nil
}

type refresher interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
}

// keepAlive extends lock every ttl/2 until stop is called or a refresh fails.
func keepAlive(lock refresher, ttl time.Duration, company string) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		interval := ttl / 2
		if interval <= 0 {
			interval = ttl
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), ttl/2)
				err := lock.Refresh(ctx, ttl, nil)
				cancel()
				if err != nil {
					logger.WithCompany(company).WithError(err).Error("failed to refresh sync lock")
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
