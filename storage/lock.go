package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultLockPoll is how often WithLock retries a held lock.
const DefaultLockPoll = 100 * time.Millisecond

// LocalLocker is a Locker for a single process.
// Locks expire after their ttl so a caller that never releases cannot wedge rebuilds.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

var _ Locker = (*LocalLocker)(nil)

// NewLocalLocker creates an in-process Locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// Acquire takes the named lock if it is free or expired.
func (l *LocalLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expires, ok := l.held[name]; ok && now.Before(expires) {
		return false, nil
	}
	l.held[name] = now.Add(ttl)
	return true, nil
}

// Release frees the named lock.
func (l *LocalLocker) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; !ok {
		return fmt.Errorf("%w: %s", ErrLockNotHeld, name)
	}
	delete(l.held, name)
	return nil
}

// WithLock runs fn while holding the named lock, polling until it is free.
// Returns ErrLockNotAcquired if ctx ends first.
func WithLock(ctx context.Context, locker Locker, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	ticker := time.NewTicker(DefaultLockPoll)
	defer ticker.Stop()

	for {
		ok, err := locker.Acquire(ctx, name, ttl)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, name, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, name, ctx.Err())
		case <-ticker.C:
		}
	}

	defer func() {
		// The caller's context may already be done; release regardless.
		_ = locker.Release(context.WithoutCancel(ctx), name)
	}()
	return fn(ctx)
}
