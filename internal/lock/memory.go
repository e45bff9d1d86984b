package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a process-local Locker for single-instance deployments and tests
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), clock: time.Now}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, ErrNotAcquired
	}
	expiry := now.Add(ttl)
	l.held[key] = expiry

	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key] == expiry {
			delete(l.held, key)
		}
		return nil
	}, nil
}
