package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Lock paces calls to an external service: each Lock waits until at least the
// configured interval has passed since the previous unlock.
type Lock interface {
	Lock(ctx context.Context) (unlock func())
}

type lock struct {
	mu   sync.Mutex
	wait time.Duration
	last time.Time
}

func New(wait time.Duration) Lock {
	return &lock{
		wait: wait,
	}
}

func (l *lock) Lock(ctx context.Context) func() {
	l.mu.Lock()
	elapsed := time.Since(l.last)
	if elapsed < l.wait {
		t := time.NewTimer(l.wait - elapsed)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return func() {
		l.last = time.Now()
		l.mu.Unlock()
	}
}
