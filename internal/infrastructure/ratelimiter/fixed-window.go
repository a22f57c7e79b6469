package ratelimiter

import (
	"sync"
	"time"
)

// UserLimiter throttles inbound chat events per user with a fixed window.
type UserLimiter struct {
	mu      sync.Mutex
	windows map[int64]*window
	limit   int
	size    time.Duration
	now     func() time.Time

	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

type window struct {
	count   int
	resetAt time.Time
}

func NewUserLimiter(limit int, size time.Duration) *UserLimiter {
	rl := &UserLimiter{
		windows:     make(map[int64]*window),
		limit:       limit,
		size:        size,
		now:         time.Now,
		cleanupTick: time.NewTicker(size),
		done:        make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// Allow records one event for userID. When the user is over the limit it
// returns false and the time left until the window resets.
func (rl *UserLimiter) Allow(userID int64) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[userID]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[userID] = &window{count: 1, resetAt: now.Truncate(rl.size).Add(rl.size)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, w.resetAt.Sub(now)
	}
	w.count++
	return true, 0
}

func (rl *UserLimiter) startCleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *UserLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for id, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, id)
		}
	}
}

func (rl *UserLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
