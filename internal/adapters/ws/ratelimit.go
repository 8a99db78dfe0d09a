package ws

import (
	"sync"
	"time"

	"github.com/dkeye/Tabletop/internal/domain"
)

// EventRateLimiter caps how many events one player may submit inside a
// sliding window. Anything over the cap is reported back as a rejection
// before it ever reaches the dispatcher.
type EventRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.PlayerID][]time.Time
	limit    int
	interval time.Duration
}

func NewEventRateLimiter(limit int, interval time.Duration) *EventRateLimiter {
	return &EventRateLimiter{
		history:  make(map[domain.PlayerID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *EventRateLimiter) Allow(pid domain.PlayerID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[pid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[pid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[pid] = fresh
	return true
}

// Forget drops a player's window when the connection goes away.
func (rl *EventRateLimiter) Forget(pid domain.PlayerID) {
	rl.mu.Lock()
	delete(rl.history, pid)
	rl.mu.Unlock()
}
