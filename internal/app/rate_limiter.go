package app

import (
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

// RoomRateLimiter is a per-peer sliding window limit on room creation.
// A non-positive limit disables it. Like Registry it is owned by the
// coordinator loop and is not safe for concurrent use.
type RoomRateLimiter struct {
	history  map[domain.PeerID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[domain.PeerID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RoomRateLimiter) Allow(pid domain.PeerID) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[pid]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[pid] = fresh
		return false
	}
	rl.history[pid] = append(fresh, now)
	return true
}

func (rl *RoomRateLimiter) Forget(pid domain.PeerID) {
	if rl == nil {
		return
	}
	delete(rl.history, pid)
}
