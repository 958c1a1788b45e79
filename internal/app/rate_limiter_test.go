package app

import (
	"testing"
	"time"
)

func TestRoomRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRoomRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a1") || !rl.Allow("a1") {
		t.Fatal("first two attempts must pass")
	}
	if rl.Allow("a1") {
		t.Fatal("third attempt inside window must fail")
	}
	if !rl.Allow("b1") {
		t.Fatal("limit is per peer")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("a1") {
		t.Fatal("attempt after window must pass")
	}

	rl.Forget("a1")
	if !rl.Allow("a1") || !rl.Allow("a1") {
		t.Fatal("Forget must clear history")
	}
}

func TestRoomRateLimiterDisabled(t *testing.T) {
	rl := NewRoomRateLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		if !rl.Allow("a1") {
			t.Fatal("disabled limiter rejected")
		}
	}
	var nilLimiter *RoomRateLimiter
	if !nilLimiter.Allow("a1") {
		t.Fatal("nil limiter rejected")
	}
}
