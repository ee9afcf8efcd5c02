package internal

import (
	"testing"
	"time"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	limiter := NewRateLimiter(2, 50*time.Millisecond)

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("first two hits should pass")
	}
	if limiter.Allow("a") {
		t.Fatal("third hit inside the window should be rejected")
	}
	if !limiter.Allow("b") {
		t.Fatal("limits are per key")
	}

	time.Sleep(60 * time.Millisecond)
	if !limiter.Allow("a") {
		t.Fatal("hits should pass again once the window slides")
	}
}

func TestPresenceTrackerCounts(t *testing.T) {
	presence := NewPresenceTracker()
	if presence.Online(1) {
		t.Fatal("nobody should be online initially")
	}
	presence.Increment(1)
	presence.Increment(1)
	if !presence.Online(1) {
		t.Fatal("user 1 should be online")
	}
	presence.Decrement(1)
	if !presence.Online(1) {
		t.Fatal("one of two connections closing keeps the user online")
	}
	presence.Decrement(1)
	if presence.Online(1) {
		t.Fatal("user 1 should be offline after the last disconnect")
	}
	if presence.ActiveCount() != 0 {
		t.Fatalf("active count = %d, want 0", presence.ActiveCount())
	}
}
