package server

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestMultiLimiterAllow(t *testing.T) {
	ml := newMultiLimiter(rate.Limit(2), 2, time.Minute)
	key := "10.0.0.1"
	if !ml.allow(key) {
		t.Fatal("first allow should pass")
	}
	if !ml.allow(key) {
		t.Fatal("second allow should pass")
	}
	if ml.allow(key) {
		t.Fatal("third allow should be rate limited")
	}
	if !ml.allow("10.0.0.2") {
		t.Fatal("distinct keys have independent buckets")
	}
}

func TestMultiLimiterSweepsStaleEntries(t *testing.T) {
	ml := newMultiLimiter(rate.Limit(1), 1, 10*time.Millisecond)
	ml.allow("a")
	ml.allow("b")
	time.Sleep(20 * time.Millisecond)
	ml.allow("c")
	ml.mu.Lock()
	n := len(ml.entries)
	ml.mu.Unlock()
	if n != 1 {
		t.Fatalf("stale entries not swept, have %d", n)
	}
}
