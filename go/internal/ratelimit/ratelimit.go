// Package ratelimit bounds outbound calls to the upstream provider. Denied
// callers wait a jittered interval and proceed rather than failing hard;
// upstream soft-throttling is tolerable for this workload.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limiter grants at most maxPerWindow acquisitions per key within a rolling
// window. Safe for concurrent callers sharing one instance.
type Limiter struct {
	mu           sync.Mutex
	clock        clockwork.Clock
	maxPerWindow int
	window       time.Duration
	grants       map[string][]time.Time
	acquires     int
}

// sweepEvery bounds how many acquires may pass between full sweeps of the
// grants map, so keys seen once (one-off caller IPs) do not pile up.
const sweepEvery = 64

// NewLimiter creates a limiter of maxPerWindow grants per rolling second.
func NewLimiter(clock clockwork.Clock, maxPerWindow int) *Limiter {
	return &Limiter{
		clock:        clock,
		maxPerWindow: maxPerWindow,
		window:       time.Second,
		grants:       make(map[string][]time.Time),
	}
}

// Acquire reports whether the caller may proceed under key's window.
func (l *Limiter) Acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	cutoff := now.Add(-l.window)

	l.acquires++
	if l.acquires%sweepEvery == 0 {
		l.sweep(cutoff)
	}

	kept := l.grants[key][:0]
	for _, t := range l.grants[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.maxPerWindow {
		l.grants[key] = kept
		return false
	}

	l.grants[key] = append(kept, now)
	return true
}

// sweep drops every key whose grants all fall before cutoff. Caller holds mu.
func (l *Limiter) sweep(cutoff time.Time) {
	for key, ts := range l.grants {
		live := false
		for _, t := range ts {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.grants, key)
		}
	}
}

// Wait sleeps a jittered base interval, returning early if ctx is done.
// Callers use it after a denied Acquire before proceeding.
func (l *Limiter) Wait(ctx context.Context, base time.Duration) error {
	select {
	case <-l.clock.After(Jitter(base, 0.15)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jitter returns d randomized by ±ratio (0.15 → ±15%). Never negative.
func Jitter(d time.Duration, ratio float64) time.Duration {
	delta := float64(d) * ratio
	out := float64(d) + (rand.Float64()*2-1)*delta
	if out < 0 {
		return 0
	}
	return time.Duration(out)
}
