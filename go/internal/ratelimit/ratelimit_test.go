package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_DeniesBeyondWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewLimiter(clock, 3)

	assert.True(t, l.Acquire("espn"))
	assert.True(t, l.Acquire("espn"))
	assert.True(t, l.Acquire("espn"))
	assert.False(t, l.Acquire("espn"))
}

func TestLimiter_WindowSlides(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewLimiter(clock, 2)

	assert.True(t, l.Acquire("espn"))
	clock.Advance(600 * time.Millisecond)
	assert.True(t, l.Acquire("espn"))
	assert.False(t, l.Acquire("espn"))

	// first grant falls out of the rolling second
	clock.Advance(500 * time.Millisecond)
	assert.True(t, l.Acquire("espn"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewLimiter(clock, 1)

	assert.True(t, l.Acquire("espn"))
	assert.False(t, l.Acquire("espn"))
	assert.True(t, l.Acquire("10.0.0.1"))
}

func TestLimiter_EvictsIdleKeys(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewLimiter(clock, 1)

	// One-off callers, never seen again.
	for i := 0; i < 200; i++ {
		assert.True(t, l.Acquire(fmt.Sprintf("10.0.0.%d", i)))
	}
	clock.Advance(2 * time.Second)

	// Enough traffic on a single key to trigger a sweep.
	for i := 0; i < sweepEvery; i++ {
		l.Acquire("espn")
		clock.Advance(time.Second + time.Millisecond)
	}

	l.mu.Lock()
	keys := len(l.grants)
	l.mu.Unlock()
	assert.LessOrEqual(t, keys, 1)
}

func TestLimiter_ConcurrentAcquire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewLimiter(clock, 10)

	var wg sync.WaitGroup
	granted := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted <- l.Acquire("espn")
		}()
	}
	wg.Wait()
	close(granted)

	count := 0
	for ok := range granted {
		if ok {
			count++
		}
	}
	assert.Equal(t, 10, count)
}

func TestJitter_StaysWithinRatio(t *testing.T) {
	base := 300 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := Jitter(base, 0.15)
		assert.GreaterOrEqual(t, d, 255*time.Millisecond)
		assert.LessOrEqual(t, d, 345*time.Millisecond)
	}
}

func TestJitter_NeverNegative(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, Jitter(time.Nanosecond, 5), time.Duration(0))
	}
}
