package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/fieldzone/go/internal/possession"
)

type fakeTracker struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
}

func (f *fakeTracker) Reconcile(context.Context) (possession.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return possession.Result{Checked: 1}, f.err
}

func (f *fakeTracker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStepper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeStepper) Step(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeStepper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeScanner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeScanner) Scan(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 0, nil
}

func (f *fakeScanner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// advanceTick pushes the fake clock past the maximum jittered wait and blocks
// until the tick's reconcile has run.
func advanceTick(t *testing.T, clock *clockwork.FakeClock, tracker *fakeTracker) {
	t.Helper()
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(2 * time.Second)
	select {
	case <-tracker.done:
	case <-time.After(5 * time.Second):
		t.Fatal("tick did not run")
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := &fakeTracker{done: make(chan struct{})}
	stepper := &fakeStepper{}
	driver := NewDriver(clock, tracker, stepper, nil, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		driver.Run(ctx)
		close(stopped)
	}()

	for i := 0; i < 3; i++ {
		advanceTick(t, clock, tracker)
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not stop")
	}

	assert.Equal(t, 3, tracker.count())
	assert.Equal(t, 3, stepper.count())
}

func TestRun_ScansEveryNthTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := &fakeTracker{done: make(chan struct{})}
	scanner := &fakeScanner{}
	cfg := DefaultConfig()
	cfg.ScanEveryTicks = 2
	driver := NewDriver(clock, tracker, &fakeStepper{}, scanner, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		driver.Run(ctx)
		close(stopped)
	}()

	for i := 0; i < 4; i++ {
		advanceTick(t, clock, tracker)
	}
	cancel()
	<-stopped

	assert.Equal(t, 2, scanner.count())
}

func TestRun_ReconcileErrorDoesNotStopLoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := &fakeTracker{done: make(chan struct{}), err: errors.New("upstream down")}
	stepper := &fakeStepper{}
	driver := NewDriver(clock, tracker, stepper, nil, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		driver.Run(ctx)
		close(stopped)
	}()

	advanceTick(t, clock, tracker)
	advanceTick(t, clock, tracker)
	cancel()
	<-stopped

	assert.Equal(t, 2, tracker.count())
	// The simulator still steps on ticks whose reconcile failed.
	assert.Equal(t, 2, stepper.count())
}
