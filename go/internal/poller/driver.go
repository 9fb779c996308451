package poller

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/possession"
	"github.com/mcdev12/fieldzone/go/internal/ratelimit"
)

// Reconciler defines what the driver needs from the possession tracker
type Reconciler interface {
	Reconcile(ctx context.Context) (possession.Result, error)
}

// DiscoStepper defines what the driver needs from the demo simulator
type DiscoStepper interface {
	Step(ctx context.Context) error
}

// FlagScanner defines what the driver needs from the flag scanner
type FlagScanner interface {
	Scan(ctx context.Context) (int, error)
}

// Config controls tick cadence. ScanEveryTicks spaces out the heavier flag
// scan relative to the possession reconcile.
type Config struct {
	Interval       time.Duration
	JitterRatio    float64
	TickTimeout    time.Duration
	ScanEveryTicks int
}

func DefaultConfig() Config {
	return Config{
		Interval:       time.Second,
		JitterRatio:    0.10,
		TickTimeout:    10 * time.Second,
		ScanEveryTicks: 5,
	}
}

// Driver runs the poll loop: every tick it reconciles possession against the
// upstream and advances the demo simulator, plus a periodic flag scan. Each
// tick runs under its own timeout so one hung upstream call cannot stall the
// ticks behind it.
type Driver struct {
	clock   clockwork.Clock
	tracker Reconciler
	disco   DiscoStepper
	scanner FlagScanner
	config  Config
}

func NewDriver(clock clockwork.Clock, tracker Reconciler, disco DiscoStepper, scanner FlagScanner, config Config) *Driver {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.JitterRatio <= 0 {
		config.JitterRatio = def.JitterRatio
	}
	if config.TickTimeout <= 0 {
		config.TickTimeout = def.TickTimeout
	}
	if config.ScanEveryTicks <= 0 {
		config.ScanEveryTicks = def.ScanEveryTicks
	}
	return &Driver{clock: clock, tracker: tracker, disco: disco, scanner: scanner, config: config}
}

// Run loops until ctx is cancelled. A tick already in flight is allowed to
// finish before Run returns.
func (d *Driver) Run(ctx context.Context) {
	log.Info().Dur("interval", d.config.Interval).Msg("poller started")
	tick := 0
	for {
		wait := ratelimit.Jitter(d.config.Interval, d.config.JitterRatio)
		select {
		case <-ctx.Done():
			log.Info().Int("ticks", tick).Msg("poller stopped")
			return
		case <-d.clock.After(wait):
		}
		tick++
		d.runTick(ctx, tick)
	}
}

// runTick uses context.WithoutCancel so the poller shutting down mid-tick
// does not abandon writes partway through a reconcile.
func (d *Driver) runTick(parent context.Context, tick int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.config.TickTimeout)
	defer cancel()

	result, err := d.tracker.Reconcile(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reconcile failed")
	} else if result.Updated > 0 {
		log.Info().Int("updated", result.Updated).Int("checked", result.Checked).Msg("possession reconciled")
	}

	if d.disco != nil {
		if err := d.disco.Step(ctx); err != nil {
			log.Warn().Err(err).Msg("disco step failed")
		}
	}

	if d.scanner != nil && tick%d.config.ScanEveryTicks == 0 {
		if _, err := d.scanner.Scan(ctx); err != nil {
			log.Warn().Err(err).Msg("flag scan failed")
		}
	}
}
