package swatch

import (
	"time"

	"github.com/jsvensson/valuetrainer/internal/loop"
)

// BounceConfig parameterizes a Bouncer.
type BounceConfig struct {
	// Interval between ticks.
	Interval time.Duration
	// Step returns the distance moved per tick; read when bouncing starts.
	Step func() float64
	// Bounds returns the range the swatch travels in; read on every tick.
	Bounds func() (lo, hi float64)
	// Snap maps the final position to a rest position when bouncing stops.
	Snap func(x float64) float64
	// OnMove runs after every position change.
	OnMove func()
}

// Bouncer oscillates a swatch across its bounds. Watching the apparent value
// of the swatch change as it travels over the scale reveals where it matches:
// the inflection point is the true step.
type Bouncer struct {
	swatch    *Swatch
	sched     loop.Scheduler
	cfg       BounceConfig
	timer     *loop.Timer
	increment float64
}

// NewBouncer returns a stopped bouncer for s.
func NewBouncer(s *Swatch, sched loop.Scheduler, cfg BounceConfig) *Bouncer {
	return &Bouncer{swatch: s, sched: sched, cfg: cfg}
}

// Running reports whether the swatch is bouncing.
func (b *Bouncer) Running() bool {
	return b.timer.Pending()
}

// Start begins bouncing. It is a no-op when already running.
func (b *Bouncer) Start() {
	if b.Running() {
		return
	}
	b.increment = b.cfg.Step()
	b.timer = b.sched.Every(b.cfg.Interval, b.tick)
}

// Stop cancels the bounce timer and snaps the swatch to the nearest rest
// position. It is a no-op when not running.
func (b *Bouncer) Stop() {
	if !b.Running() {
		return
	}
	b.timer.Stop()
	b.timer = nil
	b.swatch.CenterX = b.cfg.Snap(b.swatch.CenterX)
	b.moved()
}

// Toggle starts a stopped bouncer and stops a running one.
func (b *Bouncer) Toggle() {
	if b.Running() {
		b.Stop()
	} else {
		b.Start()
	}
}

func (b *Bouncer) tick() {
	last := b.swatch.CenterX
	lo, hi := b.cfg.Bounds()
	b.swatch.ShiftCenterX(b.increment, lo, hi)
	b.moved()
	if b.swatch.CenterX == last {
		b.increment = -b.increment
	}
}

func (b *Bouncer) moved() {
	if b.cfg.OnMove != nil {
		b.cfg.OnMove()
	}
}
