// Package sequencer runs exercises back to back: one active exercise at a
// time, each finished one reported and replaced by a fresh one.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"

	"github.com/jsvensson/valuetrainer/internal/canvas"
	"github.com/jsvensson/valuetrainer/internal/exercise"
	"github.com/jsvensson/valuetrainer/internal/loop"
	"github.com/jsvensson/valuetrainer/internal/preset"
	"github.com/jsvensson/valuetrainer/internal/report"
)

var log = commonlog.GetLogger("valuetrainer.sequencer")

// DefaultReportTimeout bounds one sink submission.
const DefaultReportTimeout = 10 * time.Second

// Input delivers logical commands. The callback may be invoked from any
// goroutine.
type Input interface {
	Subscribe(fn func(exercise.Command)) (unsubscribe func())
}

// SurfaceFactory creates the drawing surface for one exercise.
type SurfaceFactory func() (canvas.Surface, error)

// Options configure a Sequencer.
type Options struct {
	// Presets are rotated through, one exercise each.
	Presets  []preset.Preset
	Rand     *rand.Rand
	Loop     *loop.Loop
	Surfaces SurfaceFactory
	Input    Input
	Sink     report.Sink
	Timing   exercise.Timing
	// OnJudged, if set, runs on the loop when a guess is judged.
	OnJudged      func(exercise.Summary)
	ReportTimeout time.Duration
}

// Sequencer owns the active exercise. Apart from Run, Start, Wait, Completed
// and Err, its methods run on the loop goroutine.
type Sequencer struct {
	opts Options

	active      *exercise.ValueScale
	unsubscribe func()
	next        int
	started     bool
	stopped     bool

	completed atomic.Int64
	reports   sync.WaitGroup

	mu    sync.Mutex
	err   error
	abort context.CancelCauseFunc
}

// New validates opts and returns a sequencer that has not started.
func New(opts Options) (*Sequencer, error) {
	switch {
	case len(opts.Presets) == 0:
		return nil, errors.New("sequencer: no presets")
	case opts.Loop == nil:
		return nil, errors.New("sequencer: no loop")
	case opts.Surfaces == nil:
		return nil, errors.New("sequencer: no surface factory")
	case opts.Input == nil:
		return nil, errors.New("sequencer: no input")
	}
	for _, p := range opts.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("sequencer: %w", err)
		}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Sink == nil {
		opts.Sink = report.Discard
	}
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = DefaultReportTimeout
	}
	return &Sequencer{opts: opts}, nil
}

// Start spawns the first exercise.
func (s *Sequencer) Start() error {
	if s.started {
		return errors.New("sequencer: already started")
	}
	s.started = true
	return s.spawn()
}

// Run starts the sequencer if needed and runs the loop until ctx is
// cancelled or an exercise cannot be created. It then tears down the active
// exercise and waits for in-flight reports. Cancellation is not an error.
func (s *Sequencer) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	s.mu.Lock()
	s.abort = cancel
	s.mu.Unlock()

	if !s.started {
		if err := s.Start(); err != nil {
			s.Stop()
			return err
		}
	}
	_ = s.opts.Loop.Run(runCtx)
	s.Stop()
	return s.Err()
}

// Stop tears down the active exercise and waits for in-flight reports. No
// exercise is spawned afterwards.
func (s *Sequencer) Stop() {
	s.stopped = true
	s.retire()
	s.Wait()
}

// Wait blocks until every submitted report has been delivered or failed.
func (s *Sequencer) Wait() {
	s.reports.Wait()
}

// Completed returns the number of exercises finished so far.
func (s *Sequencer) Completed() int {
	return int(s.completed.Load())
}

// Err returns the error that stopped the sequence, if any.
func (s *Sequencer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetPresets replaces the rotation. The active exercise is left alone; the
// next one starts from the first of presets.
func (s *Sequencer) SetPresets(presets []preset.Preset) error {
	if len(presets) == 0 {
		return errors.New("sequencer: no presets")
	}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("sequencer: %w", err)
		}
	}
	s.opts.Presets = presets
	s.next = 0
	return nil
}

// Active returns the running exercise, or nil between exercises.
func (s *Sequencer) Active() *exercise.ValueScale {
	return s.active
}

func (s *Sequencer) spawn() error {
	if s.stopped {
		return nil
	}
	p := s.opts.Presets[s.next%len(s.opts.Presets)]
	s.next++

	surface, err := s.opts.Surfaces()
	if err != nil {
		return fmt.Errorf("creating surface: %w", err)
	}
	params := exercise.Params{Steps: p.Steps, SwatchColor: p.Sample(s.opts.Rand)}
	ex, err := exercise.NewValueScale(params, exercise.Config{
		Surface:    surface,
		Scheduler:  s.opts.Loop,
		Timing:     s.opts.Timing,
		OnJudged:   s.opts.OnJudged,
		OnComplete: s.complete,
	})
	if err != nil {
		surface.Destroy()
		return fmt.Errorf("creating exercise from preset %s: %w", p.Name, err)
	}
	if err := ex.Setup(); err != nil {
		ex.Teardown()
		return fmt.Errorf("setting up exercise: %w", err)
	}

	log.Debugf("exercise %d: preset %s, swatch %s", s.next, p.Name, params.SwatchColor)
	s.active = ex
	s.unsubscribe = s.opts.Input.Subscribe(func(cmd exercise.Command) {
		s.opts.Loop.Post(func() { s.handle(ex, cmd) })
	})
	return nil
}

func (s *Sequencer) handle(ex *exercise.ValueScale, cmd exercise.Command) {
	if ex != s.active {
		// Queued before the exercise was replaced.
		return
	}
	if err := ex.HandleCommand(cmd); err != nil {
		log.Debugf("command %s: %s", cmd, err)
	}
}

// complete runs on the loop when the active exercise finishes.
func (s *Sequencer) complete(sum exercise.Summary) {
	s.completed.Add(1)
	s.submit(sum)
	s.retire()
	// Spawn from a fresh callback rather than from inside the finished
	// exercise's timer.
	s.opts.Loop.Post(func() {
		if err := s.spawn(); err != nil {
			s.fail(err)
		}
	})
}

func (s *Sequencer) submit(sum exercise.Summary) {
	s.reports.Add(1)
	go func() {
		defer s.reports.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ReportTimeout)
		defer cancel()
		if err := s.opts.Sink.Submit(ctx, sum); err != nil {
			log.Errorf("reporting summary: %s", err)
		}
	}()
}

// retire unsubscribes input from the active exercise and tears it down.
func (s *Sequencer) retire() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.active != nil {
		s.active.Teardown()
		s.active = nil
	}
}

func (s *Sequencer) fail(err error) {
	log.Errorf("%s", err)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
	s.stopped = true
	if s.abort != nil {
		s.abort(err)
	}
}
