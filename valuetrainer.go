// Package valuetrainer trains perception of color value: a swatch bounces
// along a lightness scale and the player stops it where its lightness
// matches.
package valuetrainer

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/tliron/commonlog"

	"github.com/jsvensson/valuetrainer/internal/config"
	"github.com/jsvensson/valuetrainer/internal/exercise"
	"github.com/jsvensson/valuetrainer/internal/loop"
	"github.com/jsvensson/valuetrainer/internal/preset"
	"github.com/jsvensson/valuetrainer/internal/report"
	"github.com/jsvensson/valuetrainer/internal/sequencer"
	"github.com/jsvensson/valuetrainer/internal/terminal"
)

var log = commonlog.GetLogger("valuetrainer")

// Load reads the configuration file at path. An empty path yields the
// defaults.
func Load(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading trainer config: %w", err)
	}
	return cfg, nil
}

// Trainer is a configured training session, ready to run on a terminal.
type Trainer struct {
	cfg       *config.Config
	sink      report.Sink
	file      *report.File
	watchPath string

	mu      sync.Mutex
	presets []preset.Preset
	stats   Stats
}

// New resolves the presets named by cfg and opens its report sinks. Results
// are always logged; they are also posted to the report URL and appended to
// the report file when those are set.
func New(cfg *config.Config) (*Trainer, error) {
	presets, err := resolvePresets(cfg)
	if err != nil {
		return nil, err
	}

	t := &Trainer{cfg: cfg, presets: presets}
	sinks := []report.Sink{report.Log{}}
	if cfg.Trainer.ReportURL != "" {
		sinks = append(sinks, report.NewHTTP(cfg.Trainer.ReportURL, &http.Client{Timeout: report.DefaultTimeout}))
	}
	if cfg.Trainer.ReportFile != "" {
		f, err := report.OpenFile(cfg.Trainer.ReportFile)
		if err != nil {
			return nil, err
		}
		log.Infof("session %s appending to %s", f.Session(), cfg.Trainer.ReportFile)
		t.file = f
		sinks = append(sinks, f)
	}
	t.sink = report.Multi(sinks...)
	return t, nil
}

func resolvePresets(cfg *config.Config) ([]preset.Preset, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	return reg.Resolve(cfg.Trainer.Presets)
}

// Presets returns the presets the trainer rotates through.
func (t *Trainer) Presets() []preset.Preset {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.presets
}

// Watch makes Run reload the preset rotation from the config file at path
// whenever the file changes. Other settings keep their loaded values.
func (t *Trainer) Watch(path string) {
	t.watchPath = path
}

// Stats returns the results judged so far.
func (t *Trainer) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Run trains on screen until ctx is cancelled or the player quits. The
// screen is finalized before Run returns.
func (t *Trainer) Run(ctx context.Context, screen tcell.Screen) error {
	l := loop.New(loop.SystemClock{})
	scr, err := terminal.NewScreen(screen, l)
	if err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer scr.Fini()

	var sound *terminal.Sound
	if t.cfg.Trainer.Sound {
		if sound, err = terminal.NewSound(); err != nil {
			log.Warningf("sound disabled: %s", err)
		}
		defer sound.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	scr.OnQuit(cancel)

	seq, err := sequencer.New(sequencer.Options{
		Presets:  t.Presets(),
		Loop:     l,
		Surfaces: scr.NewSurface,
		Input:    scr,
		Sink:     t.sink,
		Timing:   t.cfg.Trainer.Timing,
		OnJudged: func(sum exercise.Summary) {
			sound.Judged(sum)
			t.mu.Lock()
			t.stats.Add(sum)
			stats := t.stats
			t.mu.Unlock()
			scr.SetStatus(stats.Status(sum))
		},
	})
	if err != nil {
		return err
	}

	var watching sync.WaitGroup
	if t.watchPath != "" {
		watching.Add(1)
		go func() {
			defer watching.Done()
			t.watch(ctx, l, seq)
		}()
	}

	scr.Listen()
	err = seq.Run(ctx)
	cancel()
	watching.Wait()
	return err
}

// watch applies config file changes to seq until ctx is cancelled.
func (t *Trainer) watch(ctx context.Context, l *loop.Loop, seq *sequencer.Sequencer) {
	err := config.Watch(ctx, t.watchPath, func(cfg *config.Config) {
		presets, err := resolvePresets(cfg)
		if err != nil {
			log.Warningf("keeping previous presets: %s", err)
			return
		}
		l.Post(func() {
			if err := seq.SetPresets(presets); err != nil {
				log.Warningf("keeping previous presets: %s", err)
				return
			}
			t.mu.Lock()
			t.presets = presets
			t.mu.Unlock()
		})
	})
	if err != nil {
		log.Errorf("%s", err)
	}
}

// Close releases the report file, if any.
func (t *Trainer) Close() error {
	if t.file == nil {
		return nil
	}
	return t.file.Close()
}

// Stats accumulates judged results.
type Stats struct {
	Count   int
	Correct int
	Total   float64
}

// Add records one judged result.
func (s *Stats) Add(sum exercise.Summary) {
	s.Count++
	s.Total += sum.Score
	if sum.Correct() {
		s.Correct++
	}
}

// Mean is the average score, or 0 before any result.
func (s Stats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Total / float64(s.Count)
}

// Status is the status line shown after last was judged.
func (s Stats) Status(last exercise.Summary) string {
	return fmt.Sprintf("guessed %g, was %d: score %.2f | %d/%d exact, mean %.2f | %s",
		last.GuessedStep, last.TrueStep, last.Score, s.Correct, s.Count, s.Mean(), terminal.Help)
}
