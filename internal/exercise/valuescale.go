package exercise

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/jsvensson/valuetrainer/internal/canvas"
	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/loop"
	"github.com/jsvensson/valuetrainer/internal/scale"
	"github.com/jsvensson/valuetrainer/internal/swatch"
)

var log = commonlog.GetLogger("valuetrainer.exercise")

// Name identifies value-scale exercises in summaries.
const Name = "ValueScale"

// Config wires a ValueScale to its collaborators.
type Config struct {
	Surface   canvas.Surface
	Scheduler loop.Scheduler
	Timing    Timing
	// OnJudged receives the summary as soon as a guess is judged, before
	// the feedback flash.
	OnJudged func(Summary)
	// OnComplete receives the summary once the exercise finishes.
	OnComplete func(Summary)
}

// ValueScale draws a value scale and a movable swatch. The user moves the
// swatch over the step they believe matches its value and submits.
type ValueScale struct {
	params Params
	cfg    Config
	state  State

	scale   *scale.Scale
	swatch  *swatch.Swatch
	bouncer *swatch.Bouncer

	scaleLayer  canvas.Layer
	swatchLayer canvas.Layer

	feedback *loop.Timer
	summary  Summary
	notified bool
	torn     bool
}

var _ Exercise = (*ValueScale)(nil)

// NewValueScale builds an exercise in the setup state. Invalid parameters or
// surface dimensions are a configuration error.
func NewValueScale(p Params, cfg Config) (*ValueScale, error) {
	if cfg.Surface == nil || cfg.Scheduler == nil {
		return nil, &scale.ConfigurationError{Field: "config", Reason: "surface and scheduler are required"}
	}
	if cfg.Timing == (Timing{}) {
		cfg.Timing = DefaultTiming()
	}
	w, h := cfg.Surface.Size()
	sc, err := scale.New(p.Steps, w, h)
	if err != nil {
		return nil, fmt.Errorf("building value scale: %w", err)
	}

	e := &ValueScale{
		params: p,
		cfg:    cfg,
		state:  StateSetup,
		scale:  sc,
	}
	e.swatch = swatch.New(0, 0, 0, 0, p.SwatchColor)
	e.layoutSwatch(w/2, w, h)
	e.bouncer = swatch.NewBouncer(e.swatch, cfg.Scheduler, swatch.BounceConfig{
		Interval: cfg.Timing.BounceInterval,
		Step:     func() float64 { return e.scale.Width() / cfg.Timing.BounceDivisor },
		Bounds:   e.bounds,
		Snap:     e.scale.SnapToRest,
		OnMove:   e.redrawSwatch,
	})
	return e, nil
}

// layoutSwatch sizes the swatch for a w×h surface and centers it at x.
func (e *ValueScale) layoutSwatch(x, w, h float64) {
	e.swatch.ShiftCenterX(x-e.swatch.CenterX, swatch.NoMin, swatch.NoMax)
	e.swatch.CenterY = h / 2
	e.swatch.Width = e.scale.StepWidth() / 2
	e.swatch.Height = h / 2.5
}

// bounds is the range of swatch centers that keep it over the scale.
func (e *ValueScale) bounds() (float64, float64) {
	half := e.scale.StepWidth() / 2
	return half, e.scale.Width() - half
}

// Setup creates the scale and swatch layers, draws them and starts the
// interaction.
func (e *ValueScale) Setup() error {
	if e.state != StateSetup {
		return e.reject("setup")
	}
	e.scaleLayer = e.cfg.Surface.CreateLayer()
	e.swatchLayer = e.cfg.Surface.CreateLayer()
	e.scaleLayer.Add(e.scale)
	e.swatchLayer.Add(e.swatch)
	e.cfg.Surface.OnResize(func(w, h float64) {
		// Rejected resizes are already logged as warnings.
		if err := e.Resize(w, h); err != nil && !errors.Is(err, ErrInvalidState) {
			log.Errorf("resizing exercise: %s", err)
		}
	})
	e.scaleLayer.Draw()
	e.swatchLayer.Draw()
	e.state = StateInteracting
	return nil
}

// HandleCommand dispatches a logical input command.
func (e *ValueScale) HandleCommand(cmd Command) error {
	switch cmd {
	case MoveLeft:
		_, err := e.MoveSwatch(-0.5)
		return err
	case MoveRight:
		_, err := e.MoveSwatch(0.5)
		return err
	case Submit:
		return e.SubmitGuess()
	case ToggleBounce:
		return e.ToggleBounce()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// MoveSwatch stops any bounce and shifts the swatch by deltaSteps step
// widths, clamped to the scale. It reports whether the swatch moved.
func (e *ValueScale) MoveSwatch(deltaSteps float64) (bool, error) {
	if e.state != StateInteracting {
		return false, e.reject("move")
	}
	e.bouncer.Stop()
	lo, hi := e.bounds()
	before := e.swatch.CenterX
	e.swatch.ShiftCenterX(deltaSteps*e.scale.StepWidth(), lo, hi)
	e.redrawSwatch()
	return e.swatch.CenterX != before, nil
}

// ToggleBounce starts or stops the swatch oscillation.
func (e *ValueScale) ToggleBounce() error {
	if e.state != StateInteracting {
		return e.reject("toggle bounce")
	}
	e.bouncer.Toggle()
	return nil
}

// SubmitGuess judges the swatch's current position and runs the feedback
// flash. The completion callback runs once the flash has settled.
func (e *ValueScale) SubmitGuess() error {
	if e.state != StateInteracting {
		return e.reject("submit")
	}
	e.bouncer.Stop()
	e.state = StateJudged

	trueStep := e.TrueStep()
	guessed := e.GuessedStep()
	e.summary = Summary{
		Exercise:    Name,
		Steps:       e.params.Steps,
		SwatchColor: e.params.SwatchColor,
		TrueStep:    trueStep,
		GuessedStep: guessed,
		Score:       Score(trueStep, guessed, e.params.Steps),
	}
	log.Debugf("judged %s: true=%d guess=%g score=%.3f",
		e.params.SwatchColor, trueStep, guessed, e.summary.Score)

	flash := color.Red
	if e.summary.Correct() {
		flash = color.Green
	}
	e.scale.Highlight(trueStep, flash)
	e.scaleLayer.Redraw()
	if e.cfg.OnJudged != nil {
		e.cfg.OnJudged(e.summary)
	}
	e.feedback = e.cfg.Scheduler.After(e.cfg.Timing.Flash, func() {
		e.scale.ClearHighlight()
		e.scaleLayer.Redraw()
		e.feedback = e.cfg.Scheduler.After(e.cfg.Timing.Settle, e.finish)
	})
	return nil
}

func (e *ValueScale) finish() {
	e.feedback = nil
	e.state = StateFinished
	if e.notified {
		return
	}
	e.notified = true
	if e.cfg.OnComplete != nil {
		e.cfg.OnComplete(e.summary)
	}
}

// Resize recomputes the layout for new surface dimensions, keeping the
// swatch at the same relative position on the scale. A running bounce is
// stopped first, so the swatch lands on a rest position of the new scale.
func (e *ValueScale) Resize(width, height float64) error {
	if e.torn || e.state == StateFinished {
		return e.reject("resize")
	}
	e.bouncer.Stop()
	oldWidth := e.scale.Width()
	if err := e.scale.Resize(width, height); err != nil {
		if errors.Is(err, ErrInvalidState) {
			log.Warningf("rejected resize: %s", err)
		}
		return err
	}
	e.layoutSwatch(e.swatch.CenterX/oldWidth*width, width, height)
	if e.scaleLayer != nil {
		e.scaleLayer.Redraw()
		e.swatchLayer.Redraw()
	}
	return nil
}

// Teardown cancels pending timers and destroys the drawing surface. It is
// safe to call more than once.
func (e *ValueScale) Teardown() {
	if e.torn {
		return
	}
	e.torn = true
	e.bouncer.Stop()
	e.feedback.Stop()
	e.feedback = nil
	e.cfg.Surface.Destroy()
	e.state = StateFinished
}

func (e *ValueScale) reject(op string) error {
	err := fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, e.state)
	log.Warningf("%s", err)
	return err
}

func (e *ValueScale) redrawSwatch() {
	if e.swatchLayer != nil {
		e.swatchLayer.Redraw()
	}
}

// State returns the current lifecycle state.
func (e *ValueScale) State() State {
	return e.state
}

// TrueStep is the step whose lightness is closest to the swatch color.
func (e *ValueScale) TrueStep() int {
	return e.scale.StepOfColor(e.swatch.Color)
}

// GuessedStep is the step under the swatch's center; X.5 when the swatch
// sits between two steps.
func (e *ValueScale) GuessedStep() float64 {
	return e.scale.StepOfPosition(e.swatch.CenterX)
}

// Bouncing reports whether the swatch is oscillating.
func (e *ValueScale) Bouncing() bool {
	return e.bouncer.Running()
}

// Swatch returns a copy of the swatch state.
func (e *ValueScale) Swatch() swatch.Swatch {
	return *e.swatch
}

// Scale returns the exercise's value scale.
func (e *ValueScale) Scale() *scale.Scale {
	return e.scale
}

// Summary returns the judged summary, if the exercise has been judged.
func (e *ValueScale) Summary() (Summary, bool) {
	return e.summary, e.state >= StateJudged && e.summary.Exercise != ""
}

// PlaceSwatch moves the swatch center to x without clamping. It exists for
// scripted runs and tests that need an exact starting position.
func (e *ValueScale) PlaceSwatch(x float64) error {
	if e.state != StateInteracting {
		return e.reject("place swatch")
	}
	e.bouncer.Stop()
	e.swatch.ShiftCenterX(x-e.swatch.CenterX, swatch.NoMin, swatch.NoMax)
	e.redrawSwatch()
	return nil
}
