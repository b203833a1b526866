package exercise

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jsvensson/valuetrainer/internal/canvas"
	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/loop"
	"github.com/jsvensson/valuetrainer/internal/scale"
)

type fixture struct {
	loop      *loop.Loop
	surface   *canvas.Memory
	ex        *ValueScale
	summaries []Summary
}

func newFixture(t *testing.T, steps int, width float64, c color.Color) *fixture {
	t.Helper()
	f := &fixture{
		loop:    loop.New(loop.NewManualClock(time.Unix(0, 0))),
		surface: canvas.NewMemory(width, 100),
	}
	ex, err := NewValueScale(Params{Steps: steps, SwatchColor: c}, Config{
		Surface:    f.surface,
		Scheduler:  f.loop,
		OnComplete: func(s Summary) { f.summaries = append(f.summaries, s) },
	})
	if err != nil {
		t.Fatalf("NewValueScale() error: %v", err)
	}
	if err := ex.Setup(); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	f.ex = ex
	return f
}

func (f *fixture) scaleLayer() *canvas.MemoryLayer { return f.surface.Layers()[0] }
func (f *fixture) swatchLayer() *canvas.MemoryLayer { return f.surface.Layers()[1] }

func TestSetupDrawsAndStartsInteraction(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(20))

	if got := f.ex.State(); got != StateInteracting {
		t.Fatalf("State() = %v, want interacting", got)
	}
	if got := len(f.surface.Layers()); got != 2 {
		t.Fatalf("layers = %d, want 2", got)
	}
	sw := f.ex.Swatch()
	if sw.CenterX != 200 || sw.CenterY != 50 || sw.Width != 50 || sw.Height != 40 {
		t.Errorf("swatch = %+v, want centered 50x40 at (200, 50)", sw)
	}
	if c, _ := f.surface.At(200, 50); c != color.Grey(20) {
		t.Errorf("swatch pixel = %v, want swatch color", c)
	}
	if c, _ := f.surface.At(10, 5); c != color.Grey(100) {
		t.Errorf("scale pixel = %v, want white step", c)
	}
	if err := f.ex.Setup(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Setup() = %v, want ErrInvalidState", err)
	}
}

func TestNewValueScaleConfigurationErrors(t *testing.T) {
	lp := loop.New(loop.NewManualClock(time.Unix(0, 0)))
	tests := []struct {
		name    string
		steps   int
		surface canvas.Surface
	}{
		{"one step", 1, canvas.NewMemory(400, 100)},
		{"zero width", 4, canvas.NewMemory(0, 100)},
		{"no surface", 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValueScale(Params{Steps: tt.steps}, Config{Surface: tt.surface, Scheduler: lp})
			var cfgErr *scale.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestExactMatchScoresOne(t *testing.T) {
	// N=4 over 400: centers at 50, 150, 250, 350; step 1 has lightness 66.67.
	f := newFixture(t, 4, 400, color.Grey(200.0/3))

	moved, err := f.ex.MoveSwatch(-0.5)
	if err != nil || !moved {
		t.Fatalf("MoveSwatch(-0.5) = %v, %v", moved, err)
	}
	if got := f.ex.Swatch().CenterX; got != 150 {
		t.Fatalf("CenterX = %v, want 150", got)
	}
	if err := f.ex.HandleCommand(Submit); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.ex.State() != StateJudged {
		t.Fatalf("State() = %v, want judged", f.ex.State())
	}

	f.loop.Advance(time.Second)

	if len(f.summaries) != 1 {
		t.Fatalf("completion called %d times, want 1", len(f.summaries))
	}
	s := f.summaries[0]
	if s.TrueStep != 1 || s.GuessedStep != 1 || s.Score != 1 {
		t.Errorf("summary = %+v, want true=1 guess=1 score=1", s)
	}
	if s.Steps != 4 || s.Exercise != Name || s.SwatchColor != color.Grey(200.0/3) {
		t.Errorf("summary params = %+v", s)
	}
	if f.ex.State() != StateFinished {
		t.Errorf("State() = %v, want finished", f.ex.State())
	}
}

func TestHalfScaleMissScoresZero(t *testing.T) {
	f := newFixture(t, 2, 400, color.Grey(10))
	if _, err := f.ex.MoveSwatch(-0.5); err != nil {
		t.Fatal(err)
	}
	if err := f.ex.SubmitGuess(); err != nil {
		t.Fatal(err)
	}
	f.loop.Advance(time.Second)

	s := f.summaries[0]
	if s.TrueStep != 1 || s.GuessedStep != 0 || s.Score != 0 {
		t.Errorf("summary = %+v, want true=1 guess=0 score=0", s)
	}
}

func TestGuessBetweenSteps(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(0))
	// Starts at 200, between steps 1 and 2.
	if err := f.ex.SubmitGuess(); err != nil {
		t.Fatal(err)
	}
	f.loop.Advance(time.Second)
	s := f.summaries[0]
	if s.GuessedStep != 1.5 || s.TrueStep != 3 {
		t.Fatalf("summary = %+v, want guess 1.5 true 3", s)
	}
	if s.Score != 1-1.5*2.0/4 {
		t.Errorf("Score = %v, want %v", s.Score, 1-1.5*2.0/4)
	}
}

func TestFeedbackFlashSequence(t *testing.T) {
	tests := []struct {
		name  string
		move  float64
		flash color.Color
	}{
		{"correct flashes green", 1.5, color.Green},
		{"wrong flashes red", -1.5, color.Red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 4, 400, color.Grey(0))
			if _, err := f.ex.MoveSwatch(tt.move); err != nil {
				t.Fatal(err)
			}
			if err := f.ex.SubmitGuess(); err != nil {
				t.Fatal(err)
			}
			// True step 3 spans x in [300, 400); probe outside the swatch.
			if c, _ := f.surface.At(390, 5); c != tt.flash {
				t.Errorf("during flash step 3 = %v, want %v", c, tt.flash)
			}

			f.loop.Advance(99 * time.Millisecond)
			if c, _ := f.surface.At(390, 5); c != tt.flash {
				t.Errorf("flash ended early: %v", c)
			}
			f.loop.Advance(1 * time.Millisecond)
			if c, _ := f.surface.At(390, 5); c != color.Grey(0) {
				t.Errorf("after flash step 3 = %v, want restored black", c)
			}
			if f.ex.State() != StateJudged || len(f.summaries) != 0 {
				t.Errorf("finished before settling: state=%v", f.ex.State())
			}

			f.loop.Advance(50 * time.Millisecond)
			if f.ex.State() != StateFinished || len(f.summaries) != 1 {
				t.Errorf("not finished after settle: state=%v summaries=%d", f.ex.State(), len(f.summaries))
			}
		})
	}
}

func TestOnJudgedRunsBeforeFlash(t *testing.T) {
	lp := loop.New(loop.NewManualClock(time.Unix(0, 0)))
	var judged, completed []Summary
	ex, err := NewValueScale(Params{Steps: 4, SwatchColor: color.Grey(0)}, Config{
		Surface:    canvas.NewMemory(400, 100),
		Scheduler:  lp,
		OnJudged:   func(s Summary) { judged = append(judged, s) },
		OnComplete: func(s Summary) { completed = append(completed, s) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := ex.Setup(); err != nil {
		t.Fatal(err)
	}
	if err := ex.SubmitGuess(); err != nil {
		t.Fatal(err)
	}

	if len(judged) != 1 || len(completed) != 0 {
		t.Fatalf("after submit: judged=%d completed=%d, want 1 and 0", len(judged), len(completed))
	}
	lp.Advance(time.Second)
	if len(judged) != 1 || len(completed) != 1 {
		t.Fatalf("after settle: judged=%d completed=%d, want 1 and 1", len(judged), len(completed))
	}
	if judged[0] != completed[0] {
		t.Errorf("judged %+v != completed %+v", judged[0], completed[0])
	}
}

func TestMoveRedrawsOnlySwatchLayer(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	scaleDraws := f.scaleLayer().Draws
	swatchDraws := f.swatchLayer().Draws

	for _, cmd := range []Command{MoveLeft, MoveRight, MoveRight} {
		if err := f.ex.HandleCommand(cmd); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.scaleLayer().Draws; got != scaleDraws {
		t.Errorf("scale layer drawn %d times during moves", got-scaleDraws)
	}
	if got := f.swatchLayer().Draws - swatchDraws; got != 3 {
		t.Errorf("swatch layer redrawn %d times, want 3", got)
	}
	if got := f.ex.Swatch().CenterX; got != 250 {
		t.Errorf("CenterX = %v, want 250", got)
	}
}

func TestMoveClampsAtBounds(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	moved, _ := f.ex.MoveSwatch(-10)
	if !moved || f.ex.Swatch().CenterX != 50 {
		t.Fatalf("MoveSwatch(-10) moved=%v CenterX=%v, want true at 50", moved, f.ex.Swatch().CenterX)
	}
	moved, err := f.ex.MoveSwatch(-0.5)
	if err != nil || moved {
		t.Errorf("MoveSwatch at min bound = %v, %v; want false, nil", moved, err)
	}
	moved, _ = f.ex.MoveSwatch(10)
	if !moved || f.ex.Swatch().CenterX != 350 {
		t.Errorf("MoveSwatch(10) CenterX = %v, want 350", f.ex.Swatch().CenterX)
	}
}

func TestMoveStopsBounce(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	if err := f.ex.HandleCommand(ToggleBounce); err != nil {
		t.Fatal(err)
	}
	if !f.ex.Bouncing() {
		t.Fatal("not bouncing after toggle")
	}
	f.loop.Advance(75 * time.Millisecond) // 200 -> 224

	if _, err := f.ex.MoveSwatch(0.5); err != nil {
		t.Fatal(err)
	}
	if f.ex.Bouncing() || f.loop.Pending() != 0 {
		t.Error("bounce still scheduled after move")
	}
	// Snapped to 200, then moved half a step.
	if got := f.ex.Swatch().CenterX; got != 250 {
		t.Errorf("CenterX = %v, want 250", got)
	}
}

func TestSubmitCancelsBounce(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	_ = f.ex.ToggleBounce()
	f.loop.Advance(200 * time.Millisecond)
	if err := f.ex.SubmitGuess(); err != nil {
		t.Fatal(err)
	}
	if f.ex.Bouncing() {
		t.Error("still bouncing after submit")
	}
	x := f.ex.Swatch().CenterX
	valid := false
	for _, r := range f.ex.Scale().RestPositions() {
		if r == x {
			valid = true
		}
	}
	if !valid {
		t.Errorf("swatch judged at %v, not a rest position", x)
	}
}

func TestCommandsRejectedAfterSubmit(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	_ = f.ex.SubmitGuess()

	for _, phase := range []string{"judged", "finished"} {
		if phase == "finished" {
			f.loop.Advance(time.Second)
		}
		before := f.ex.Swatch()
		for _, cmd := range Commands {
			if err := f.ex.HandleCommand(cmd); !errors.Is(err, ErrInvalidState) {
				t.Errorf("%s: %s error = %v, want ErrInvalidState", phase, cmd, err)
			}
		}
		if f.ex.Swatch() != before {
			t.Errorf("%s: rejected commands changed the swatch", phase)
		}
	}
	if len(f.summaries) != 1 {
		t.Errorf("completion called %d times, want exactly 1", len(f.summaries))
	}
}

func TestResizeKeepsRelativePosition(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	_, _ = f.ex.MoveSwatch(-0.5) // step 1

	f.surface.Resize(800, 200)

	sw := f.ex.Swatch()
	if sw.CenterX != 300 || sw.CenterY != 100 || sw.Width != 100 || sw.Height != 80 {
		t.Errorf("swatch after resize = %+v", sw)
	}
	if got := f.ex.GuessedStep(); got != 1 {
		t.Errorf("GuessedStep() = %v after resize, want 1", got)
	}
	if got := f.ex.Scale().Center(3); got != 700 {
		t.Errorf("Center(3) = %v, want 700", got)
	}
}

func TestResizeRejectsNonFinite(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	err := f.ex.Resize(math.NaN(), 100)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Resize(NaN) = %v, want ErrInvalidState", err)
	}
	if f.ex.Scale().Width() != 400 || f.ex.Swatch().CenterX != 200 {
		t.Error("rejected resize changed state")
	}
}

func TestResizeRejectedAfterFinish(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	if err := f.ex.SubmitGuess(); err != nil {
		t.Fatal(err)
	}
	f.loop.Advance(time.Second)
	if f.ex.State() != StateFinished {
		t.Fatalf("state = %s, want finished", f.ex.State())
	}

	if err := f.ex.Resize(800, 200); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Resize() after finish = %v, want ErrInvalidState", err)
	}
	if f.ex.Scale().Width() != 400 || f.ex.Swatch().CenterX != 200 {
		t.Errorf("rejected resize changed geometry: width=%v x=%v",
			f.ex.Scale().Width(), f.ex.Swatch().CenterX)
	}
}

func TestResizeStopsBounce(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	if err := f.ex.ToggleBounce(); err != nil {
		t.Fatal(err)
	}
	f.loop.Advance(50 * time.Millisecond)

	if err := f.ex.Resize(800, 100); err != nil {
		t.Fatal(err)
	}
	if f.ex.Bouncing() || f.loop.Pending() != 0 {
		t.Error("bounce still scheduled after resize")
	}
	// Snapped to 200 on the old scale, then scaled to the new width.
	if got := f.ex.Swatch().CenterX; got != 400 {
		t.Errorf("CenterX = %v, want 400", got)
	}
	if got := f.ex.GuessedStep(); got != 1.5 {
		t.Errorf("GuessedStep() = %v, want 1.5", got)
	}
}

func TestPlaceSwatch(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	_ = f.ex.ToggleBounce()
	f.loop.Advance(50 * time.Millisecond)

	if err := f.ex.PlaceSwatch(-30); err != nil {
		t.Fatal(err)
	}
	if f.ex.Bouncing() {
		t.Error("still bouncing after PlaceSwatch")
	}
	if got := f.ex.Swatch().CenterX; got != -30 {
		t.Errorf("CenterX = %v, want -30", got)
	}

	_ = f.ex.SubmitGuess()
	if err := f.ex.PlaceSwatch(100); !errors.Is(err, ErrInvalidState) {
		t.Errorf("PlaceSwatch() after submit = %v, want ErrInvalidState", err)
	}
}

func TestTeardownReleasesEverything(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	_ = f.ex.ToggleBounce()
	f.ex.Teardown()

	if !f.surface.Destroyed() {
		t.Error("surface not destroyed")
	}
	if f.loop.Pending() != 0 {
		t.Errorf("%d timers left after teardown", f.loop.Pending())
	}
	if f.ex.State() != StateFinished {
		t.Errorf("State() = %v, want finished", f.ex.State())
	}
	f.ex.Teardown()
	if len(f.summaries) != 0 {
		t.Error("teardown before judging reported a summary")
	}
}

func TestTeardownDuringFlash(t *testing.T) {
	f := newFixture(t, 4, 400, color.Grey(50))
	_ = f.ex.SubmitGuess()
	f.ex.Teardown()
	f.loop.Advance(time.Second)
	if len(f.summaries) != 0 {
		t.Error("completion ran after teardown")
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		trueStep int
		guessed  float64
		steps    int
		want     float64
	}{
		{"exact", 3, 3, 8, 1},
		{"one off of eight", 3, 4, 8, 0.75},
		{"half off of eight", 3, 3.5, 8, 0.875},
		{"half scale of eight", 0, 4, 8, 0},
		{"past half scale", 0, 7, 8, 0},
		{"two steps one off", 1, 0, 2, 0},
		{"three steps half scale", 0, 1.5, 3, 0},
		{"four steps one off", 2, 1, 4, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.trueStep, tt.guessed, tt.steps); got != tt.want {
				t.Errorf("Score(%d, %v, %d) = %v, want %v", tt.trueStep, tt.guessed, tt.steps, got, tt.want)
			}
		})
	}
}

func TestScoreMonotonic(t *testing.T) {
	for _, steps := range []int{2, 3, 4, 8, 16} {
		for k := 0; k < steps; k++ {
			if Score(k, float64(k), steps) != 1 {
				t.Errorf("Score(%d, %d, %d) != 1", k, k, steps)
			}
			prev := 1.0
			for d := 0.5; d <= float64(steps); d += 0.5 {
				s := Score(k, float64(k)+d, steps)
				if s > prev {
					t.Errorf("N=%d: score rose from %v to %v at distance %v", steps, prev, s, d)
				}
				if d >= float64(steps)/2 && s != 0 {
					t.Errorf("N=%d: score %v at distance %v, want 0", steps, s, d)
				}
				prev = s
			}
		}
	}
}

func TestParseCommand(t *testing.T) {
	for _, c := range Commands {
		got, err := ParseCommand(string(c))
		if err != nil || got != c {
			t.Errorf("ParseCommand(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCommand("jump"); err == nil {
		t.Error("ParseCommand(jump) succeeded")
	}
}

func TestSummaryJSON(t *testing.T) {
	s := Summary{
		Exercise:    Name,
		Steps:       8,
		SwatchColor: color.New(200, 55.4, 30.6),
		TrueStep:    5,
		GuessedStep: 4.5,
		Score:       0.875,
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"exercise":"ValueScale","params":{"numValues":8,"swatchColor":"hsl(200, 55%, 31%)"},"expected":5,"guess":4.5,"score":0.875}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}

func TestStateString(t *testing.T) {
	if StateJudged.String() != "judged" || State(9).String() != "state(9)" {
		t.Error("unexpected State strings")
	}
}
