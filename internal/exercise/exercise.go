// Package exercise implements the value-scale exercise: one trial of placing
// a swatch over the step whose value it matches, judged and summarized.
package exercise

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/scale"
)

// ErrInvalidState is returned for commands the current state does not accept.
var ErrInvalidState = scale.ErrInvalidState

// State is a phase of an exercise's lifecycle.
type State int

const (
	StateSetup State = iota
	StateInteracting
	StateJudged
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateInteracting:
		return "interacting"
	case StateJudged:
		return "judged"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Command is a logical user input. Mapping device events to commands is the
// input source's job.
type Command string

const (
	MoveLeft     Command = "move-left"
	MoveRight    Command = "move-right"
	Submit       Command = "submit"
	ToggleBounce Command = "toggle-bounce"
)

// Commands lists every command in a stable order.
var Commands = []Command{MoveLeft, MoveRight, Submit, ToggleBounce}

// ParseCommand returns the command named s.
func ParseCommand(s string) (Command, error) {
	for _, c := range Commands {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Exercise is the capability set every exercise variant provides.
type Exercise interface {
	// Setup draws the exercise and makes it interactive.
	Setup() error
	// HandleCommand applies one user command.
	HandleCommand(cmd Command) error
	// Resize lays the exercise out for new surface dimensions.
	Resize(width, height float64) error
	// Teardown cancels timers and releases the drawing surface.
	Teardown()
	State() State
}

// Params are the parameters one exercise is instantiated with.
type Params struct {
	Steps       int
	SwatchColor color.Color
}

// Timing holds the delays of the time-driven effects.
type Timing struct {
	// Flash is how long the true step shows the feedback color.
	Flash time.Duration
	// Settle is how long the restored scale is shown before finishing.
	Settle time.Duration
	// BounceInterval is the delay between bounce ticks.
	BounceInterval time.Duration
	// BounceDivisor sets the bounce step to surface width / BounceDivisor.
	BounceDivisor float64
}

// DefaultTiming returns the stock timings.
func DefaultTiming() Timing {
	return Timing{
		Flash:          100 * time.Millisecond,
		Settle:         50 * time.Millisecond,
		BounceInterval: 25 * time.Millisecond,
		BounceDivisor:  50,
	}
}

// Summary is the frozen record of a judged exercise.
type Summary struct {
	Exercise    string
	Steps       int
	SwatchColor color.Color
	TrueStep    int
	GuessedStep float64
	Score       float64
}

// Correct reports whether the guess hit the true step exactly.
func (s Summary) Correct() bool {
	return s.GuessedStep == float64(s.TrueStep)
}

type wireParams struct {
	NumValues   int    `json:"numValues"`
	SwatchColor string `json:"swatchColor"`
}

type wireSummary struct {
	Exercise string     `json:"exercise"`
	Params   wireParams `json:"params"`
	Expected int        `json:"expected"`
	Guess    float64    `json:"guess"`
	Score    float64    `json:"score"`
}

// MarshalJSON encodes the summary in the exercise log format.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSummary{
		Exercise: s.Exercise,
		Params: wireParams{
			NumValues:   s.Steps,
			SwatchColor: s.SwatchColor.String(),
		},
		Expected: s.TrueStep,
		Guess:    s.GuessedStep,
		Score:    s.Score,
	})
}

// Score rates a guess: 1 for an exact match, otherwise 1 minus 2/steps per
// step of distance, floored at 0. A guess half the scale away or further
// scores 0.
func Score(trueStep int, guessed float64, steps int) float64 {
	if guessed == float64(trueStep) {
		return 1
	}
	diff := math.Abs(guessed - float64(trueStep))
	return math.Max(0, 1-diff*2/float64(steps))
}
