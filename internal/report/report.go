// Package report delivers exercise summaries to where they are recorded.
package report

import (
	"context"
	"errors"

	"github.com/tliron/commonlog"

	"github.com/jsvensson/valuetrainer/internal/exercise"
)

var log = commonlog.GetLogger("valuetrainer.report")

// Sink receives the summary of every finished exercise. Submit may be called
// from several goroutines at once.
type Sink interface {
	Submit(ctx context.Context, s exercise.Summary) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, s exercise.Summary) error

func (f SinkFunc) Submit(ctx context.Context, s exercise.Summary) error {
	return f(ctx, s)
}

// Discard drops every summary.
var Discard Sink = SinkFunc(func(context.Context, exercise.Summary) error { return nil })

// Log writes each summary to the log at info level.
type Log struct{}

func (Log) Submit(_ context.Context, s exercise.Summary) error {
	log.Infof("%s %d steps, swatch %s: expected %d, guessed %g, score %.3f",
		s.Exercise, s.Steps, s.SwatchColor, s.TrueStep, s.GuessedStep, s.Score)
	return nil
}

type multi []Sink

// Multi returns a sink submitting to every sink in turn. Every sink is tried;
// the errors of those that fail are joined.
func Multi(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return multi(sinks)
}

func (m multi) Submit(ctx context.Context, s exercise.Summary) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Submit(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
