package terminal

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/jsvensson/valuetrainer/internal/exercise"
)

const sampleRate = beep.SampleRate(44100)

// Tone is a sine tone played as judgment feedback.
type Tone struct {
	Freq     float64
	Duration time.Duration
}

// ToneFor picks the feedback tone for a judged guess: high for an exact
// match, middle for a guess that still scored, low otherwise.
func ToneFor(s exercise.Summary) Tone {
	switch {
	case s.Correct():
		return Tone{Freq: 880, Duration: 80 * time.Millisecond}
	case s.Score > 0:
		return Tone{Freq: 440, Duration: 80 * time.Millisecond}
	default:
		return Tone{Freq: 220, Duration: 160 * time.Millisecond}
	}
}

// Sound plays judgment tones on the default audio device.
type Sound struct {
	ready bool
}

// NewSound initializes the speaker. A Sound whose initialization failed stays
// silent; the error is returned so the caller can report it.
func NewSound() (*Sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &Sound{}, err
	}
	return &Sound{ready: true}, nil
}

// Judged plays the tone for s.
func (s *Sound) Judged(sum exercise.Summary) {
	if s == nil || !s.ready {
		return
	}
	tone := ToneFor(sum)
	sine, err := generators.SineTone(sampleRate, tone.Freq)
	if err != nil {
		log.Warningf("building tone: %s", err)
		return
	}
	speaker.Play(beep.Take(sampleRate.N(tone.Duration), sine))
}

// Close releases the audio device.
func (s *Sound) Close() {
	if s != nil && s.ready {
		speaker.Close()
		s.ready = false
	}
}
