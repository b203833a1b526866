package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsvensson/valuetrainer/internal/exercise"
)

// Record is one line of a results file.
type Record struct {
	// Session identifies one run of the trainer.
	Session string           `json:"session"`
	Time    time.Time        `json:"time"`
	Summary exercise.Summary `json:"summary"`
}

// File appends summaries to a JSON-lines file, one Record per line.
type File struct {
	mu      sync.Mutex
	f       *os.File
	enc     *json.Encoder
	session string
	now     func() time.Time
}

// OpenFile opens path for appending, creating it if needed. Records written
// through the returned sink share a fresh session ID.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening results file: %w", err)
	}
	return &File{
		f:       f,
		enc:     json.NewEncoder(f),
		session: uuid.NewString(),
		now:     time.Now,
	}, nil
}

// Session returns the session ID stamped on every record.
func (f *File) Session() string {
	return f.session
}

func (f *File) Submit(_ context.Context, s exercise.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enc == nil {
		return fmt.Errorf("writing result: %w", os.ErrClosed)
	}
	rec := Record{Session: f.session, Time: f.now().UTC(), Summary: s}
	if err := f.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// Close closes the underlying file. Later submissions fail.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enc == nil {
		return nil
	}
	f.enc = nil
	return f.f.Close()
}
