package scale

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when an operation is not valid for the current
// state, such as resizing to non-finite dimensions.
var ErrInvalidState = errors.New("invalid state")

// ConfigurationError reports parameters a scale cannot be built from.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IndexOutOfRange is the panic value for step queries outside [0, N).
// It signals a programming error, not a user-triggerable condition.
type IndexOutOfRange struct {
	Index int
	Steps int
}

func (e IndexOutOfRange) Error() string {
	return fmt.Sprintf("step index %d out of range [0, %d)", e.Index, e.Steps)
}
