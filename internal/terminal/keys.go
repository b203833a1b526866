package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/jsvensson/valuetrainer/internal/exercise"
)

// Command maps a key press to a logical command. Arrows move the swatch half
// a step, b toggles the bounce and Enter or space submits.
func Command(key tcell.Key, r rune) (exercise.Command, bool) {
	switch key {
	case tcell.KeyLeft:
		return exercise.MoveLeft, true
	case tcell.KeyRight:
		return exercise.MoveRight, true
	case tcell.KeyEnter:
		return exercise.Submit, true
	case tcell.KeyRune:
		switch r {
		case 'b', 'B':
			return exercise.ToggleBounce, true
		case 'h':
			return exercise.MoveLeft, true
		case 'l':
			return exercise.MoveRight, true
		case ' ':
			return exercise.Submit, true
		}
	}
	return "", false
}

// IsQuit reports whether a key press ends the session.
func IsQuit(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return r == 'q' || r == 'Q'
	}
	return false
}

// Help is the key summary shown in the status line.
const Help = "←/→ move · b bounce · enter submit · q quit"
