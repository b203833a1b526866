// Package terminal runs the trainer in a terminal: a tcell screen that
// provides exercise surfaces and keyboard input, plus judgment tones.
package terminal

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/tliron/commonlog"

	"github.com/jsvensson/valuetrainer/internal/canvas"
	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/exercise"
	"github.com/jsvensson/valuetrainer/internal/loop"
)

var log = commonlog.GetLogger("valuetrainer.terminal")

// Screen owns the terminal. The top rows hold the active exercise's surface;
// the last row is a status line. Rendering happens on the loop goroutine;
// events are read on a goroutine of their own.
type Screen struct {
	screen tcell.Screen
	loop   *loop.Loop

	mu      sync.Mutex
	handler func(exercise.Command)
	quit    func()

	// Loop goroutine only.
	current *Surface
	status  string
}

// NewScreen initializes s and returns a Screen scheduling its work on l.
func NewScreen(s tcell.Screen, l *loop.Loop) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.HideCursor()
	s.Clear()
	return &Screen{screen: s, loop: l, status: Help}, nil
}

// NewSurface returns a surface covering the exercise area. It replaces the
// current surface.
func (s *Screen) NewSurface() (canvas.Surface, error) {
	f := &Surface{screen: s}
	s.current = f
	s.paint()
	return f, nil
}

// Subscribe implements the sequencer's input source. Only one subscriber is
// active at a time.
func (s *Screen) Subscribe(fn func(exercise.Command)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.handler = nil
	}
}

// OnQuit sets the function called when the user asks to quit.
func (s *Screen) OnQuit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quit = fn
}

// SetStatus replaces the status line text.
func (s *Screen) SetStatus(text string) {
	s.status = text
	s.paint()
}

// Listen reads terminal events until the screen is finalized.
func (s *Screen) Listen() {
	go func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			s.dispatch(ev)
		}
	}()
}

// Fini restores the terminal.
func (s *Screen) Fini() {
	s.screen.Fini()
}

func (s *Screen) dispatch(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		s.key(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		s.loop.Post(func() {
			s.screen.Sync()
			s.resize()
		})
	}
}

func (s *Screen) key(key tcell.Key, r rune) {
	s.mu.Lock()
	handler, quit := s.handler, s.quit
	s.mu.Unlock()

	if IsQuit(key, r) {
		if quit != nil {
			quit()
		}
		return
	}
	if cmd, ok := Command(key, r); ok && handler != nil {
		handler(cmd)
	}
}

// area is the size of the exercise area in cells.
func (s *Screen) area() (int, int) {
	w, h := s.screen.Size()
	return w, max(h-1, 0)
}

func (s *Screen) resize() {
	if f := s.current; f != nil {
		w, h := s.area()
		for _, fn := range f.onResize {
			fn(float64(w), float64(h))
		}
	}
	s.paint()
}

// paint redraws the whole screen from the current surface's layers.
func (s *Screen) paint() {
	w, h := s.area()
	blank := tcell.StyleDefault
	for y := range h {
		for x := range w {
			s.screen.SetContent(x, y, ' ', nil, blank)
		}
	}
	if f := s.current; f != nil {
		for _, l := range f.layers {
			for _, fill := range l.Fills() {
				s.fill(fill.Rect, fill.Color, w, h)
			}
		}
	}
	s.drawStatus(w, h)
	s.screen.Show()
}

// fill paints every cell whose center lies inside r.
func (s *Screen) fill(r canvas.Rect, c color.Color, w, h int) {
	style := tcell.StyleDefault.Background(cellColor(c))
	for y := range h {
		for x := range w {
			if r.Contains(float64(x)+0.5, float64(y)+0.5) {
				s.screen.SetContent(x, y, ' ', nil, style)
			}
		}
	}
}

func (s *Screen) drawStatus(w, y int) {
	style := tcell.StyleDefault.Reverse(true)
	runes := []rune(s.status)
	for x := range w {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		s.screen.SetContent(x, y, r, nil, style)
	}
}

func cellColor(c color.Color) tcell.Color {
	r, g, b := c.RGB()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Surface is one exercise's view of the screen.
type Surface struct {
	screen    *Screen
	layers    []*layer
	onResize  []func(w, h float64)
	destroyed bool
}

func (f *Surface) Size() (float64, float64) {
	w, h := f.screen.area()
	return float64(w), float64(h)
}

func (f *Surface) CreateLayer() canvas.Layer {
	l := &layer{MemoryLayer: &canvas.MemoryLayer{}, surface: f}
	f.layers = append(f.layers, l)
	return l
}

func (f *Surface) OnResize(fn func(w, h float64)) {
	f.onResize = append(f.onResize, fn)
}

// Destroy detaches the surface and blanks the exercise area.
func (f *Surface) Destroy() {
	if f.destroyed {
		return
	}
	f.destroyed = true
	f.layers = nil
	f.onResize = nil
	if f.screen.current == f {
		f.screen.current = nil
		f.screen.paint()
	}
}

func (f *Surface) render() {
	if f.destroyed || f.screen.current != f {
		return
	}
	f.screen.paint()
}

// layer records fills like a memory layer and repaints the screen after
// every change.
type layer struct {
	*canvas.MemoryLayer
	surface *Surface
}

func (l *layer) Draw() {
	l.MemoryLayer.Draw()
	l.surface.render()
}

func (l *layer) Clear() {
	l.MemoryLayer.Clear()
	l.surface.render()
}

func (l *layer) Redraw() {
	l.MemoryLayer.Clear()
	l.MemoryLayer.Draw()
	l.surface.render()
}
