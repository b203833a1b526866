package canvas

import "github.com/jsvensson/valuetrainer/internal/color"

// Fill is one recorded FillRect call.
type Fill struct {
	Rect  Rect
	Color color.Color
}

// Memory is a Surface that records fills per layer. It is used by tests and
// by headless runs.
type Memory struct {
	width, height float64
	layers        []*MemoryLayer
	onResize      []func(w, h float64)
	destroyed     bool
}

// NewMemory returns a memory surface of the given size.
func NewMemory(width, height float64) *Memory {
	return &Memory{width: width, height: height}
}

func (m *Memory) Size() (float64, float64) {
	return m.width, m.height
}

func (m *Memory) CreateLayer() Layer {
	l := &MemoryLayer{}
	m.layers = append(m.layers, l)
	return l
}

func (m *Memory) OnResize(fn func(w, h float64)) {
	m.onResize = append(m.onResize, fn)
}

func (m *Memory) Destroy() {
	m.layers = nil
	m.onResize = nil
	m.destroyed = true
}

// Resize changes the surface size and notifies subscribers.
func (m *Memory) Resize(width, height float64) {
	m.width, m.height = width, height
	for _, fn := range m.onResize {
		fn(width, height)
	}
}

// Layers returns the layers in creation order, bottom first.
func (m *Memory) Layers() []*MemoryLayer {
	return m.layers
}

// Destroyed reports whether Destroy has been called.
func (m *Memory) Destroyed() bool {
	return m.destroyed
}

// At returns the color visible at (x, y): the last fill containing the point
// on the topmost layer that has one.
func (m *Memory) At(x, y float64) (color.Color, bool) {
	for i := len(m.layers) - 1; i >= 0; i-- {
		if c, ok := m.layers[i].At(x, y); ok {
			return c, true
		}
	}
	return color.Color{}, false
}

// MemoryLayer records what was painted on it since the last Clear.
type MemoryLayer struct {
	drawables []Drawable
	fills     []Fill

	Draws  int
	Clears int
}

func (l *MemoryLayer) Add(d Drawable) {
	l.drawables = append(l.drawables, d)
}

func (l *MemoryLayer) Draw() {
	l.Draws++
	for _, d := range l.drawables {
		d.Draw(l)
	}
}

func (l *MemoryLayer) Clear() {
	l.Clears++
	l.fills = nil
}

func (l *MemoryLayer) Redraw() {
	l.Clear()
	l.Draw()
}

// FillRect implements Painter.
func (l *MemoryLayer) FillRect(r Rect, c color.Color) {
	l.fills = append(l.fills, Fill{Rect: r, Color: c})
}

// Fills returns the fills recorded since the last Clear.
func (l *MemoryLayer) Fills() []Fill {
	return l.fills
}

// At returns the color of the last fill containing (x, y).
func (l *MemoryLayer) At(x, y float64) (color.Color, bool) {
	for i := len(l.fills) - 1; i >= 0; i-- {
		if l.fills[i].Rect.Contains(x, y) {
			return l.fills[i].Color, true
		}
	}
	return color.Color{}, false
}
