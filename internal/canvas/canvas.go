// Package canvas defines the drawing contract the trainer core renders
// through. Concrete surfaces (a terminal, an in-memory recorder) implement it.
package canvas

import "github.com/jsvensson/valuetrainer/internal/color"

// Rect is an axis-aligned rectangle in surface units.
type Rect struct {
	X, Y, W, H float64
}

// Centered returns the rectangle of size w×h centered on (cx, cy).
func Centered(cx, cy, w, h float64) Rect {
	return Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}

// Contains reports whether the point lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Painter fills rectangles. It is the only rendering primitive.
type Painter interface {
	FillRect(r Rect, c color.Color)
}

// Drawable is anything that can render itself with a Painter.
type Drawable interface {
	Draw(p Painter)
}

// Layer is an independently redrawable stack of drawables.
type Layer interface {
	Add(d Drawable)
	Draw()
	Clear()
	Redraw()
}

// Surface hands out layers and reports its size. A surface is owned by one
// exercise; Destroy releases all layers and resize subscriptions.
type Surface interface {
	Size() (width, height float64)
	CreateLayer() Layer
	OnResize(fn func(width, height float64))
	Destroy()
}
