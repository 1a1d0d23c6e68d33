package drag

import "math"

// Point is a pointer position in the grid's coordinate space.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Center returns the rect's center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Inset returns the rect shrunk by the given fraction on every edge.
// Inset(0.3) keeps the central 40% in each dimension.
func (r Rect) Inset(frac float64) Rect {
	dx := r.W * frac
	dy := r.H * frac
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// distance returns the Euclidean distance between two points.
func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Card describes one bookmark card's place in the visible grid. Cards
// are given to the engine in display order.
type Card struct {
	ID       string
	Rect     Rect
	IsFolder bool
}
