// Package geom provides the planar geometry primitives shared by the spatial
// index, the viewport controller, and the simulation core.
//
// Vectors are gonum's r2.Vec so that simulation code can use its arithmetic
// helpers directly. All canvas coordinates are world-space float64 values;
// screen-space conversion lives in pkg/viewport.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a 2D vector in world coordinates.
type Vec = r2.Vec

// IsFinite reports whether every component is a finite number.
// Nodes with non-finite geometry are skipped by indexing and rendering
// rather than treated as fatal.
func IsFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Rect is an axis-aligned rectangle described by its min corner and extent.
// Width and Height must be non-negative for the predicates below to hold.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// RectFromCorners builds the rectangle spanned by two opposite corners,
// regardless of their order. Useful for rubber-band box selection where the
// drag may go in any direction.
func RectFromCorners(a, b Vec) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// MaxX returns the rectangle's right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the rectangle's bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the rectangle's midpoint.
func (r Rect) Center() Vec {
	return Vec{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether the point lies inside the rectangle.
// Points on the min edges are inside, points on the max edges are not,
// so adjacent rectangles partition the plane without double-counting.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// Intersects reports whether the two rectangles overlap.
// Touching edges count as an intersection.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.MaxX() && o.X <= r.MaxX() && r.Y <= o.MaxY() && o.Y <= r.MaxY()
}

// Union returns the smallest rectangle covering both inputs.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// PadMin expands the rectangle on its min sides only, growing it toward the
// top-left by pad while keeping the max corner fixed. The spatial index uses
// this to compensate for indexing node origins rather than full extents.
func (r Rect) PadMin(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + pad, Height: r.Height + pad}
}

// Expand grows the rectangle symmetrically by the given fractions of its own
// width and height. Expand(0.5, 0.5) adds half the width on each horizontal
// side and half the height on each vertical side.
func (r Rect) Expand(fx, fy float64) Rect {
	dx := r.Width * fx
	dy := r.Height * fy
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}
