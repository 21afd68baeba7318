// Package geo provides the normalized-coordinate geometry primitives shared by
// every annotation component. All stored coordinates live in [0,1] relative to
// a page's unscaled dimensions; conversion to and from pixel space happens at
// the edges via Normalize and Denormalize against the current container size.
package geo

import "math"

// Point is a position in either pixel or normalized space, depending on
// context. Stored entities always hold normalized points.
type Point struct {
	X float64
	Y float64
}

// Size describes a container's pixel dimensions.
type Size struct {
	Width  float64
	Height float64
}

// IsEmpty reports whether the size has non-positive dimensions.
func (s Size) IsEmpty() bool { return s.Width <= 0 || s.Height <= 0 }

// Min returns the smaller of the two dimensions.
func (s Size) Min() float64 { return math.Min(s.Width, s.Height) }

// Rect is an axis-aligned rectangle with the origin in the upper-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Line is a segment given by its two endpoints.
type Line struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Start returns the first endpoint of the line.
func (l Line) Start() Point { return Point{X: l.X1, Y: l.Y1} }

// End returns the second endpoint of the line.
func (l Line) End() Point { return Point{X: l.X2, Y: l.Y2} }

// Clamp limits v to the range [min, max].
func Clamp(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}

// Normalize maps a pixel-space point into [0,1] relative to the container.
// Callers must pass the container's current size, never a cached one, so that
// zoom and resize never desync stored data.
func Normalize(p Point, s Size) Point {
	if s.IsEmpty() {
		return Point{}
	}
	return Point{X: p.X / s.Width, Y: p.Y / s.Height}
}

// Denormalize is the inverse of Normalize.
func Denormalize(p Point, s Size) Point {
	return Point{X: p.X * s.Width, Y: p.Y * s.Height}
}

// DistanceSquaredPointToSegment returns the squared distance from p to the
// segment a-b using the standard projection formula. A degenerate segment
// collapses to point distance.
func DistanceSquaredPointToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		diffX := p.X - a.X
		diffY := p.Y - a.Y
		return diffX*diffX + diffY*diffY
	}
	t := Clamp(((p.X-a.X)*dx+(p.Y-a.Y)*dy)/lengthSq, 0, 1)
	projX := a.X + t*dx
	projY := a.Y + t*dy
	diffX := p.X - projX
	diffY := p.Y - projY
	return diffX*diffX + diffY*diffY
}

// minRectDimension keeps zero-area selections clickable.
const minRectDimension = 0.005

// BoundingRectFromPoints computes the axis-aligned bounding rectangle of the
// points, with a minimum width/height floor and clamped so the rect stays
// within [0,1]. The second return value is false for an empty slice.
func BoundingRectFromPoints(points []Point) (Rect, bool) {
	if len(points) == 0 {
		return Rect{}, false
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	width := math.Max(maxX-minX, minRectDimension)
	height := math.Max(maxY-minY, minRectDimension)
	return Rect{
		X:      Clamp(minX, 0, 1-width),
		Y:      Clamp(minY, 0, 1-height),
		Width:  width,
		Height: height,
	}, true
}

// RectFromCorners builds the min-corner rectangle spanned by two points.
func RectFromCorners(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Contains reports whether p lies within the rectangle, inclusive of edges.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Inset grows (negative pad) or shrinks (positive pad) the rectangle evenly on
// all sides.
func (r Rect) Inset(pad float64) Rect {
	return Rect{
		X:      r.X + pad,
		Y:      r.Y + pad,
		Width:  r.Width - pad*2,
		Height: r.Height - pad*2,
	}
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// IsEmpty reports whether the rectangle has non-positive area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// CubicBezierPoint evaluates the cubic Bezier defined by p0, c0, c1, p1 at
// parameter t in [0,1].
func CubicBezierPoint(p0, c0, c1, p1 Point, t float64) Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Point{
		X: b0*p0.X + b1*c0.X + b2*c1.X + b3*p1.X,
		Y: b0*p0.Y + b1*c0.Y + b2*c1.Y + b3*p1.Y,
	}
}
