package model

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Matrix is an affine transform [a b c d e f], mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale creates a scaling matrix
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// MatrixFrom builds a matrix from six numbers, as found in a /Matrix
// array. ok is false unless exactly six values are given.
func MatrixFrom(vals []float64) (Matrix, bool) {
	if len(vals) != 6 {
		return Identity(), false
	}
	var m Matrix
	copy(m[:], vals)
	return m, true
}

// Transform applies the matrix to a point
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns m × other: applying the result is applying m first,
// then other.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// IsIdentity returns true if the matrix is an identity matrix
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// Rect is an axis-aligned rectangle given by its lower-left and
// upper-right corners. An unbounded rectangle has infinite corners.
type Rect struct {
	LLX, LLY, URX, URY float64
}

// NewRect builds a rectangle from any two opposite corners.
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{
		LLX: math.Min(x1, x2),
		LLY: math.Min(y1, y2),
		URX: math.Max(x1, x2),
		URY: math.Max(y1, y2),
	}
}

// RectFrom builds a rectangle from a four-number array such as
// /MediaBox or /BBox.
func RectFrom(vals []float64) (Rect, bool) {
	if len(vals) != 4 {
		return Rect{}, false
	}
	return NewRect(vals[0], vals[1], vals[2], vals[3]), true
}

// Unbounded returns the rectangle covering the whole plane.
func Unbounded() Rect {
	inf := math.Inf(1)
	return Rect{LLX: -inf, LLY: -inf, URX: inf, URY: inf}
}

// IsUnbounded reports whether any edge is infinite
func (r Rect) IsUnbounded() bool {
	return math.IsInf(r.LLX, 0) || math.IsInf(r.LLY, 0) || math.IsInf(r.URX, 0) || math.IsInf(r.URY, 0)
}

func (r Rect) Width() float64  { return r.URX - r.LLX }
func (r Rect) Height() float64 { return r.URY - r.LLY }

// IsEmpty reports whether the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.URX <= r.LLX || r.URY <= r.LLY
}

// Contains checks if a point is inside the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.LLX && p.X <= r.URX && p.Y >= r.LLY && p.Y <= r.URY
}

// Intersect returns the overlap of two rectangles, which is empty when
// they do not meet.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		LLX: math.Max(r.LLX, other.LLX),
		LLY: math.Max(r.LLY, other.LLY),
		URX: math.Min(r.URX, other.URX),
		URY: math.Min(r.URY, other.URY),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Union returns the smallest rectangle holding both
func (r Rect) Union(other Rect) Rect {
	return Rect{
		LLX: math.Min(r.LLX, other.LLX),
		LLY: math.Min(r.LLY, other.LLY),
		URX: math.Max(r.URX, other.URX),
		URY: math.Max(r.URY, other.URY),
	}
}

// Extend grows the rectangle to include p.
func (r Rect) Extend(p Point) Rect {
	return Rect{
		LLX: math.Min(r.LLX, p.X),
		LLY: math.Min(r.LLY, p.Y),
		URX: math.Max(r.URX, p.X),
		URY: math.Max(r.URY, p.Y),
	}
}

// Transform returns the bounding box of the rectangle's corners after
// applying m. Unbounded rectangles stay unbounded.
func (r Rect) Transform(m Matrix) Rect {
	if r.IsUnbounded() {
		return r
	}
	p := m.Transform(Point{r.LLX, r.LLY})
	out := Rect{LLX: p.X, LLY: p.Y, URX: p.X, URY: p.Y}
	for _, c := range []Point{{r.URX, r.LLY}, {r.URX, r.URY}, {r.LLX, r.URY}} {
		out = out.Extend(m.Transform(c))
	}
	return out
}
