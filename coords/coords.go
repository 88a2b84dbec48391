// Package coords holds the affine algebra shared by the interpreter, the rasterizer and the viewport.
package coords

import (
	"errors"
	"math"
)

var ErrSingular = errors.New("matrix singular")

// Matrix is a PDF affine transform [a b c d e f]; a point maps as
// x' = a*x + c*y + e, y' = b*x + d*y + f.
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply returns m followed by o (m applied first).
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// TransformVector applies only the linear part of m.
func (m Matrix) TransformVector(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y, Y: m[1]*p.X + m[3]*p.Y}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-12 {
		return Matrix{}, ErrSingular
	}
	return Matrix{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// ScaleFactor is the geometric mean scaling of the linear part, used for line widths and font sizes.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// Rect is an axis-aligned rectangle with Min <= Max on both axes.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectFromPoints returns the bounding box of pts.
func RectFromPoints(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }
func (r Rect) Empty() bool     { return r.MaxX <= r.MinX || r.MaxY <= r.MinY }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Transform maps the four corners of r through m and returns their bounding box.
func (r Rect) Transform(m Matrix) Rect {
	return RectFromPoints(
		m.Transform(Point{r.MinX, r.MinY}),
		m.Transform(Point{r.MaxX, r.MinY}),
		m.Transform(Point{r.MaxX, r.MaxY}),
		m.Transform(Point{r.MinX, r.MaxY}),
	)
}
