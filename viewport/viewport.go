// Package viewport maps between PDF user space (origin bottom-left, Y up) and
// device pixels (origin top-left, Y down) for a page shown at a given scale and
// quarter-turn rotation.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/wudi/pdfview/coords"
)

// ErrInvalidRotation is returned for rotations outside {0, 90, 180, 270}.
var ErrInvalidRotation = errors.New("viewport: invalid rotation")

// ErrInvalidScale is returned for non-positive or non-finite scales.
var ErrInvalidScale = errors.New("viewport: invalid scale")

// Viewport is the projection of one page box into device space. Values are
// derived and never mutated; a zoom or rotation produces a new Viewport.
type Viewport struct {
	Scale    float64
	Rotation int // clockwise degrees as displayed
	Box      coords.Rect
	Width    int
	Height   int

	m   coords.Matrix
	inv coords.Matrix
}

// New builds a viewport for box at scale s rotated clockwise by rotation degrees.
func New(box coords.Rect, scale float64, rotation int) (Viewport, error) {
	if !ValidScale(scale) {
		return Viewport{}, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	var m coords.Matrix
	s := scale
	x0, y0, x1, y1 := box.MinX, box.MinY, box.MaxX, box.MaxY
	switch rotation {
	case 0:
		m = coords.Matrix{s, 0, 0, -s, -x0 * s, y1 * s}
	case 90:
		m = coords.Matrix{0, s, s, 0, -y0 * s, -x0 * s}
	case 180:
		m = coords.Matrix{-s, 0, 0, s, x1 * s, -y0 * s}
	case 270:
		m = coords.Matrix{0, -s, -s, 0, y1 * s, x1 * s}
	default:
		return Viewport{}, fmt.Errorf("%w: %d", ErrInvalidRotation, rotation)
	}
	inv, err := m.Inverse()
	if err != nil {
		return Viewport{}, fmt.Errorf("viewport: %w", err)
	}
	w, h := pixels(box.Width()*s), pixels(box.Height()*s)
	if rotation == 90 || rotation == 270 {
		w, h = h, w
	}
	return Viewport{Scale: s, Rotation: rotation, Box: box, Width: w, Height: h, m: m, inv: inv}, nil
}

// ForPage combines the page's own /Rotate with a user rotation. Both must be multiples of 90.
func ForPage(box coords.Rect, pageRotate int, scale float64, rotation int) (Viewport, error) {
	if !Valid(rotation) {
		return Viewport{}, fmt.Errorf("%w: %d", ErrInvalidRotation, rotation)
	}
	return New(box, scale, Normalize(pageRotate+rotation))
}

// Valid reports whether deg is one of the four legal rotations.
func Valid(deg int) bool {
	return deg == 0 || deg == 90 || deg == 180 || deg == 270
}

// ValidScale reports whether s is a positive finite scale.
func ValidScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}

// Normalize folds any multiple of 90 into [0, 360).
func Normalize(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

func pixels(v float64) int {
	return max(int(math.Ceil(v-1e-9)), 1)
}

// Matrix maps PDF space to device space.
func (v Viewport) Matrix() coords.Matrix { return v.m }

// ToDevice maps a PDF-space point to device pixels.
func (v Viewport) ToDevice(x, y float64) (float64, float64) {
	p := v.m.Transform(coords.Point{X: x, Y: y})
	return p.X, p.Y
}

// ToPDF is the inverse of ToDevice.
func (v Viewport) ToPDF(px, py float64) (float64, float64) {
	p := v.inv.Transform(coords.Point{X: px, Y: py})
	return p.X, p.Y
}

// DeviceRect maps a PDF-space rectangle to its device bounding box.
func (v Viewport) DeviceRect(r coords.Rect) coords.Rect { return r.Transform(v.m) }

// PDFRect maps a device rectangle back to PDF space.
func (v Viewport) PDFRect(r coords.Rect) coords.Rect { return r.Transform(v.inv) }

// Same reports whether two viewports project identically.
func (v Viewport) Same(o Viewport) bool {
	return v.Scale == o.Scale && v.Rotation == o.Rotation && v.Box == o.Box
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d@%gx/%d°", v.Width, v.Height, v.Scale, v.Rotation)
}
