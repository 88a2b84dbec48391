// Package canvas paints device-space paths, glyph outlines and images onto an RGBA raster.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/wudi/pdfview/coords"
)

type Cap uint8

const (
	CapButt Cap = iota
	CapRound
	CapSquare
)

// Stroke describes how StrokePath widens a path. Width is in device pixels.
type Stroke struct {
	Width float64
	Cap   Cap
	Round bool // round joins
}

// MinStrokeWidth is the thinnest line drawn; zero-width PDF lines map to it.
const MinStrokeWidth = 1.0

// Canvas wraps an RGBA image with a rectangular clip.
type Canvas struct {
	img  *image.RGBA
	clip image.Rectangle
	z    vector.Rasterizer
}

func New(w, h int) *Canvas {
	return FromRGBA(image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0))))
}

func FromRGBA(img *image.RGBA) *Canvas {
	return &Canvas{img: img, clip: img.Bounds()}
}

func (c *Canvas) Image() *image.RGBA      { return c.img }
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Clear replaces every pixel, ignoring the clip.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// SetClip limits painting to r. A zero rectangle clips everything.
func (c *Canvas) SetClip(r image.Rectangle) { c.clip = r.Intersect(c.img.Bounds()) }

func (c *Canvas) ResetClip() { c.clip = c.img.Bounds() }

// ClipRect converts a device rectangle to the pixel rectangle it covers.
func ClipRect(r coords.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.MinX)), int(math.Floor(r.MinY)),
		int(math.Ceil(r.MaxX)), int(math.Ceil(r.MaxY)),
	)
}

// FillPath fills p with col using the nonzero winding rule.
func (c *Canvas) FillPath(p *Path, col color.NRGBA) {
	if p.Empty() || col.A == 0 {
		return
	}
	r := ClipRect(p.Bounds()).Inset(-1).Intersect(c.clip)
	if r.Empty() {
		return
	}
	c.z.Reset(r.Dx(), r.Dy())
	off := coords.Point{X: float64(r.Min.X), Y: float64(r.Min.Y)}
	var start coords.Point
	open := false
	for _, s := range p.segs {
		switch s.op {
		case opMove:
			if open {
				c.z.ClosePath()
			}
			start = s.pts[0]
			c.z.MoveTo(f32(s.pts[0], off))
			open = true
		case opLine:
			c.z.LineTo(f32(s.pts[0], off))
		case opQuad:
			bx, by := f32(s.pts[0], off)
			cx, cy := f32(s.pts[1], off)
			c.z.QuadTo(bx, by, cx, cy)
		case opCube:
			bx, by := f32(s.pts[0], off)
			cx, cy := f32(s.pts[1], off)
			dx, dy := f32(s.pts[2], off)
			c.z.CubeTo(bx, by, cx, cy, dx, dy)
		case opClose:
			c.z.ClosePath()
			c.z.MoveTo(f32(start, off))
			open = false
		}
	}
	if open {
		c.z.ClosePath()
	}
	c.z.DrawOp = draw.Over
	c.z.Draw(c.img, r, image.NewUniform(col), image.Point{})
}

// StrokePath widens p into quads and discs and fills the result.
func (c *Canvas) StrokePath(p *Path, col color.NRGBA, st Stroke) {
	if p.Empty() || col.A == 0 {
		return
	}
	hw := math.Max(st.Width, MinStrokeWidth) / 2
	var out Path
	lines, closed := p.polylines()
	for i, pts := range lines {
		n := len(pts)
		for j := 0; j+1 < n; j++ {
			a, b := pts[j], pts[j+1]
			if !closed[i] && st.Cap == CapSquare {
				if j == 0 {
					a = extend(b, a, hw)
				}
				if j+2 == n {
					b = extend(a, b, hw)
				}
			}
			quad(&out, a, b, hw)
			if st.Round && hw > 1 && j+2 < n {
				disc(&out, pts[j+1], hw)
			}
		}
		if closed[i] && st.Round && hw > 1 {
			disc(&out, pts[0], hw)
		}
		if !closed[i] && st.Cap == CapRound {
			disc(&out, pts[0], hw)
			disc(&out, pts[n-1], hw)
		}
	}
	c.FillPath(&out, col)
}

// FillRect fills a device rectangle.
func (c *Canvas) FillRect(r coords.Rect, col color.NRGBA) {
	var p Path
	p.Rect(r)
	c.FillPath(&p, col)
}

// StrokeRect outlines a device rectangle.
func (c *Canvas) StrokeRect(r coords.Rect, col color.NRGBA, width float64) {
	var p Path
	p.Rect(r)
	c.StrokePath(&p, col, Stroke{Width: width, Cap: CapSquare})
}

// DrawImage paints src so that its full extent covers the PDF unit square mapped by m,
// with the first row at the top (unit y = 1).
func (c *Canvas) DrawImage(src image.Image, m coords.Matrix, alpha float64) {
	b := src.Bounds()
	if b.Empty() || alpha <= 0 || c.clip.Empty() {
		return
	}
	w, h := float64(b.Dx()), float64(b.Dy())
	s2d := f64.Aff3{
		m[0] / w, -m[2] / h, m[2] + m[4],
		m[1] / w, -m[3] / h, m[3] + m[5],
	}
	if b.Min != (image.Point{}) {
		s2d[2] -= s2d[0]*float64(b.Min.X) + s2d[1]*float64(b.Min.Y)
		s2d[5] -= s2d[3]*float64(b.Min.X) + s2d[4]*float64(b.Min.Y)
	}
	opts := &xdraw.Options{DstMask: c.clip}
	if alpha < 1 {
		opts.SrcMask = image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	}
	var interp xdraw.Transformer = xdraw.ApproxBiLinear
	// strongly magnified images are sampled, not smoothed
	if math.Abs(s2d[0]) > 4 || math.Abs(s2d[4]) > 4 {
		interp = xdraw.NearestNeighbor
	}
	interp.Transform(c.img, s2d, src, b, xdraw.Over, opts)
}

func f32(p, off coords.Point) (float32, float32) {
	return float32(p.X - off.X), float32(p.Y - off.Y)
}

// quad adds the rectangle of half-width hw around segment a-b.
// Every piece is emitted with the same orientation so overlaps add up under nonzero fill.
func quad(p *Path, a, b coords.Point, hw float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	p.MoveTo(coords.Point{X: a.X + nx, Y: a.Y + ny})
	p.LineTo(coords.Point{X: b.X + nx, Y: b.Y + ny})
	p.LineTo(coords.Point{X: b.X - nx, Y: b.Y - ny})
	p.LineTo(coords.Point{X: a.X - nx, Y: a.Y - ny})
	p.Close()
}

// disc approximates a circle with the same orientation as quad.
func disc(p *Path, c coords.Point, r float64) {
	const n = 12
	for i := 0; i <= n; i++ {
		a := -2 * math.Pi * float64(i) / n
		pt := coords.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
		if i == 0 {
			p.MoveTo(pt)
		} else if i < n {
			p.LineTo(pt)
		}
	}
	p.Close()
}

// extend moves b further away from a by d.
func extend(a, b coords.Point, d float64) coords.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return b
	}
	return coords.Point{X: b.X + dx/l*d, Y: b.Y + dy/l*d}
}
