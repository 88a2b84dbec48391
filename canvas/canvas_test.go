package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/wudi/pdfview/coords"
)

var red = color.NRGBA{R: 255, A: 255}

func TestFillRect(t *testing.T) {
	c := New(20, 20)
	c.Clear(color.White)
	c.FillRect(coords.Rect{MinX: 5, MinY: 5, MaxX: 15, MaxY: 15}, red)

	if got := c.Image().RGBAAt(10, 10); got.R < 250 || got.G > 5 || got.B > 5 {
		t.Fatalf("inside pixel = %v", got)
	}
	if got := c.Image().RGBAAt(2, 2); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("outside pixel = %v", got)
	}
}

func TestClipLimitsFill(t *testing.T) {
	c := New(20, 20)
	c.SetClip(image.Rect(0, 0, 10, 20))
	c.FillRect(coords.Rect{MaxX: 20, MaxY: 20}, red)

	if c.Image().RGBAAt(5, 5).A < 250 {
		t.Fatalf("clip interior not painted")
	}
	if c.Image().RGBAAt(15, 5).A != 0 {
		t.Fatalf("painted outside clip")
	}
	c.ResetClip()
	c.FillRect(coords.Rect{MinX: 12, MaxX: 20, MaxY: 20}, red)
	if c.Image().RGBAAt(15, 5).A < 250 {
		t.Fatalf("reset clip still active")
	}
}

func TestStrokeOverlapsDoNotCancel(t *testing.T) {
	c := New(30, 30)
	var p Path
	p.MoveTo(coords.Point{X: 5, Y: 15})
	p.LineTo(coords.Point{X: 25, Y: 15})
	p.LineTo(coords.Point{X: 5, Y: 15.5})
	c.StrokePath(&p, red, Stroke{Width: 4, Round: true})

	if a := c.Image().RGBAAt(15, 15).A; a < 250 {
		t.Fatalf("doubled-back stroke alpha = %d", a)
	}
	if a := c.Image().RGBAAt(15, 25).A; a != 0 {
		t.Fatalf("stroke leaked to %d", a)
	}
}

func TestZeroWidthStrokeIsVisible(t *testing.T) {
	c := New(10, 10)
	var p Path
	p.MoveTo(coords.Point{X: 0, Y: 5})
	p.LineTo(coords.Point{X: 10, Y: 5})
	c.StrokePath(&p, red, Stroke{})
	if c.Image().RGBAAt(5, 4).A == 0 && c.Image().RGBAAt(5, 5).A == 0 {
		t.Fatalf("hairline not drawn")
	}
}

func TestTranslucentFill(t *testing.T) {
	c := New(4, 4)
	c.Clear(color.White)
	c.FillRect(coords.Rect{MaxX: 4, MaxY: 4}, color.NRGBA{B: 255, A: 128})
	got := c.Image().RGBAAt(1, 1)
	if got.B < 250 || got.R < 120 || got.R > 135 {
		t.Fatalf("blend = %v", got)
	}
}

func TestDrawImageFlipsRows(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(0, 1, color.RGBA{B: 255, A: 255})

	c := New(10, 20)
	// unit square to device: x scaled by 10, y flipped into [0,20]
	c.DrawImage(src, coords.Matrix{10, 0, 0, -20, 0, 20}, 1)

	if top := c.Image().RGBAAt(5, 2); top.R != 255 || top.B != 0 {
		t.Fatalf("top = %v", top)
	}
	if bottom := c.Image().RGBAAt(5, 17); bottom.B != 255 || bottom.R != 0 {
		t.Fatalf("bottom = %v", bottom)
	}
}

func TestPolylinesFlattenCurves(t *testing.T) {
	var p Path
	p.MoveTo(coords.Point{})
	p.CubeTo(coords.Point{X: 10}, coords.Point{X: 10, Y: 10}, coords.Point{Y: 10})
	p.Close()
	lines, closed := p.polylines()
	if len(lines) != 1 || !closed[0] {
		t.Fatalf("lines = %d closed = %v", len(lines), closed)
	}
	if len(lines[0]) < 5 {
		t.Fatalf("curve flattened to %d points", len(lines[0]))
	}
	last := lines[0][len(lines[0])-1]
	if last != (coords.Point{Y: 10}) {
		t.Fatalf("curve ends at %v", last)
	}
}
