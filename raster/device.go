package raster

import (
	"image/color"

	"github.com/wudi/pdfview/canvas"
	"github.com/wudi/pdfview/contentstream"
	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/observability"
)

// painter draws interpreter callbacks onto a canvas. m maps page space to device pixels.
type painter struct {
	c      *canvas.Canvas
	m      coords.Matrix
	scale  float64
	logger observability.Logger
	images int
	failed int
}

var _ contentstream.Device = (*painter)(nil)

func (p *painter) clip(gs *contentstream.GraphicsState) {
	if gs.HasClip {
		p.c.SetClip(canvas.ClipRect(gs.Clip.Transform(p.m)))
		return
	}
	p.c.ResetClip()
}

// FillPath paints with the nonzero rule; even-odd fills are approximated by it.
func (p *painter) FillPath(path *contentstream.Path, _ contentstream.FillRule, gs *contentstream.GraphicsState) {
	p.clip(gs)
	p.c.FillPath(p.devicePath(path), withAlpha(gs.FillColor, gs.FillAlpha))
}

func (p *painter) StrokePath(path *contentstream.Path, gs *contentstream.GraphicsState) {
	p.clip(gs)
	p.c.StrokePath(p.devicePath(path), withAlpha(gs.StrokeColor, gs.StrokeAlpha), p.stroke(gs))
}

func (p *painter) stroke(gs *contentstream.GraphicsState) canvas.Stroke {
	st := canvas.Stroke{
		Width: gs.LineWidth * gs.CTM.ScaleFactor() * p.scale,
		Round: gs.LineJoin != contentstream.LineJoinBevel,
	}
	switch gs.LineCap {
	case contentstream.LineCapRound:
		st.Cap = canvas.CapRound
	case contentstream.LineCapSquare:
		st.Cap = canvas.CapSquare
	}
	return st
}

func (p *painter) ShowText(t *contentstream.TextShow) {
	gs := t.GS
	mode := gs.Text.RenderMode
	if !mode.Fills() && !mode.Strokes() {
		return
	}
	var path canvas.Path
	for _, g := range t.Glyphs {
		path.Glyph(t.Face.Outline(g.Glyph), g.Matrix.Multiply(p.m))
	}
	if path.Empty() {
		return
	}
	p.clip(gs)
	if mode.Fills() {
		p.c.FillPath(&path, withAlpha(gs.FillColor, gs.FillAlpha))
	}
	if mode.Strokes() {
		p.c.StrokePath(&path, withAlpha(gs.StrokeColor, gs.StrokeAlpha), p.stroke(gs))
	}
}

func (p *painter) DrawImage(img *contentstream.Image, gs *contentstream.GraphicsState) {
	p.images++
	src, err := decodeImage(img.XObject, gs.FillColor)
	if err != nil {
		p.failed++
		p.logger.Warn("image skipped", observability.Error("error", err), observability.Bool("inline", img.Inline))
		return
	}
	p.clip(gs)
	p.c.DrawImage(src, img.Matrix.Multiply(p.m), gs.FillAlpha)
}

func (p *painter) devicePath(src *contentstream.Path) *canvas.Path {
	var out canvas.Path
	for _, sp := range src.Subpaths {
		for _, pt := range sp.Points {
			end := p.m.Transform(coords.Point{X: pt.X, Y: pt.Y})
			switch pt.Type {
			case contentstream.PathMoveTo:
				out.MoveTo(end)
			case contentstream.PathLineTo:
				out.LineTo(end)
			case contentstream.PathCurveTo:
				out.CubeTo(
					p.m.Transform(coords.Point{X: pt.Control1X, Y: pt.Control1Y}),
					p.m.Transform(coords.Point{X: pt.Control2X, Y: pt.Control2Y}),
					end)
			case contentstream.PathClose:
				out.Close()
			}
		}
		if sp.Closed {
			out.Close()
		}
	}
	return &out
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(float64(c.A)*min(max(a, 0), 1) + 0.5)
	return c
}
