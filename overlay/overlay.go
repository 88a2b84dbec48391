// Package overlay paints the transparent layer that sits above a rendered page:
// editable text runs, the current selection and the user's edits. Every call
// repaints from scratch.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/wudi/pdfview/canvas"
	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/edit"
	"github.com/wudi/pdfview/fonts"
	"github.com/wudi/pdfview/textrun"
	"github.com/wudi/pdfview/viewport"
)

// ErrSizeMismatch is returned by Flatten when the layer and base were produced
// for different viewports.
var ErrSizeMismatch = errors.New("overlay: layer and base differ in size")

// Style holds the colors the overlay paints with. SelectionWidth is in device pixels.
type Style struct {
	TextInk          color.NRGBA // unedited runs; transparent lets the page raster show through
	EditedInk        color.NRGBA
	EditingInk       color.NRGBA
	SelectionFill    color.NRGBA
	SelectionLine    color.NRGBA
	SelectionWidth   float64
	Paper            color.NRGBA
	HighlightOpacity float64
}

// DefaultStyle leaves TextInk transparent: unedited runs are already on the
// page raster, so the overlay paints only edited and selected runs. Set TextInk
// to an opaque color to ink every run on the overlay itself.
func DefaultStyle() Style {
	blue := color.NRGBA{R: 0x1a, G: 0x73, B: 0xe8, A: 0xff}
	return Style{
		EditedInk:        color.NRGBA{A: 0xff},
		EditingInk:       blue,
		SelectionFill:    color.NRGBA{R: 0x1a, G: 0x73, B: 0xe8, A: 0x33},
		SelectionLine:    blue,
		SelectionWidth:   1,
		Paper:            color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		HighlightOpacity: edit.HighlightOpacity,
	}
}

// Layer is one composited overlay, valid only for the viewport it was painted at.
type Layer struct {
	Page     int
	Viewport viewport.Viewport
	Image    *image.RGBA
}

// Renderer composites overlays. It is safe for concurrent use.
type Renderer struct {
	style  Style
	shaper *fonts.Shaper
}

// NewRenderer uses DefaultStyle when style is the zero value.
func NewRenderer(style Style) (*Renderer, error) {
	if style == (Style{}) {
		style = DefaultStyle()
	}
	if style.HighlightOpacity <= 0 {
		style.HighlightOpacity = edit.HighlightOpacity
	}
	shaper, err := fonts.NewShaper()
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	return &Renderer{style: style, shaper: shaper}, nil
}

func (r *Renderer) Style() Style { return r.style }

// Composite paints the text items and visible edits of page at vp. edits must be
// the visible history slice; items and edits for other pages are ignored. The
// item whose ID equals selectionID is drawn selected.
func (r *Renderer) Composite(page int, vp viewport.Viewport, edits []edit.Edit, items []textrun.TextItem, selectionID string) *Layer {
	c := canvas.New(vp.Width, vp.Height)
	m := vp.Matrix()

	shown := make(map[string]bool)
	for _, it := range items {
		if it.Page != page {
			continue
		}
		shown[it.ID] = true
		r.item(c, it, m, it.ID == selectionID)
	}

	for _, e := range edit.OnPage(edits, page) {
		switch e := e.(type) {
		case *edit.Text:
			// item rewrites are painted through their item
			if e.ItemID != "" && shown[e.ItemID] {
				continue
			}
			r.text(c, e.Content, e.X, e.Y, e.Size(), m, e.Color.NRGBA(1))
		case *edit.Highlight:
			c.FillRect(vp.DeviceRect(e.Rect()), e.Color.NRGBA(r.style.HighlightOpacity))
		case *edit.Drawing:
			width := e.StrokeWidth * vp.Scale
			if offCanvas(c, e.Bounds().Transform(m), width) {
				continue
			}
			r.drawing(c, e.Points, e.Color.NRGBA(1), width, m)
		}
	}
	return &Layer{Page: page, Viewport: vp, Image: c.Image()}
}

func (r *Renderer) item(c *canvas.Canvas, it textrun.TextItem, m coords.Matrix, selected bool) {
	box := it.Box()
	// a rewrite longer than the extracted run widens its box
	if selected || it.Edited() {
		if w := r.shaper.Advance(it.Text) * it.FontSize; w > box.Width() {
			box.MaxX = box.MinX + w
		}
	}
	box = box.Transform(m)
	if it.Edited() {
		c.FillRect(box, r.style.Paper)
	}
	ink := r.style.TextInk
	switch {
	case selected:
		c.FillRect(box, r.style.SelectionFill)
		ink = r.style.EditingInk
	case it.Edited():
		ink = r.style.EditedInk
	}
	if ink.A != 0 {
		r.text(c, it.Text, it.OriginX, it.OriginY, it.FontSize, m, ink)
	}
	if selected {
		c.StrokeRect(box, r.style.SelectionLine, r.style.SelectionWidth)
	}
}

// text shapes s and fills it with its baseline origin at (x, y) in PDF space.
func (r *Renderer) text(c *canvas.Canvas, s string, x, y, size float64, m coords.Matrix, col color.NRGBA) {
	if s == "" || size <= 0 || col.A == 0 {
		return
	}
	var p canvas.Path
	pen := 0.0
	for _, g := range r.shaper.Shape(s) {
		gm := coords.Scale(size, size).
			Multiply(coords.Translate(x+(pen+g.XOffset)*size, y+g.YOffset*size)).
			Multiply(m)
		p.Glyph(r.shaper.Outline(g.ID), gm)
		pen += g.XAdvance
	}
	c.FillPath(&p, col)
}

func (r *Renderer) drawing(c *canvas.Canvas, pts []edit.Point, col color.NRGBA, width float64, m coords.Matrix) {
	if len(pts) == 0 {
		return
	}
	var p canvas.Path
	p.MoveTo(m.Transform(coords.Point{X: pts[0].X, Y: pts[0].Y}))
	for _, pt := range pts[1:] {
		p.LineTo(m.Transform(coords.Point{X: pt.X, Y: pt.Y}))
	}
	if len(pts) == 1 {
		p.LineTo(m.Transform(coords.Point{X: pts[0].X, Y: pts[0].Y}))
	}
	c.StrokePath(&p, col, canvas.Stroke{Width: width, Cap: canvas.CapRound, Round: true})
}

// offCanvas reports whether r, grown by pad device pixels on every side, misses c.
func offCanvas(c *canvas.Canvas, r coords.Rect, pad float64) bool {
	r = coords.Rect{MinX: r.MinX - pad, MinY: r.MinY - pad, MaxX: r.MaxX + pad, MaxY: r.MaxY + pad}
	return !canvas.ClipRect(r).Overlaps(c.Bounds())
}

// Sketch strokes an in-progress drawing onto l. The points are PDF space and
// width is in PDF units, as they will be recorded once the stroke finishes.
func (r *Renderer) Sketch(l *Layer, pts []edit.Point, col edit.Color, width float64) {
	r.drawing(canvas.FromRGBA(l.Image), pts, col.NRGBA(1), width*l.Viewport.Scale, l.Viewport.Matrix())
}

// Flatten composes l over base into a new image.
func Flatten(base *image.RGBA, l *Layer) (*image.RGBA, error) {
	if base.Bounds() != l.Image.Bounds() {
		return nil, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, base.Bounds(), l.Image.Bounds())
	}
	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)
	draw.Draw(out, out.Bounds(), l.Image, l.Image.Bounds().Min, draw.Over)
	return out, nil
}
