package contentstream

import (
	"image/color"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/fonts"
	"github.com/wudi/pdfview/ir/semantic"
)

// TextRenderMode matches PDF text rendering modes set via Tr operator.
type TextRenderMode int

const (
	TextFill TextRenderMode = iota
	TextStroke
	TextFillStroke
	TextInvisible
	TextFillClip
	TextStrokeClip
	TextFillStrokeClip
	TextClip
)

// Fills reports whether glyphs are filled in this mode.
func (m TextRenderMode) Fills() bool {
	return m == TextFill || m == TextFillStroke || m == TextFillClip || m == TextFillStrokeClip
}

// Strokes reports whether glyph outlines are stroked in this mode.
func (m TextRenderMode) Strokes() bool {
	return m == TextStroke || m == TextFillStroke || m == TextStrokeClip || m == TextFillStrokeClip
}

// LineCap represents the line cap style (J operator).
type LineCap int

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

// LineJoin represents the line join style (j operator).
type LineJoin int

const (
	LineJoinMiter LineJoin = iota
	LineJoinRound
	LineJoinBevel
)

// FillRule selects nonzero winding (f, B) or even-odd (f*, B*).
type FillRule int

const (
	NonZero FillRule = iota
	EvenOdd
)

// Path describes a graphics path made of subpaths, in page space.
type Path struct {
	Subpaths []Subpath
}

// Subpath describes a portion of a path.
type Subpath struct {
	Points []PathPoint
	Closed bool
}

// PathPoint identifies a path segment and its coordinates.
type PathPoint struct {
	X, Y                 float64
	Type                 PathPointType
	Control1X, Control1Y float64
	Control2X, Control2Y float64
}

// PathPointType enumerates path segment types.
type PathPointType int

const (
	PathMoveTo PathPointType = iota
	PathLineTo
	PathCurveTo
	PathClose
)

// Empty reports whether the path has no segments to paint.
func (p *Path) Empty() bool {
	for _, sp := range p.Subpaths {
		if len(sp.Points) > 1 {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of all points, control points included.
func (p *Path) Bounds() coords.Rect {
	var pts []coords.Point
	for _, sp := range p.Subpaths {
		for _, pt := range sp.Points {
			pts = append(pts, coords.Point{X: pt.X, Y: pt.Y})
			if pt.Type == PathCurveTo {
				pts = append(pts, coords.Point{X: pt.Control1X, Y: pt.Control1Y}, coords.Point{X: pt.Control2X, Y: pt.Control2Y})
			}
		}
	}
	return coords.RectFromPoints(pts...)
}

// TextState holds the text parameters that q/Q save and restore.
type TextState struct {
	Font       *semantic.Font
	Face       *fonts.Face
	FontSize   float64
	CharSpace  float64
	WordSpace  float64
	HScale     float64 // Tz / 100
	Leading    float64
	Rise       float64
	RenderMode TextRenderMode
}

// GraphicsState is the subset of the PDF graphics state a viewer paints with.
type GraphicsState struct {
	CTM         coords.Matrix
	LineWidth   float64
	LineCap     LineCap
	LineJoin    LineJoin
	FillColor   color.NRGBA
	StrokeColor color.NRGBA
	FillAlpha   float64
	StrokeAlpha float64
	fillSpace   semantic.ColorSpace
	strokeSpace semantic.ColorSpace
	// Clip is the page-space bounding box of the clipping path; HasClip is false for the full page.
	Clip    coords.Rect
	HasClip bool
	Text    TextState
}

func newGraphicsState(base coords.Matrix) GraphicsState {
	return GraphicsState{
		CTM:         base,
		LineWidth:   1,
		FillColor:   color.NRGBA{A: 255},
		StrokeColor: color.NRGBA{A: 255},
		FillAlpha:   1,
		StrokeAlpha: 1,
		fillSpace:   semantic.DeviceColorSpace{Name: "DeviceGray"},
		strokeSpace: semantic.DeviceColorSpace{Name: "DeviceGray"},
		Text:        TextState{HScale: 1},
	}
}

// PositionedGlyph is a glyph with its glyph-to-page matrix (font size included).
type PositionedGlyph struct {
	Glyph  fonts.Glyph
	Matrix coords.Matrix
}

// TextShow reports one text-showing operator (Tj, TJ, ' or ").
type TextShow struct {
	Operator string
	Glyphs   []PositionedGlyph
	Face     *fonts.Face
	// Origin is the page-space start point on the baseline, End the point after the last advance.
	Origin coords.Point
	End    coords.Point
	// Width is the page-space advance, Size the effective font size in page space.
	Width float64
	Size  float64
	GS    *GraphicsState
}

// Text concatenates the Unicode text of the shown glyphs.
func (t *TextShow) Text() string {
	var b []byte
	for _, g := range t.Glyphs {
		b = append(b, g.Glyph.Text...)
	}
	return string(b)
}

// Image is an image placed on the unit square mapped by Matrix into page space.
type Image struct {
	XObject *semantic.XObject
	Matrix  coords.Matrix
	Inline  bool
}

// Device receives painting callbacks from the interpreter. Callbacks must not retain gs.
type Device interface {
	FillPath(p *Path, rule FillRule, gs *GraphicsState)
	StrokePath(p *Path, gs *GraphicsState)
	ShowText(t *TextShow)
	DrawImage(img *Image, gs *GraphicsState)
}

// NopDevice ignores every callback; embed it to implement only some of Device.
type NopDevice struct{}

func (NopDevice) FillPath(*Path, FillRule, *GraphicsState) {}
func (NopDevice) StrokePath(*Path, *GraphicsState)         {}
func (NopDevice) ShowText(*TextShow)                       {}
func (NopDevice) DrawImage(*Image, *GraphicsState)         {}
