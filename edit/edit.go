// Package edit defines the annotations a user adds on top of a page: inserted
// text, freehand drawings and highlights. Coordinates are PDF user space.
package edit

import (
	"time"

	"github.com/google/uuid"

	"github.com/wudi/pdfview/coords"
)

type Kind string

const (
	KindText      Kind = "text"
	KindDrawing   Kind = "drawing"
	KindHighlight Kind = "highlight"
)

// Highlights have a fixed size anchored at their top-left point.
const (
	HighlightWidth   = 100.0
	HighlightHeight  = 20.0
	HighlightOpacity = 0.3
)

// DefaultFontSize is used for inserted text that does not replace a text item.
const DefaultFontSize = 12.0

// Meta holds the fields every edit carries.
type Meta struct {
	ID        string    `json:"id"`
	Page      int       `json:"pageNumber"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMeta stamps a fresh edit for page.
func NewMeta(page int) Meta {
	return Meta{ID: uuid.NewString(), Page: page, Timestamp: time.Now().UTC()}
}

// Edit is the closed set *Text, *Drawing and *Highlight.
type Edit interface {
	Kind() Kind
	Base() Meta
	sealed()
}

// Text is inserted text with its baseline origin at (X, Y). ItemID is set when
// the edit rewrites an extracted text item in place.
type Text struct {
	Meta
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Content  string  `json:"content"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    Color   `json:"color"`
	ItemID   string  `json:"itemId,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Drawing is a freehand stroke. StrokeWidth is in PDF units so it scales with zoom.
type Drawing struct {
	Meta
	Color       Color   `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
	Points      []Point `json:"points"`
}

// Highlight is a translucent rectangle whose top-left corner is (X, Y).
type Highlight struct {
	Meta
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color Color   `json:"color"`
}

func (*Text) Kind() Kind      { return KindText }
func (*Drawing) Kind() Kind   { return KindDrawing }
func (*Highlight) Kind() Kind { return KindHighlight }

func (e *Text) Base() Meta      { return e.Meta }
func (e *Drawing) Base() Meta   { return e.Meta }
func (e *Highlight) Base() Meta { return e.Meta }

func (*Text) sealed()      {}
func (*Drawing) sealed()   {}
func (*Highlight) sealed() {}

// Size returns the font size, DefaultFontSize when unset.
func (e *Text) Size() float64 {
	if e.FontSize > 0 {
		return e.FontSize
	}
	return DefaultFontSize
}

// Rect is the highlight area in PDF space; the rectangle extends right and down from (X, Y).
func (e *Highlight) Rect() coords.Rect {
	return coords.Rect{MinX: e.X, MinY: e.Y - HighlightHeight, MaxX: e.X + HighlightWidth, MaxY: e.Y}
}

// Bounds covers every recorded point.
func (e *Drawing) Bounds() coords.Rect {
	pts := make([]coords.Point, len(e.Points))
	for i, p := range e.Points {
		pts[i] = coords.Point{X: p.X, Y: p.Y}
	}
	return coords.RectFromPoints(pts...)
}

// OnPage filters edits to one page, keeping order.
func OnPage(edits []Edit, page int) []Edit {
	var out []Edit
	for _, e := range edits {
		if e.Base().Page == page {
			out = append(out, e)
		}
	}
	return out
}
