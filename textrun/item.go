// Package textrun extracts positioned text runs from pages and keeps them in an
// id-indexed store so runs can be edited in place and reverted.
package textrun

import "github.com/wudi/pdfview/coords"

// Source tells where a run came from.
type Source uint8

const (
	SourceContent Source = iota // a text-showing operator
	SourceOCR
)

// TextItem is one extracted run in PDF space. Origin is the baseline start;
// the run covers x in [OriginX, OriginX+Width] and y in [OriginY, OriginY+Height].
type TextItem struct {
	ID           string  `json:"id"`
	Page         int     `json:"pageNumber"`
	Text         string  `json:"text"`
	OriginalText string  `json:"originalText"`
	OriginX      float64 `json:"originX"`
	OriginY      float64 `json:"originY"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	FontSize     float64 `json:"fontSize"`
	FontName     string  `json:"fontName,omitempty"`
	Source       Source  `json:"source"`
}

// Box is the hit-test rectangle in PDF space.
func (t TextItem) Box() coords.Rect {
	return coords.Rect{MinX: t.OriginX, MinY: t.OriginY, MaxX: t.OriginX + t.Width, MaxY: t.OriginY + t.Height}
}

// Center is the middle of Box.
func (t TextItem) Center() (float64, float64) {
	return t.OriginX + t.Width/2, t.OriginY + t.Height/2
}

// Edited reports whether Text differs from the extracted baseline.
func (t TextItem) Edited() bool { return t.Text != t.OriginalText }
