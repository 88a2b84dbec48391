// Package fonts turns PDF font resources into faces: code decoding, Unicode
// mapping, advance widths and glyph outlines (embedded or a Go font fallback).
package fonts

import (
	"strings"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/ir/semantic"
	"github.com/wudi/pdfview/observability"
)

// Glyph is one decoded character code.
type Glyph struct {
	Code uint32
	Len  int // bytes consumed from the string
	CID  uint32
	Text string
	// Width is the horizontal advance in text space for a font size of 1.
	Width float64
}

// IsSpace reports whether word spacing applies (single-byte code 32).
func (g Glyph) IsSpace() bool { return g.Len == 1 && g.Code == 32 }

type SegmentOp uint8

const (
	MoveTo SegmentOp = iota
	LineTo
	QuadTo
	CubeTo
)

// Segment is an outline segment in text space for a font size of 1, Y up.
// Pts holds 1 (move/line), 2 (quad) or 3 (cube) points; the last is the end point.
type Segment struct {
	Op  SegmentOp
	Pts [3]coords.Point
}

// outlinePPEM is the scale outlines are loaded at; coordinates are divided back down.
const outlinePPEM = 1000

// Face decodes strings shown with one PDF font. Methods are safe for concurrent use.
type Face struct {
	Name      string
	Embedded  bool
	composite bool
	symbolic  bool
	trueType  bool
	type3     bool

	toUnicode *CMap
	encoding  *CMap
	simple    simpleEncoding

	widths     map[int]float64
	missing    float64
	cidWidths  map[int]float64
	dw         float64
	cidToGID   []byte
	fontMatrix float64

	ascent, descent float64

	mu       sync.Mutex
	buf      sfnt.Buffer
	program  *sfnt.Font
	fallback *sfnt.Font
	outlines map[uint32][]Segment
}

// NewFace builds a face for f. A nil font yields a Helvetica-like default face.
func NewFace(f *semantic.Font, logger observability.Logger) *Face {
	logger = observability.OrNop(logger)
	if f == nil {
		f = &semantic.Font{Subtype: "Type1", BaseFont: "Helvetica"}
	}
	face := &Face{
		Name:       stripSubset(f.BaseFont),
		composite:  f.Subtype == "Type0",
		trueType:   f.Subtype == "TrueType",
		type3:      f.Subtype == "Type3",
		widths:     f.Widths,
		fontMatrix: 0.001,
		outlines:   make(map[uint32][]Segment),
	}
	desc := f.Descriptor
	if face.composite && f.DescendantFont != nil {
		cf := f.DescendantFont
		face.cidWidths = cf.W
		face.dw = cf.DW
		face.cidToGID = cf.CIDToGIDMap
		if cf.Descriptor != nil {
			desc = cf.Descriptor
		}
		if face.Name == "" {
			face.Name = stripSubset(cf.BaseFont)
		}
	}
	if face.composite && face.dw == 0 {
		face.dw = 1000
	}
	flags := 0
	if desc != nil {
		flags = desc.Flags
		face.symbolic = desc.Symbolic()
		face.missing = desc.MissingWidth
		face.ascent = desc.Ascent / 1000
		face.descent = desc.Descent / 1000
	} else {
		lower := strings.ToLower(face.Name)
		face.symbolic = strings.Contains(lower, "symbol") || strings.Contains(lower, "dingbats")
	}
	if face.type3 && len(f.FontMatrix) == 6 && f.FontMatrix[0] != 0 {
		face.fontMatrix = f.FontMatrix[0]
	}

	if len(f.ToUnicodeCMap) > 0 {
		cm, err := ParseCMap(f.ToUnicodeCMap)
		if err != nil {
			logger.Warn("ToUnicode CMap partially parsed",
				observability.String("font", face.Name), observability.Error("error", err))
		}
		face.toUnicode = cm
	}

	if face.composite {
		switch {
		case len(f.EncodingCMap) > 0:
			cm, err := ParseCMap(f.EncodingCMap)
			if err != nil {
				logger.Warn("encoding CMap partially parsed",
					observability.String("font", face.Name), observability.Error("error", err))
			}
			face.encoding = cm
		default:
			if !strings.HasPrefix(f.Encoding, "Identity") && f.Encoding != "" {
				logger.Debug("predefined CMap treated as Identity",
					observability.String("font", face.Name), observability.String("cmap", f.Encoding))
			}
			face.encoding = IdentityCMap()
		}
	} else {
		base := f.Encoding
		if f.EncodingDict != nil && f.EncodingDict.BaseEncoding != "" {
			base = f.EncodingDict.BaseEncoding
		}
		face.simple = baseEncoding(base, face.symbolic && base == "")
		if f.EncodingDict != nil {
			face.simple.applyDifferences(f.EncodingDict.Differences)
		}
	}

	if desc != nil && len(desc.FontFile) > 0 {
		switch {
		case desc.FontFileType == "FontFile2",
			desc.FontFileType == "FontFile3" && desc.FontFileSubtype == "OpenType":
			prog, err := sfnt.Parse(desc.FontFile)
			if err != nil {
				logger.Warn("embedded font program unreadable, using fallback",
					observability.String("font", face.Name), observability.Error("error", err))
				break
			}
			face.program = prog
			face.Embedded = true
		default:
			logger.Debug("embedded font format drawn with fallback outlines",
				observability.String("font", face.Name),
				observability.String("format", desc.FontFileType+"/"+desc.FontFileSubtype))
		}
	}
	face.fallback = fallbackFont(styleFor(face.Name, flags))

	if face.ascent == 0 && face.descent == 0 {
		m, err := face.fallback.Metrics(&face.buf, fixed.I(outlinePPEM), xfont.HintingNone)
		if err == nil {
			face.ascent = fixedToFloat(m.Ascent) / outlinePPEM
			face.descent = -fixedToFloat(m.Descent) / outlinePPEM
		} else {
			face.ascent, face.descent = 0.75, -0.25
		}
	}
	return face
}

// Ascent is the distance above the baseline for a font size of 1.
func (f *Face) Ascent() float64 { return f.ascent }

// Descent is the (negative) distance below the baseline for a font size of 1.
func (f *Face) Descent() float64 { return f.descent }

// Decode splits a shown string into glyphs.
func (f *Face) Decode(s []byte) []Glyph {
	out := make([]Glyph, 0, len(s))
	for len(s) > 0 {
		var g Glyph
		if f.composite {
			g.Code, g.Len = f.encoding.NextCode(s)
			if cid, ok := f.encoding.CID(g.Code, g.Len); ok {
				g.CID = cid
			} else {
				g.CID = g.Code
			}
		} else {
			g.Code, g.Len = uint32(s[0]), 1
		}
		if g.Len <= 0 {
			break
		}
		g.Text = f.text(g)
		g.Width = f.width(g)
		out = append(out, g)
		s = s[g.Len:]
	}
	return out
}

func (f *Face) text(g Glyph) string {
	if f.toUnicode != nil {
		if s, ok := f.toUnicode.Unicode(g.Code, g.Len); ok {
			return s
		}
	}
	if f.composite {
		return ""
	}
	if r := f.simple[g.Code&0xff]; r != 0 {
		return string(r)
	}
	if g.Code >= 32 && g.Code < 127 {
		return string(rune(g.Code))
	}
	return ""
}

func (f *Face) width(g Glyph) float64 {
	if f.composite {
		if w, ok := f.cidWidths[int(g.CID)]; ok {
			return w / 1000
		}
		return f.dw / 1000
	}
	if w, ok := f.widths[int(g.Code)]; ok {
		if f.type3 {
			return w * f.fontMatrix
		}
		return w / 1000
	}
	if f.missing > 0 {
		return f.missing / 1000
	}
	return f.fallbackAdvance(g.Text)
}

// fallbackAdvance measures text with the fallback font (standard 14 fonts carry no widths).
func (f *Face) fallbackAdvance(text string) float64 {
	if text == "" {
		return 0.5
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := []rune(text)[0]
	gid, err := f.fallback.GlyphIndex(&f.buf, r)
	if err != nil || gid == 0 {
		return 0.5
	}
	adv, err := f.fallback.GlyphAdvance(&f.buf, gid, fixed.I(outlinePPEM), xfont.HintingNone)
	if err != nil {
		return 0.5
	}
	return fixedToFloat(adv) / outlinePPEM
}

// Outline returns the glyph outline in text space for a font size of 1.
// Glyphs the face cannot draw return nil.
func (f *Face) Outline(g Glyph) []Segment {
	key := g.Code
	if f.composite {
		key = g.CID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if segs, ok := f.outlines[key]; ok {
		return segs
	}
	var segs []Segment
	if f.program != nil {
		if gid := f.programGlyph(g); gid != 0 {
			segs = f.load(f.program, gid)
		}
	}
	if segs == nil && g.Text != "" {
		r := []rune(g.Text)[0]
		if gid, err := f.fallback.GlyphIndex(&f.buf, r); err == nil && gid != 0 {
			segs = f.load(f.fallback, gid)
		}
	}
	f.outlines[key] = segs
	return segs
}

func (f *Face) programGlyph(g Glyph) sfnt.GlyphIndex {
	n := f.program.NumGlyphs()
	if f.composite {
		gid := g.CID
		if len(f.cidToGID) > 0 {
			i := int(g.CID) * 2
			if i+1 >= len(f.cidToGID) {
				return 0
			}
			gid = uint32(f.cidToGID[i])<<8 | uint32(f.cidToGID[i+1])
		}
		if int(gid) >= n {
			return 0
		}
		return sfnt.GlyphIndex(gid)
	}
	if f.symbolic {
		for _, r := range []rune{0xf000 + rune(g.Code), rune(g.Code)} {
			if gid, err := f.program.GlyphIndex(&f.buf, r); err == nil && gid != 0 {
				return gid
			}
		}
	}
	if r := f.simple[g.Code&0xff]; r != 0 {
		if gid, err := f.program.GlyphIndex(&f.buf, r); err == nil && gid != 0 {
			return gid
		}
	}
	if f.trueType && int(g.Code) < n && f.symbolic {
		return sfnt.GlyphIndex(g.Code)
	}
	return 0
}

// load converts sfnt's Y-down pixel segments into Y-up em units.
func (f *Face) load(font *sfnt.Font, gid sfnt.GlyphIndex) []Segment {
	raw, err := font.LoadGlyph(&f.buf, gid, fixed.I(outlinePPEM), nil)
	if err != nil {
		return nil
	}
	segs := make([]Segment, 0, len(raw))
	for _, s := range raw {
		var seg Segment
		count := 1
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			seg.Op = MoveTo
		case sfnt.SegmentOpLineTo:
			seg.Op = LineTo
		case sfnt.SegmentOpQuadTo:
			seg.Op, count = QuadTo, 2
		case sfnt.SegmentOpCubeTo:
			seg.Op, count = CubeTo, 3
		}
		for i := 0; i < count; i++ {
			seg.Pts[i] = coords.Point{
				X: fixedToFloat(s.Args[i].X) / outlinePPEM,
				Y: -fixedToFloat(s.Args[i].Y) / outlinePPEM,
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func sfntGlyph(id int) sfnt.GlyphIndex { return sfnt.GlyphIndex(id) }
