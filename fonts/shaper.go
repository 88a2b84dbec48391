package fonts

import (
	"bytes"
	"fmt"
	"sync"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// ShapedGlyph is one positioned glyph; advances and offsets are in em units.
type ShapedGlyph struct {
	ID       int
	Cluster  int
	XAdvance float64
	YAdvance float64
	XOffset  float64
	YOffset  float64
}

// Shaper lays out annotation text with HarfBuzz over the Go regular face, the
// same face whose outlines Outline returns, so glyph IDs line up.
type Shaper struct {
	mu     sync.Mutex
	face   *gofont.Face
	shaper shaping.HarfbuzzShaper
	cache  map[int][]Segment
}

func NewShaper() (*Shaper, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("parse overlay face: %w", err)
	}
	return &Shaper{face: face, cache: make(map[int][]Segment)}, nil
}

// shapeSize asks for 1000 units per em.
const shapeSize = fixed.Int26_6(1000 * 64)

// Shape shapes text as a single run.
func (s *Shaper) Shape(text string) []ShapedGlyph {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	script := DetectScript(runes)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      s.face,
		Size:      shapeSize,
		Script:    script,
		Language:  language.DefaultLanguage(),
	}

	s.mu.Lock()
	output := s.shaper.Shape(input)
	s.mu.Unlock()

	result := make([]ShapedGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		result = append(result, ShapedGlyph{
			ID:       int(g.GlyphID),
			Cluster:  g.ClusterIndex,
			XAdvance: emUnits(g.XAdvance),
			YAdvance: emUnits(g.YAdvance),
			XOffset:  emUnits(g.XOffset),
			YOffset:  emUnits(g.YOffset),
		})
	}
	return result
}

// Advance is the width of text in em units.
func (s *Shaper) Advance(text string) float64 {
	var w float64
	for _, g := range s.Shape(text) {
		w += g.XAdvance
	}
	return w
}

// Outline returns the outline of a shaped glyph in em units, Y up.
func (s *Shaper) Outline(id int) []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if segs, ok := s.cache[id]; ok {
		return segs
	}
	f := &Face{fallback: fallbackFont(styleRegular)}
	segs := f.load(f.fallback, sfntGlyph(id))
	s.cache[id] = segs
	return segs
}

func emUnits(v fixed.Int26_6) float64 { return float64(v) / 64 / 1000 }

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// DetectScript returns the most frequent script in runes, Latin when none is recognized.
func DetectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	bestScript := language.Latin

	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			bestScript = script
		}
	}
	return bestScript
}

var scriptTables = []struct {
	table  *unicode.RangeTable
	script language.Script
}{
	{unicode.Arabic, language.Arabic},
	{unicode.Hebrew, language.Hebrew},
	{unicode.Latin, language.Latin},
	{unicode.Cyrillic, language.Cyrillic},
	{unicode.Greek, language.Greek},
	{unicode.Thai, language.Thai},
	{unicode.Devanagari, language.Devanagari},
	{unicode.Han, language.Han},
	{unicode.Hiragana, language.Hiragana},
	{unicode.Katakana, language.Katakana},
	{unicode.Hangul, language.Hangul},
}

func scriptFromRune(r rune) language.Script {
	for _, st := range scriptTables {
		if unicode.Is(st.table, r) {
			return st.script
		}
	}
	return language.Unknown
}
