package edit

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is an opaque sRGB color written as "#rrggbb".
type Color struct {
	R, G, B uint8
}

var (
	Black  = Color{}
	Red    = Color{R: 0xff}
	Yellow = Color{R: 0xff, G: 0xff}
)

// ParseColor accepts "#rrggbb" and "#rgb", case-insensitive.
func ParseColor(s string) (Color, error) {
	h, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return Color{}, fmt.Errorf("color %q: missing #", s)
	}
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("color %q: want 3 or 6 hex digits", s)
	}
	var v [3]uint8
	for i := range v {
		hi, ok1 := hexDigit(h[2*i])
		lo, ok2 := hexDigit(h[2*i+1])
		if !ok1 || !ok2 {
			return Color{}, fmt.Errorf("color %q: invalid hex digit", s)
		}
		v[i] = hi<<4 | lo
	}
	return Color{R: v[0], G: v[1], B: v[2]}, nil
}

// MustParseColor is ParseColor for literals.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// NRGBA returns c with alpha a in [0, 1].
func (c Color) NRGBA(a float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(min(max(a, 0), 1)*255 + 0.5)}
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
