package fonts

import (
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

type fallbackStyle int

const (
	styleRegular fallbackStyle = iota
	styleBold
	styleItalic
	styleBoldItalic
	styleMono
	styleMonoBold
	styleMonoItalic
	styleMonoBoldItalic
)

var fallbackTTF = [...][]byte{
	styleRegular:        goregular.TTF,
	styleBold:           gobold.TTF,
	styleItalic:         goitalic.TTF,
	styleBoldItalic:     gobolditalic.TTF,
	styleMono:           gomono.TTF,
	styleMonoBold:       gomonobold.TTF,
	styleMonoItalic:     gomonoitalic.TTF,
	styleMonoBoldItalic: gomonobolditalic.TTF,
}

var (
	fallbackOnce  [len(fallbackTTF)]sync.Once
	fallbackFonts [len(fallbackTTF)]*sfnt.Font
)

// fallbackFont returns the Go font standing in for a non-embedded font. The
// bundled TTFs always parse, so the result is never nil.
func fallbackFont(style fallbackStyle) *sfnt.Font {
	fallbackOnce[style].Do(func() {
		f, err := sfnt.Parse(fallbackTTF[style])
		if err != nil {
			panic("fonts: bundled Go font does not parse: " + err.Error())
		}
		fallbackFonts[style] = f
	})
	return fallbackFonts[style]
}

// styleFor picks a fallback style from a PostScript font name and descriptor flags.
func styleFor(name string, flags int) fallbackStyle {
	lower := strings.ToLower(name)
	mono := flags&1 != 0 || strings.Contains(lower, "courier") || strings.Contains(lower, "mono")
	bold := strings.Contains(lower, "bold") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy") || flags&(1<<18) != 0
	italic := strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") || flags&(1<<6) != 0
	style := styleRegular
	switch {
	case bold && italic:
		style = styleBoldItalic
	case bold:
		style = styleBold
	case italic:
		style = styleItalic
	}
	if mono {
		style += styleMono
	}
	return style
}

// stripSubset removes the "ABCDEF+" subset tag from a font name.
func stripSubset(name string) string {
	if len(name) > 7 && name[6] == '+' {
		for _, c := range name[:6] {
			if c < 'A' || c > 'Z' {
				return name
			}
		}
		return name[7:]
	}
	return name
}
