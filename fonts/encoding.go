package fonts

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/pdfview/ir/semantic"
)

// simpleEncoding maps single-byte codes to Unicode; 0 marks an unmapped code.
type simpleEncoding [256]rune

// baseEncoding resolves a predefined encoding name. Symbolic fonts without an
// explicit encoding use their built-in one, which is unknown here and left empty.
func baseEncoding(name string, symbolic bool) simpleEncoding {
	switch name {
	case "WinAnsiEncoding":
		return charmapEncoding(charmap.Windows1252)
	case "MacRomanEncoding", "MacExpertEncoding":
		return charmapEncoding(charmap.Macintosh)
	case "PDFDocEncoding":
		return pdfDocEncoding()
	case "StandardEncoding":
		return standardEncoding()
	}
	if symbolic {
		return simpleEncoding{}
	}
	return standardEncoding()
}

func charmapEncoding(cm *charmap.Charmap) simpleEncoding {
	var enc simpleEncoding
	for i := 0; i < 256; i++ {
		r := cm.DecodeByte(byte(i))
		if r == utf8.RuneError {
			continue
		}
		enc[i] = r
	}
	for i := 0; i < 32; i++ {
		enc[i] = 0
	}
	return enc
}

func pdfDocEncoding() simpleEncoding {
	enc := charmapEncoding(charmap.ISO8859_1)
	for code, r := range pdfDocHigh {
		enc[code] = r
	}
	return enc
}

func standardEncoding() simpleEncoding {
	var enc simpleEncoding
	for i := 32; i < 127; i++ {
		enc[i] = rune(i)
	}
	enc['\''] = '’'
	enc['`'] = '‘'
	for code, r := range standardHigh {
		enc[code] = r
	}
	return enc
}

// applyDifferences overlays an /Encoding /Differences array.
func (e *simpleEncoding) applyDifferences(diffs []semantic.EncodingDifference) {
	for _, d := range diffs {
		if d.Code < 0 || d.Code > 255 {
			continue
		}
		if s := GlyphText(d.Name); s != "" {
			e[d.Code] = []rune(s)[0]
		} else {
			e[d.Code] = 0
		}
	}
}

// standardHigh lists the upper half of Adobe StandardEncoding.
var standardHigh = map[int]rune{
	161: '¡', 162: '¢', 163: '£', 164: '⁄', 165: '¥', 166: 'ƒ', 167: '§', 168: '¤',
	169: '\'', 170: '“', 171: '«', 172: '‹', 173: '›', 174: 'ﬁ', 175: 'ﬂ',
	177: '–', 178: '†', 179: '‡', 180: '·', 182: '¶', 183: '•', 184: '‚', 185: '„',
	186: '”', 187: '»', 188: '…', 189: '‰', 191: '¿',
	193: '`', 194: '´', 195: 'ˆ', 196: '˜', 197: '¯', 198: '˘', 199: '˙', 200: '¨',
	202: '˚', 203: '¸', 205: '˝', 206: '˛', 207: 'ˇ', 208: '—',
	225: 'Æ', 227: 'ª', 232: 'Ł', 233: 'Ø', 234: 'Œ', 235: 'º',
	241: 'æ', 245: 'ı', 248: 'ł', 249: 'ø', 250: 'œ', 251: 'ß',
}

// pdfDocHigh lists where PDFDocEncoding departs from Latin-1.
var pdfDocHigh = map[int]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1a: 'ˆ', 0x1b: '˙', 0x1c: '˝', 0x1d: '˛', 0x1e: '˚', 0x1f: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…', 0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8a: '−', 0x8b: '‰', 0x8c: '„', 0x8d: '“', 0x8e: '”', 0x8f: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ', 0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9a: 'ı', 0x9b: 'ł', 0x9c: 'œ', 0x9d: 'š', 0x9e: 'ž', 0xa0: '€',
}
