package fonts

import (
	"strconv"
	"strings"
)

// GlyphText returns the Unicode text for a PostScript glyph name: names from
// the glyph list, uniXXXX sequences, uXXXX[XX] and underscore ligatures.
func GlyphText(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return ""
	}
	if strings.Contains(name, "_") {
		var sb strings.Builder
		for _, part := range strings.Split(name, "_") {
			sb.WriteString(GlyphText(part))
		}
		return sb.String()
	}
	if r, ok := glyphList[name]; ok {
		return string(r)
	}
	if len(name) == 1 && (name[0] >= 'A' && name[0] <= 'Z' || name[0] >= 'a' && name[0] <= 'z') {
		return name
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 && (len(name)-3)%4 == 0 {
		var sb strings.Builder
		for i := 3; i < len(name); i += 4 {
			v, err := strconv.ParseUint(name[i:i+4], 16, 16)
			if err != nil {
				return ""
			}
			sb.WriteRune(rune(v))
		}
		return sb.String()
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10ffff {
			return string(rune(v))
		}
	}
	return ""
}

var glyphList = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#', "dollar": '$', "percent": '%',
	"ampersand": '&', "quotesingle": '\'', "quoteright": '’', "parenleft": '(', "parenright": ')',
	"asterisk": '*', "plus": '+', "comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4', "five": '5', "six": '6',
	"seven": '7', "eight": '8', "nine": '9', "colon": ':', "semicolon": ';', "less": '<',
	"equal": '=', "greater": '>', "question": '?', "at": '@', "bracketleft": '[', "backslash": '\\',
	"bracketright": ']', "asciicircum": '^', "underscore": '_', "grave": '`', "quoteleft": '‘',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',

	"nbspace": '\u00a0', "exclamdown": '¡', "cent": '¢', "sterling": '£', "currency": '¤', "yen": '¥',
	"brokenbar": '¦', "section": '§', "dieresis": '¨', "copyright": '©', "ordfeminine": 'ª',
	"guillemotleft": '«', "logicalnot": '¬', "sfthyphen": '\u00ad', "registered": '®', "macron": '¯',
	"degree": '°', "plusminus": '±', "twosuperior": '²', "threesuperior": '³', "acute": '´', "mu": 'µ',
	"paragraph": '¶', "periodcentered": '·', "cedilla": '¸', "onesuperior": '¹', "ordmasculine": 'º',
	"guillemotright": '»', "onequarter": '¼', "onehalf": '½', "threequarters": '¾', "questiondown": '¿',
	"Agrave": 'À', "Aacute": 'Á', "Acircumflex": 'Â', "Atilde": 'Ã', "Adieresis": 'Ä', "Aring": 'Å',
	"AE": 'Æ', "Ccedilla": 'Ç', "Egrave": 'È', "Eacute": 'É', "Ecircumflex": 'Ê', "Edieresis": 'Ë',
	"Igrave": 'Ì', "Iacute": 'Í', "Icircumflex": 'Î', "Idieresis": 'Ï', "Eth": 'Ð', "Ntilde": 'Ñ',
	"Ograve": 'Ò', "Oacute": 'Ó', "Ocircumflex": 'Ô', "Otilde": 'Õ', "Odieresis": 'Ö', "multiply": '×',
	"Oslash": 'Ø', "Ugrave": 'Ù', "Uacute": 'Ú', "Ucircumflex": 'Û', "Udieresis": 'Ü', "Yacute": 'Ý',
	"Thorn": 'Þ', "germandbls": 'ß', "agrave": 'à', "aacute": 'á', "acircumflex": 'â', "atilde": 'ã',
	"adieresis": 'ä', "aring": 'å', "ae": 'æ', "ccedilla": 'ç', "egrave": 'è', "eacute": 'é',
	"ecircumflex": 'ê', "edieresis": 'ë', "igrave": 'ì', "iacute": 'í', "icircumflex": 'î',
	"idieresis": 'ï', "eth": 'ð', "ntilde": 'ñ', "ograve": 'ò', "oacute": 'ó', "ocircumflex": 'ô',
	"otilde": 'õ', "odieresis": 'ö', "divide": '÷', "oslash": 'ø', "ugrave": 'ù', "uacute": 'ú',
	"ucircumflex": 'û', "udieresis": 'ü', "yacute": 'ý', "thorn": 'þ', "ydieresis": 'ÿ',

	"dotlessi": 'ı', "Lslash": 'Ł', "lslash": 'ł', "OE": 'Œ', "oe": 'œ', "Scaron": 'Š', "scaron": 'š',
	"Ydieresis": 'Ÿ', "Zcaron": 'Ž', "zcaron": 'ž', "florin": 'ƒ', "circumflex": 'ˆ', "caron": 'ˇ',
	"breve": '˘', "dotaccent": '˙', "ring": '˚', "ogonek": '˛', "tilde": '˜', "hungarumlaut": '˝',
	"endash": '–', "emdash": '—', "quotesinglbase": '‚', "quotedblleft": '“', "quotedblright": '”',
	"quotedblbase": '„', "dagger": '†', "daggerdbl": '‡', "bullet": '•', "ellipsis": '…',
	"perthousand": '‰', "guilsinglleft": '‹', "guilsinglright": '›', "fraction": '⁄', "Euro": '€',
	"trademark": '™', "minus": '−', "fi": 'ﬁ', "fl": 'ﬂ', "ff": 'ﬀ', "ffi": 'ﬃ', "ffl": 'ﬄ',
	"Alpha": 'Α', "Beta": 'Β', "Gamma": 'Γ', "Delta": 'Δ', "Omega": 'Ω', "Pi": 'Π', "Sigma": 'Σ',
	"alpha": 'α', "beta": 'β', "gamma": 'γ', "delta": 'δ', "epsilon": 'ε', "lambda": 'λ', "pi": 'π',
	"sigma": 'σ', "theta": 'θ', "omega": 'ω', "infinity": '∞', "partialdiff": '∂', "summation": '∑',
	"product": '∏', "radical": '√', "integral": '∫', "approxequal": '≈', "notequal": '≠',
	"lessequal": '≤', "greaterequal": '≥', "lozenge": '◊', "arrowright": '→', "arrowleft": '←',
	"arrowup": '↑', "arrowdown": '↓', "checkmark": '✓',
}
