package parser

import (
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// DecodeTextString decodes a PDF text string: UTF-16BE with BOM, UTF-8 with BOM, or PDFDocEncoding.
func DecodeTextString(b []byte) string {
	switch {
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return string(b[3:])
	}
	// PDFDocEncoding agrees with Windows-1252 for the printable range producers emit in practice.
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
