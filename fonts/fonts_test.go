package fonts

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfview/ir/semantic"
)

const toUnicode = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0003> <0020>
<0011> <D835DC00>
endbfchar
2 beginbfrange
<0024> <0026> <0041>
<0030> <0031> [<0066006C> <2019>]
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

func TestParseCMapToUnicode(t *testing.T) {
	cm, err := ParseCMap([]byte(toUnicode))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cases := []struct {
		code uint32
		want string
	}{
		{0x03, " "},
		{0x11, "𝐀"},
		{0x24, "A"},
		{0x26, "C"},
		{0x30, "fl"},
		{0x31, "’"},
	}
	for _, c := range cases {
		got, ok := cm.Unicode(c.code, 2)
		if !ok || got != c.want {
			t.Errorf("code %04x: got %q (%v), want %q", c.code, got, ok, c.want)
		}
	}
	if _, ok := cm.Unicode(0x27, 2); ok {
		t.Errorf("0x27 is outside every range")
	}
	code, n := cm.NextCode([]byte{0x00, 0x24, 0x00})
	if code != 0x24 || n != 2 {
		t.Fatalf("next code: %x/%d", code, n)
	}
}

func TestParseCMapCIDRanges(t *testing.T) {
	src := `begincmap
2 begincodespacerange
<00> <80>
<8140> <FFFF>
endcodespacerange
1 begincidrange
<8140> <817E> 633
endcidrange
1 begincidchar
<41> 34
endcidchar
endcmap`
	cm, err := ParseCMap([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, n := cm.NextCode([]byte{0x41, 0x81, 0x42})
	if code != 0x41 || n != 1 {
		t.Fatalf("single byte code: %x/%d", code, n)
	}
	if cid, ok := cm.CID(code, n); !ok || cid != 34 {
		t.Fatalf("cid for 0x41: %d %v", cid, ok)
	}
	code, n = cm.NextCode([]byte{0x81, 0x42})
	if code != 0x8142 || n != 2 {
		t.Fatalf("double byte code: %x/%d", code, n)
	}
	if cid, _ := cm.CID(code, n); cid != 635 {
		t.Fatalf("cid for 0x8142: %d", cid)
	}
}

func TestGlyphText(t *testing.T) {
	cases := map[string]string{
		"A":           "A",
		"eacute":      "é",
		"uni0041":     "A",
		"uni00410042": "AB",
		"u1F600":      "😀",
		"f_i":         "fi",
		"a.sc":        "a",
		"g123":        "",
		"quoteright":  "’",
	}
	for name, want := range cases {
		if got := GlyphText(name); got != want {
			t.Errorf("GlyphText(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSimpleFaceDecode(t *testing.T) {
	f := NewFace(&semantic.Font{
		Subtype:   "Type1",
		BaseFont:  "ABCDEF+Helvetica",
		Encoding:  "WinAnsiEncoding",
		FirstChar: 72,
		Widths:    map[int]float64{72: 722, 105: 222},
		EncodingDict: &semantic.EncodingDict{
			Differences: []semantic.EncodingDifference{{Code: 150, Name: "endash"}},
		},
	}, nil)
	if f.Name != "Helvetica" {
		t.Fatalf("subset prefix not stripped: %q", f.Name)
	}
	glyphs := f.Decode([]byte("Hi \x80\x96"))
	var text []string
	for _, g := range glyphs {
		text = append(text, g.Text)
	}
	if diff := cmp.Diff([]string{"H", "i", " ", "€", "–"}, text); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
	if glyphs[0].Width != 0.722 || glyphs[1].Width != 0.222 {
		t.Fatalf("widths: %v %v", glyphs[0].Width, glyphs[1].Width)
	}
	if !glyphs[2].IsSpace() || glyphs[2].Width <= 0 {
		t.Fatalf("space glyph: %+v", glyphs[2])
	}
	if len(f.Outline(glyphs[0])) == 0 {
		t.Fatalf("fallback outline for H is empty")
	}
	if f.Ascent() <= 0 || f.Descent() >= 0 {
		t.Fatalf("metrics: ascent %v descent %v", f.Ascent(), f.Descent())
	}
}

func TestCompositeFaceDecode(t *testing.T) {
	f := NewFace(&semantic.Font{
		Subtype:       "Type0",
		BaseFont:      "Foo",
		Encoding:      "Identity-H",
		ToUnicodeCMap: []byte(toUnicode),
		DescendantFont: &semantic.CIDFont{
			Subtype: "CIDFontType2",
			DW:      1000,
			W:       map[int]float64{0x24: 600},
		},
	}, nil)
	glyphs := f.Decode([]byte{0x00, 0x24, 0x00, 0x03, 0x00, 0x25})
	if len(glyphs) != 3 {
		t.Fatalf("glyphs: %d", len(glyphs))
	}
	if glyphs[0].Text != "A" || glyphs[0].Width != 0.6 || glyphs[0].CID != 0x24 {
		t.Fatalf("first glyph: %+v", glyphs[0])
	}
	if glyphs[1].IsSpace() {
		t.Fatalf("two-byte code 3 must not take word spacing")
	}
	if glyphs[2].Width != 1 {
		t.Fatalf("default width: %v", glyphs[2].Width)
	}
}

func TestStyleFor(t *testing.T) {
	cases := map[string]fallbackStyle{
		"Helvetica":             styleRegular,
		"Helvetica-BoldOblique": styleBoldItalic,
		"Times-Italic":          styleItalic,
		"Courier-Bold":          styleMonoBold,
		"Courier":               styleMono,
	}
	for name, want := range cases {
		if got := styleFor(name, 0); got != want {
			t.Errorf("styleFor(%q) = %d, want %d", name, got, want)
		}
	}
}
