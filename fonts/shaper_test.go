package fonts_test

import (
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/wudi/pdfview/fonts"
)

func TestDetectScript(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect language.Script
	}{
		{"Latin", "Hello World", language.Latin},
		{"Arabic", "مرحبا بالعالم", language.Arabic},
		{"Hebrew", "שלום עולם", language.Hebrew},
		{"Cyrillic", "Привет мир", language.Cyrillic},
		{"Greek", "Γειά σου Κόσμε", language.Greek},
		// ties keep the script seen first
		{"Mixed Latin dominant", "Hello World مرحبا", language.Latin},
		{"Mixed Arabic dominant", "مرحبا بالعالم Hello", language.Arabic},
		{"CJK (Han)", "你好世界", language.Han},
		{"Hiragana", "こんにちは", language.Hiragana},
		{"Hangul", "안녕하세요", language.Hangul},
		{"Digits only", "12345", language.Latin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := fonts.DetectScript([]rune(tc.input))
			if got != tc.expect {
				t.Errorf("Expected %v, got %v", tc.expect, got)
			}
		})
	}
}

func TestShaperAdvance(t *testing.T) {
	s, err := fonts.NewShaper()
	if err != nil {
		t.Fatalf("new shaper: %v", err)
	}
	one := s.Advance("M")
	two := s.Advance("MM")
	if one <= 0 || one > 1.5 {
		t.Fatalf("advance of M out of range: %v", one)
	}
	if d := two - 2*one; d > 1e-6 || d < -1e-6 {
		t.Fatalf("advance not additive: %v vs %v", two, 2*one)
	}
	glyphs := s.Shape("Hi")
	if len(glyphs) != 2 {
		t.Fatalf("glyphs: %d", len(glyphs))
	}
	if len(s.Outline(glyphs[0].ID)) == 0 {
		t.Fatalf("expected outline for H")
	}
	if s.Advance("") != 0 {
		t.Fatalf("empty text should have no advance")
	}
}
