package edit

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfview/coords"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ffff00", Yellow},
		{"#FF0000", Red},
		{"#abc", Color{R: 0xaa, G: 0xbb, B: 0xcc}},
		{" #000000 ", Black},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"ffff00", "#ff", "#gg0000", ""} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) accepted", bad)
		}
	}
	if s := MustParseColor("#FfFf00").String(); s != "#ffff00" {
		t.Fatalf("String() = %q", s)
	}
	if a := Yellow.NRGBA(HighlightOpacity).A; a < 76 || a > 77 {
		t.Fatalf("30%% alpha = %d", a)
	}
}

func TestHighlightRect(t *testing.T) {
	h := &Highlight{X: 10, Y: 10}
	want := coords.Rect{MinX: 10, MinY: -10, MaxX: 110, MaxY: 10}
	if got := h.Rect(); got != want {
		t.Fatalf("Rect() = %v, want %v", got, want)
	}
}

func TestNewMetaIsUnique(t *testing.T) {
	a, b := NewMeta(1), NewMeta(1)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids %q %q", a.ID, b.ID)
	}
	if a.Page != 1 || a.Timestamp.IsZero() {
		t.Fatalf("meta = %+v", a)
	}
}

func TestCodecKeepsVariants(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	edits := []Edit{
		&Text{Meta: Meta{ID: "t", Page: 1, Timestamp: ts}, X: 72, Y: 720, Content: "Hi", ItemID: "1-0", FontSize: 12},
		&Drawing{Meta: Meta{ID: "d", Page: 2, Timestamp: ts}, Color: Red, StrokeWidth: 2, Points: []Point{{1, 2}, {3, 4}}},
		&Highlight{Meta: Meta{ID: "h", Page: 1, Timestamp: ts}, X: 10, Y: 10, Color: Yellow},
	}
	data, err := Marshal(edits)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, frag := range []string{`"type":"text"`, `"type":"drawing"`, `"type":"highlight"`, `"color":"#ffff00"`, `"pageNumber":2`} {
		if !strings.Contains(string(data), frag) {
			t.Fatalf("encoding lacks %s: %s", frag, data)
		}
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(edits, got); diff != "" {
		t.Fatalf("decoded edits differ (-want +got):\n%s", diff)
	}
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	if _, err := Unmarshal([]byte(`[{"type":"stamp","id":"x"}]`)); err == nil {
		t.Fatalf("unknown type accepted")
	}
	if _, err := Unmarshal([]byte(`[{"type":"highlight","color":"yellow"}]`)); err == nil {
		t.Fatalf("bad color accepted")
	}
	if data, _ := Marshal(nil); string(data) != "[]" {
		t.Fatalf("nil edits = %s", data)
	}
}

func TestOnPage(t *testing.T) {
	edits := []Edit{
		&Highlight{Meta: Meta{ID: "a", Page: 1}},
		&Highlight{Meta: Meta{ID: "b", Page: 2}},
		&Text{Meta: Meta{ID: "c", Page: 1}},
	}
	got := OnPage(edits, 1)
	if len(got) != 2 || got[0].Base().ID != "a" || got[1].Base().ID != "c" {
		t.Fatalf("OnPage = %v", got)
	}
}
