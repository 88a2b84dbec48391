package document

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wudi/pdfview/internal/pdftest"
)

func threePages() []byte {
	return pdftest.Document(
		pdftest.Page{Content: pdftest.TextPage("Hello")},
		pdftest.Page{MediaBox: "0 0 300 400", Rotate: 90},
		pdftest.Page{},
	)
}

func dataURL(b []byte) string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(b)
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		in     string
		kind   Kind
		path   string
		scheme string
	}{
		{"/tmp/a.pdf", KindPath, "/tmp/a.pdf", ""},
		{`C:\docs\a.pdf`, KindPath, `C:\docs\a.pdf`, ""},
		{"file:///tmp/a%20b.pdf", KindFile, "/tmp/a b.pdf", "file"},
		{"https://example.com/a.pdf", KindRemote, "", "https"},
		{"data:,%25PDF-", KindData, "", "data"},
	}
	for _, tt := range tests {
		loc, err := ParseLocator(tt.in)
		if err != nil {
			t.Fatalf("ParseLocator(%q): %v", tt.in, err)
		}
		if loc.Kind != tt.kind || loc.Path != tt.path || loc.Scheme != tt.scheme {
			t.Fatalf("ParseLocator(%q) = %+v", tt.in, loc)
		}
	}
	loc, _ := ParseLocator("data:,%25PDF-")
	if string(loc.Data) != "%PDF-" {
		t.Fatalf("percent data = %q", loc.Data)
	}
	if _, err := ParseLocator(""); err == nil {
		t.Fatalf("empty locator accepted")
	}
}

func TestOpenDataURL(t *testing.T) {
	h, err := Open(context.Background(), dataURL(threePages()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if h.PageCount() != 3 {
		t.Fatalf("PageCount = %d", h.PageCount())
	}
	box, rot, err := h.PageBox(2)
	if err != nil {
		t.Fatalf("PageBox: %v", err)
	}
	if box.MaxX != 300 || box.MaxY != 400 || rot != 90 {
		t.Fatalf("page 2 box %v rotate %d", box, rot)
	}
	if h.Fonts() == nil || h.Filters() == nil {
		t.Fatalf("handle missing shared caches")
	}
}

func TestOpenPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, threePages(), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, loc := range []string{path, "file://" + path} {
		h, err := Open(context.Background(), loc)
		if err != nil {
			t.Fatalf("Open(%q): %v", loc, err)
		}
		if h.PageCount() != 3 {
			t.Fatalf("PageCount = %d", h.PageCount())
		}
	}
}

func TestPageRange(t *testing.T) {
	h, err := Open(context.Background(), dataURL(threePages()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, n := range []int{0, 4, -1} {
		_, err := h.Page(n)
		var pre *PageRangeError
		if !errors.As(err, &pre) {
			t.Fatalf("Page(%d) err = %v", n, err)
		}
		if pre.PageCount != 3 {
			t.Fatalf("PageCount in error = %d", pre.PageCount)
		}
	}
	if got := (&PageRangeError{Page: 9, PageCount: 3}).Clamp(); got != 3 {
		t.Fatalf("Clamp = %d", got)
	}
	if got := Clamp(-2, 3); got != 1 {
		t.Fatalf("Clamp(-2) = %d", got)
	}
	if got := Clamp(1, 0); got != 0 {
		t.Fatalf("Clamp on empty = %d", got)
	}
}

func TestLoadErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.pdf")
	tests := []struct {
		name   string
		loc    string
		reason string
	}{
		{"missing file", missing, ReasonFetch},
		{"not a pdf", "data:,hello", ReasonUnsupported},
		{"remote without fetcher", "https://example.com/a.pdf", ReasonNoFetcher},
		{"bad base64", "data:;base64,***", ReasonInvalidLocator},
		{"garbage after header", "data:,%25PDF-1.7%0Atrash", ReasonCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Open(context.Background(), tt.loc)
			if h != nil {
				t.Fatalf("handle returned on failure")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("err = %v, want *LoadError", err)
			}
			if le.Reason != tt.reason {
				t.Fatalf("reason = %q, want %q (%v)", le.Reason, tt.reason, le.Err)
			}
			if le.Remedy() == "" {
				t.Fatalf("empty remedy")
			}
		})
	}
}

func TestEncryptedIsLoadError(t *testing.T) {
	b := pdftest.New()
	catalog := b.Reserve()
	b.Add("<< /Type /Pages /Kids [] /Count 0 >>")
	b.Set(catalog, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Info = "/Encrypt << /Filter /Standard /V 1 >>"
	_, err := Open(context.Background(), dataURL(b.Bytes(catalog)))
	var le *LoadError
	if !errors.As(err, &le) || le.Reason != ReasonEncrypted {
		t.Fatalf("err = %v", err)
	}
}

func TestEmptyPageTree(t *testing.T) {
	b := pdftest.New()
	catalog := b.Reserve()
	b.Add("<< /Type /Pages /Kids [] /Count 0 >>")
	b.Set(catalog, "<< /Type /Catalog /Pages 2 0 R >>")
	h, err := Open(context.Background(), dataURL(b.Bytes(catalog)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if h.PageCount() != 0 {
		t.Fatalf("PageCount = %d", h.PageCount())
	}
	var pr *PageRangeError
	if _, err := h.Page(1); !errors.As(err, &pr) || pr.Clamp() != 0 {
		t.Fatalf("Page(1) err = %v", err)
	}
}

func TestMissingPageTree(t *testing.T) {
	b := pdftest.New()
	catalog := b.Reserve()
	b.Set(catalog, "<< /Type /Catalog >>")
	_, err := Open(context.Background(), dataURL(b.Bytes(catalog)))
	var le *LoadError
	if !errors.As(err, &le) || le.Reason != ReasonNoPages {
		t.Fatalf("err = %v", err)
	}
}

func TestFetcher(t *testing.T) {
	var seen Locator
	l := NewLoader(Config{Fetcher: FetcherFunc(func(_ context.Context, loc Locator) ([]byte, error) {
		seen = loc
		return threePages(), nil
	})})
	h, err := l.Open(context.Background(), "https://example.com/a.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if seen.Scheme != "https" || h.PageCount() != 3 {
		t.Fatalf("fetcher saw %+v, pages %d", seen, h.PageCount())
	}

	boom := errors.New("offline")
	l = NewLoader(Config{Fetcher: FetcherFunc(func(context.Context, Locator) ([]byte, error) { return nil, boom })})
	_, err = l.Open(context.Background(), "https://example.com/a.pdf")
	var le *LoadError
	if !errors.As(err, &le) || le.Reason != ReasonFetch || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestCanceledOpenLeavesNoHandle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h, err := Open(ctx, dataURL(threePages()))
	if h != nil {
		t.Fatalf("partial handle returned")
	}
	var le *LoadError
	if !errors.As(err, &le) || le.Reason != ReasonCanceled || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
