package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/pdfview/ocr"
)

func TestEngineRecognize(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(10, 50)}
	d.DrawString("Hello PDF")

	in, err := ocr.InputFromImage(1, img, ocr.WithLanguages("eng"), ocr.WithDPI(300))
	if err != nil {
		t.Fatalf("InputFromImage() error = %v", err)
	}
	results, err := ocr.Recognize(context.Background(), New(), []ocr.Input{in})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := strings.ToLower(results[0].PlainText)
	if !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", results[0].PlainText)
	}
	if len(results[0].Words) == 0 {
		t.Fatalf("expected word boxes")
	}
}
