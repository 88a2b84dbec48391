package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/internal/pdftest"
	"github.com/wudi/pdfview/ir/semantic"
	"github.com/wudi/pdfview/viewport"
)

func open(t *testing.T, data []byte) *document.Handle {
	t.Helper()
	h, err := document.Open(context.Background(), "data:application/pdf;base64,"+base64.StdEncoding.EncodeToString(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return h
}

func isRed(c color.RGBA) bool   { return c.R > 240 && c.G < 15 && c.B < 15 }
func isWhite(c color.RGBA) bool { return c.R > 250 && c.G > 250 && c.B > 250 }

func TestRenderFilledRect(t *testing.T) {
	h := open(t, pdftest.Document(pdftest.Page{Content: "1 0 0 rg 100 100 200 100 re f"}))
	r := NewRenderer(Options{})

	buf, err := r.Render(context.Background(), h, 1, 1, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := buf.Image.Bounds(); b.Dx() != 612 || b.Dy() != 792 {
		t.Fatalf("bounds = %v", b)
	}
	if !isRed(buf.Image.RGBAAt(200, 642)) {
		t.Fatalf("rect center = %v", buf.Image.RGBAAt(200, 642))
	}
	if !isWhite(buf.Image.RGBAAt(50, 50)) {
		t.Fatalf("paper = %v", buf.Image.RGBAAt(50, 50))
	}

	buf, err = r.Render(context.Background(), h, 1, 2, 0)
	if err != nil {
		t.Fatalf("Render x2: %v", err)
	}
	if buf.Image.Bounds().Dx() != 1224 || !isRed(buf.Image.RGBAAt(400, 1284)) {
		t.Fatalf("scaled render wrong: %v %v", buf.Image.Bounds(), buf.Image.RGBAAt(400, 1284))
	}
}

func TestRenderRotation(t *testing.T) {
	h := open(t, pdftest.Document(
		pdftest.Page{Content: "1 0 0 rg 190 140 20 20 re f"},
		pdftest.Page{Content: "1 0 0 rg 190 140 20 20 re f", Rotate: 90},
	))
	r := NewRenderer(Options{})

	buf, err := r.Render(context.Background(), h, 1, 1, 90)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := buf.Image.Bounds(); b.Dx() != 792 || b.Dy() != 612 {
		t.Fatalf("rotated bounds = %v", b)
	}
	x, y := buf.Viewport.ToDevice(200, 150)
	if !isRed(buf.Image.RGBAAt(int(x), int(y))) {
		t.Fatalf("rotated rect at %v,%v = %v", x, y, buf.Image.RGBAAt(int(x), int(y)))
	}

	// page /Rotate 90 plus a user 270 lands upright
	buf, err = r.Render(context.Background(), h, 2, 1, 270)
	if err != nil {
		t.Fatalf("Render page 2: %v", err)
	}
	if buf.Viewport.Rotation != 0 || !isRed(buf.Image.RGBAAt(200, 642)) {
		t.Fatalf("combined rotation %d pixel %v", buf.Viewport.Rotation, buf.Image.RGBAAt(200, 642))
	}
}

func TestRenderErrors(t *testing.T) {
	h := open(t, pdftest.Document(pdftest.Page{}, pdftest.Page{}))
	r := NewRenderer(Options{})

	_, err := r.Render(context.Background(), h, 3, 1, 0)
	var pre *document.PageRangeError
	if !errors.As(err, &pre) || pre.PageCount != 2 {
		t.Fatalf("page 3 err = %v", err)
	}
	if _, err := r.Render(context.Background(), h, 1, 1, 45); !errors.Is(err, viewport.ErrInvalidRotation) {
		t.Fatalf("rotation err = %v", err)
	}

	small := NewRenderer(Options{MaxPixels: 1000})
	_, err = small.Render(context.Background(), h, 1, 1, 0)
	var re *RenderError
	if !errors.As(err, &re) || re.Page != 1 || !errors.Is(err, ErrTooLarge) {
		t.Fatalf("oversized err = %v", err)
	}
	if re.Remedy() == "" {
		t.Fatalf("empty remedy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, h, 1, 1, 0); !errors.As(err, &re) || !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled err = %v", err)
	}
}

func TestRenderText(t *testing.T) {
	h := open(t, pdftest.Document(pdftest.Page{Content: "BT /F1 48 Tf 72 700 Td (H) Tj ET"}))
	buf, err := NewRenderer(Options{}).Render(context.Background(), h, 1, 1, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	dark := 0
	for y := 50; y < 95; y++ {
		for x := 60; x < 120; x++ {
			if c := buf.Image.RGBAAt(x, y); c.R < 100 {
				dark++
			}
		}
	}
	if dark < 50 {
		t.Fatalf("glyph painted %d dark pixels", dark)
	}
	if c := buf.Image.RGBAAt(300, 400); !isWhite(c) {
		t.Fatalf("text leaked: %v", c)
	}
}

func TestRenderInvisibleText(t *testing.T) {
	h := open(t, pdftest.Document(pdftest.Page{Content: "BT 3 Tr /F1 48 Tf 72 700 Td (H) Tj ET"}))
	buf, err := NewRenderer(Options{}).Render(context.Background(), h, 1, 1, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for y := 50; y < 95; y++ {
		for x := 60; x < 120; x++ {
			if !isWhite(buf.Image.RGBAAt(x, y)) {
				t.Fatalf("mode 3 painted at %d,%d", x, y)
			}
		}
	}
}

func TestRenderInlineImage(t *testing.T) {
	content := "q 100 0 0 50 0 0 cm BI /W 2 /H 1 /CS /RGB /BPC 8 ID \xff\x00\x00\x00\x00\xff\nEI Q"
	h := open(t, pdftest.Document(pdftest.Page{Content: content}))
	buf, err := NewRenderer(Options{}).Render(context.Background(), h, 1, 1, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Images != 1 || buf.Skipped != 0 {
		t.Fatalf("images %d skipped %d", buf.Images, buf.Skipped)
	}
	if !isRed(buf.Image.RGBAAt(25, 767)) {
		t.Fatalf("left sample = %v", buf.Image.RGBAAt(25, 767))
	}
	if c := buf.Image.RGBAAt(75, 767); c.B < 240 || c.R > 15 {
		t.Fatalf("right sample = %v", c)
	}
}

func TestRenderJPEGXObject(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		if i%4 == 1 || i%4 == 3 {
			src.Pix[i] = 255
		}
	}
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, src, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}

	b := pdftest.New()
	catalog := b.Reserve()
	tree := b.Reserve()
	img := b.AddStream("/Type /XObject /Subtype /Image /Width 8 /Height 8 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode", jpg.Bytes())
	content := b.AddStream("", []byte("q 200 0 0 200 100 100 cm /Im1 Do Q"))
	page := b.Add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 %d 0 R >> >> /Contents %d 0 R >>", tree, img, content))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree))
	b.Set(tree, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", page))

	h := open(t, b.Bytes(catalog))
	buf, err := NewRenderer(Options{}).Render(context.Background(), h, 1, 1, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if c := buf.Image.RGBAAt(200, 592); c.G < 200 || c.R > 60 || c.B > 60 {
		t.Fatalf("jpeg pixel = %v", c)
	}
}

func TestDecodeImageSamples(t *testing.T) {
	fill := color.NRGBA{R: 255, A: 255}
	out, err := decodeImage(&semantic.XObject{Width: 8, Height: 1, ImageMask: true, Data: []byte{0x0f}}, fill)
	if err != nil {
		t.Fatalf("stencil: %v", err)
	}
	st := out.(*image.NRGBA)
	if st.NRGBAAt(0, 0) != fill || st.NRGBAAt(7, 0).A != 0 {
		t.Fatalf("stencil samples %v %v", st.NRGBAAt(0, 0), st.NRGBAAt(7, 0))
	}

	indexed := &semantic.IndexedColorSpace{
		Base:   semantic.DeviceColorSpace{Name: "DeviceRGB"},
		HiVal:  1,
		Lookup: []byte{0, 0, 255, 0, 255, 0},
	}
	out, err = decodeImage(&semantic.XObject{Width: 2, Height: 1, BitsPerComponent: 4, ColorSpace: indexed, Data: []byte{0x01}}, fill)
	if err != nil {
		t.Fatalf("indexed: %v", err)
	}
	ix := out.(*image.NRGBA)
	if ix.NRGBAAt(0, 0) != (color.NRGBA{B: 255, A: 255}) || ix.NRGBAAt(1, 0) != (color.NRGBA{G: 255, A: 255}) {
		t.Fatalf("indexed samples %v %v", ix.NRGBAAt(0, 0), ix.NRGBAAt(1, 0))
	}

	withMask := &semantic.XObject{
		Width: 2, Height: 1, BitsPerComponent: 8,
		ColorSpace: semantic.DeviceColorSpace{Name: "DeviceGray"},
		Data:       []byte{0, 0},
		SMask:      &semantic.XObject{Width: 2, Height: 1, BitsPerComponent: 8, Data: []byte{255, 0}},
	}
	out, err = decodeImage(withMask, fill)
	if err != nil {
		t.Fatalf("smask: %v", err)
	}
	sm := out.(*image.NRGBA)
	if sm.NRGBAAt(0, 0).A != 255 || sm.NRGBAAt(1, 0).A != 0 {
		t.Fatalf("soft mask alpha %d %d", sm.NRGBAAt(0, 0).A, sm.NRGBAAt(1, 0).A)
	}

	if _, err := decodeImage(&semantic.XObject{Width: 4, Height: 4, Data: []byte{1}}, fill); err == nil {
		t.Fatalf("short data without a full row accepted")
	}
	if _, err := decodeImage(&semantic.XObject{Width: 1, Height: 1, ImageFilter: "JPXDecode", Data: []byte{1}}, fill); err == nil {
		t.Fatalf("JPX accepted")
	}
}
