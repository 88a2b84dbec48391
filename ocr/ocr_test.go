package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"reflect"
	"testing"
)

type stubEngine struct {
	calls []string
	err   error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(_ context.Context, in Input) (Result, error) {
	s.calls = append(s.calls, in.ID)
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{InputID: in.ID, PlainText: "ok"}, nil
}

func TestInputFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	meta := map[string]string{"psm": "6"}
	in, err := InputFromImage(2, img, WithLanguages("eng", "deu"), WithDPI(144), WithMetadata(meta))
	if err != nil {
		t.Fatalf("InputFromImage() error = %v", err)
	}
	if in.ID != "page-2" || in.Page != 2 || in.Format != ImageFormatPNG {
		t.Fatalf("unexpected input header: %+v", in)
	}
	decoded, err := png.Decode(bytes.NewReader(in.Image))
	if err != nil {
		t.Fatalf("payload is not png: %v", err)
	}
	if decoded.Bounds().Dx() != 3 || decoded.Bounds().Dy() != 2 {
		t.Fatalf("decoded bounds %v", decoded.Bounds())
	}
	if !reflect.DeepEqual(in.Languages, []string{"eng", "deu"}) || in.DPI != 144 {
		t.Fatalf("options not applied: %+v", in)
	}
	meta["psm"] = "7"
	if in.Metadata["psm"] != "6" {
		t.Fatalf("metadata was not copied: %+v", in.Metadata)
	}
}

func TestTesseractOptions(t *testing.T) {
	in := Input{}
	WithTesseractPSM(6)(&in)
	WithTesseractWhitelist("ABC")(&in)
	if in.Metadata["tessedit_pageseg_mode"] != "6" || in.Metadata["tessedit_char_whitelist"] != "ABC" {
		t.Fatalf("metadata = %+v", in.Metadata)
	}
}

func TestRecognizeSequential(t *testing.T) {
	e := &stubEngine{}
	res, err := Recognize(context.Background(), e, []Input{{ID: "a"}, {ID: "b"}})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if len(res) != 2 || res[1].InputID != "b" {
		t.Fatalf("results = %+v", res)
	}

	e.err = errors.New("boom")
	if _, err := Recognize(context.Background(), e, []Input{{ID: "c"}}); !errors.Is(err, e.err) {
		t.Fatalf("error not wrapped: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Recognize(ctx, &stubEngine{}, []Input{{ID: "d"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled err = %v", err)
	}
}

func TestRegionIsEmpty(t *testing.T) {
	if (Region{X: 10, Y: 20, Width: 4, Height: 6}).IsEmpty() {
		t.Fatalf("sized region reported empty")
	}
	if !(Region{Width: 1}).IsEmpty() {
		t.Fatalf("zero height region should be empty")
	}
}
