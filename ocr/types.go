package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Region is a rectangle in image pixels, origin top-left.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is one page image submitted for recognition.
type Input struct {
	ID     string
	Image  []byte
	Format ImageFormat
	// Page is the 1-based page number the raster was made from.
	Page int
	// DPI of the raster; zero means unknown.
	DPI       int
	Languages []string
	// Metadata carries engine-specific variables (e.g. tessedit_pageseg_mode).
	Metadata map[string]string
}

// Word is a single recognized token.
type Word struct {
	Text       string
	Bounds     Region
	Confidence float64 // 0..1
}

// Result is the output for one Input.
type Result struct {
	InputID   string
	PlainText string
	Words     []Word
	Language  string
}

// Engine recognizes one image at a time.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine handles several images per call.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}
