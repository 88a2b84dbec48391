package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
)

// InputFromImage encodes a page raster as PNG. The ID is stable per page.
func InputFromImage(page int, img image.Image, opts ...InputOption) (Input, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Input{}, fmt.Errorf("encode page %d: %w", page, err)
	}
	in := Input{
		ID:     fmt.Sprintf("page-%d", page),
		Image:  buf.Bytes(),
		Format: ImageFormatPNG,
		Page:   page,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

// Recognize runs inputs through engine, batching when the engine supports it.
func Recognize(ctx context.Context, engine Engine, inputs []Input) ([]Result, error) {
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}
