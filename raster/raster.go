// Package raster paints PDF pages into RGBA buffers for a given viewport.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/wudi/pdfview/canvas"
	"github.com/wudi/pdfview/contentstream"
	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/viewport"
)

// ErrTooLarge is wrapped in a RenderError when a viewport exceeds Options.MaxPixels.
var ErrTooLarge = errors.New("viewport exceeds pixel limit")

// Options configures a Renderer. Zero values pick white paper and the document's pixel limit.
type Options struct {
	Background color.Color
	MaxPixels  int64
	Logger     observability.Logger
	Tracer     observability.Tracer
}

// RenderError reports a page that could not be rasterized. Other pages stay usable.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render page %d: %v", e.Page, e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// Remedy is the user-facing fallback suggestion.
func (e *RenderError) Remedy() string {
	return "This page could not be displayed. Download the file or open it in an external viewer."
}

// Buffer is one rendered page. Viewport is the projection the pixels were painted with.
type Buffer struct {
	Page     int
	Viewport viewport.Viewport
	Image    *image.RGBA
	// Images counts placed images; Skipped those that could not be decoded.
	Images  int
	Skipped int
}

type Renderer struct {
	opts   Options
	logger observability.Logger
	tracer observability.Tracer
}

func NewRenderer(opts Options) *Renderer {
	if opts.Background == nil {
		opts.Background = color.White
	}
	return &Renderer{opts: opts, logger: observability.OrNop(opts.Logger), tracer: observability.TracerOrNop(opts.Tracer)}
}

// Viewport computes the projection of page n at (scale, rotation), honoring the page's /Rotate.
func Viewport(h *document.Handle, page int, scale float64, rotation int) (viewport.Viewport, error) {
	box, pageRotate, err := h.PageBox(page)
	if err != nil {
		return viewport.Viewport{}, err
	}
	return viewport.ForPage(box, pageRotate, scale, rotation)
}

// Render paints page at (scale, rotation). A page outside [1, PageCount] fails with
// *document.PageRangeError and an illegal rotation with viewport.ErrInvalidRotation;
// other failures are *RenderError.
func (r *Renderer) Render(ctx context.Context, h *document.Handle, page int, scale float64, rotation int) (*Buffer, error) {
	vp, err := Viewport(h, page, scale, rotation)
	if err != nil {
		if errors.Is(err, viewport.ErrInvalidScale) {
			return nil, &RenderError{Page: page, Err: err}
		}
		return nil, err
	}
	return r.RenderViewport(ctx, h, page, vp)
}

// RenderViewport paints page with an already computed viewport.
func (r *Renderer) RenderViewport(ctx context.Context, h *document.Handle, page int, vp viewport.Viewport) (*Buffer, error) {
	ctx, span := r.tracer.StartSpan(ctx, "raster.render")
	defer span.Finish()
	span.SetTag("page", page)
	start := time.Now()

	p, err := h.Page(page)
	if err != nil {
		return nil, err
	}
	limit := r.opts.MaxPixels
	if limit <= 0 {
		limit = h.Limits().MaxPixels
	}
	if int64(vp.Width)*int64(vp.Height) > limit {
		return nil, &RenderError{Page: page, Err: fmt.Errorf("%w: %s", ErrTooLarge, vp)}
	}
	if p.ContentErr != nil {
		r.logger.Warn("page content partially undecodable",
			observability.Int("page", page), observability.Error("error", p.ContentErr))
	}

	c := canvas.New(vp.Width, vp.Height)
	c.Clear(r.opts.Background)
	dev := &painter{c: c, m: vp.Matrix(), scale: vp.Scale, logger: r.logger.With(observability.Int("page", page))}
	in := &contentstream.Interpreter{
		Device:       dev,
		Fonts:        h.Fonts(),
		Filters:      h.Filters(),
		Logger:       r.logger,
		MaxFormDepth: h.Limits().MaxXObjectDepth,
	}
	if err := in.RunPage(ctx, p); err != nil {
		span.SetError(err)
		return nil, &RenderError{Page: page, Err: err}
	}

	r.logger.Debug("page rendered",
		observability.Int("page", page),
		observability.String("viewport", vp.String()),
		observability.Duration(observability.MetricRenderTime, time.Since(start)))
	return &Buffer{Page: page, Viewport: vp, Image: c.Image(), Images: dev.images, Skipped: dev.failed}, nil
}
