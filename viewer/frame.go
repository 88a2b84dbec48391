package viewer

import (
	"context"
	"fmt"
	"image"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/overlay"
	"github.com/wudi/pdfview/raster"
	"github.com/wudi/pdfview/viewport"
)

// Frame is a rendered page and the overlay composited for the same viewport.
type Frame struct {
	Page     int
	Viewport viewport.Viewport
	Base     *raster.Buffer
	Overlay  *overlay.Layer
}

// Flatten composes the overlay over the page raster.
func (f *Frame) Flatten() (*image.RGBA, error) {
	return overlay.Flatten(f.Base.Image, f.Overlay)
}

// Frame renders the current page and then composites its overlay. If the view
// changes while the render is in flight the result is discarded with
// raster.ErrStale and the caller asks again. A page that cannot be rendered
// fails with *raster.RenderError; other pages stay usable.
func (s *Session) Frame(ctx context.Context) (*Frame, error) {
	ctx, span := s.tracer.StartSpan(ctx, "viewer.frame")
	defer span.Finish()
	start := time.Now()

	s.mu.Lock()
	h, page := s.handle, s.page
	vp, err := s.viewport()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	buf, err := s.sched.Render(ctx, h, page, vp)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, err := s.viewport(); err != nil || s.handle != h || s.page != page || !cur.Same(vp) {
		s.logger.Debug("frame discarded", observability.Int("page", page), observability.String("viewport", vp.String()))
		return nil, fmt.Errorf("page %d at %s: %w", page, vp, raster.ErrStale)
	}
	s.rendered[page] = vp
	s.logger.Debug("frame ready",
		observability.Int("page", page),
		observability.Duration(observability.MetricRenderTime, time.Since(start)))
	return &Frame{Page: page, Viewport: vp, Base: buf, Overlay: s.composite(page, vp)}, nil
}

// Overlay recomposites the current page without re-rendering it, for live
// feedback between frames. It fails with raster.ErrStale until a frame for the
// current view has been produced.
func (s *Session) Overlay() (*overlay.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vp, err := s.viewport()
	if err != nil {
		return nil, err
	}
	if last, ok := s.rendered[s.page]; !ok || !last.Same(vp) {
		return nil, fmt.Errorf("page %d at %s not rendered: %w", s.page, vp, raster.ErrStale)
	}
	return s.composite(s.page, vp), nil
}

// composite paints the visible edits, the page's items and any stroke in progress. Callers hold mu.
func (s *Session) composite(page int, vp viewport.Viewport) *overlay.Layer {
	l := s.overlay.Composite(page, vp, s.hist.Visible(), s.store.Page(page), s.machine.SelectionID())
	if pts := s.machine.Sketch(); len(pts) > 0 && s.machine.Page() == page {
		opts := s.machine.Options()
		s.overlay.Sketch(l, pts, opts.DrawColor, opts.DrawWidth)
	}
	return l
}

// Thumbnail renders page n at scale 1 and shrinks it so its longer side is at
// most size pixels. It bypasses the scheduler and never disturbs the main view.
func (s *Session) Thumbnail(ctx context.Context, n, size int) (*image.RGBA, error) {
	s.mu.Lock()
	h := s.handle
	err := s.err
	s.mu.Unlock()
	if h == nil {
		return nil, err
	}
	if n < 1 || n > h.PageCount() {
		return nil, &document.PageRangeError{Page: n, PageCount: h.PageCount()}
	}
	buf, err := s.renderer.Render(ctx, h, n, 1, 0)
	if err != nil {
		return nil, err
	}
	b := buf.Image.Bounds()
	f := min(float64(size)/float64(max(b.Dx(), b.Dy())), 1)
	w, ht := max(int(float64(b.Dx())*f+0.5), 1), max(int(float64(b.Dy())*f+0.5), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, ht))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), buf.Image, b, xdraw.Src, nil)
	return dst, nil
}
