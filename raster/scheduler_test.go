package raster

import (
	"context"
	"errors"
	"testing"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/internal/pdftest"
	"github.com/wudi/pdfview/viewport"
)

func blockingScheduler(started chan<- struct{}) *Scheduler {
	s := NewScheduler(NewRenderer(Options{}))
	s.render = func(ctx context.Context, _ *document.Handle, page int, vp viewport.Viewport) (*Buffer, error) {
		if vp.Scale == 1 {
			started <- struct{}{}
			<-ctx.Done()
			return nil, &RenderError{Page: page, Err: ctx.Err()}
		}
		return &Buffer{Page: page, Viewport: vp}, nil
	}
	return s
}

func vpAt(t *testing.T, scale float64) viewport.Viewport {
	t.Helper()
	vp, err := viewport.New(coords.Rect{MaxX: 612, MaxY: 792}, scale, 0)
	if err != nil {
		t.Fatal(err)
	}
	return vp
}

func TestSchedulerSupersedesInFlight(t *testing.T) {
	started := make(chan struct{}, 1)
	s := blockingScheduler(started)
	errc := make(chan error, 1)
	go func() {
		_, err := s.Render(context.Background(), nil, 1, vpAt(t, 1))
		errc <- err
	}()
	<-started

	buf, err := s.Render(context.Background(), nil, 1, vpAt(t, 2))
	if err != nil {
		t.Fatalf("newer render: %v", err)
	}
	if buf.Viewport.Scale != 2 {
		t.Fatalf("got viewport %v", buf.Viewport)
	}
	if err := <-errc; !errors.Is(err, ErrStale) {
		t.Fatalf("superseded render err = %v", err)
	}
}

func TestSchedulerPagesAreIndependent(t *testing.T) {
	started := make(chan struct{}, 1)
	s := blockingScheduler(started)
	errc := make(chan error, 1)
	go func() {
		_, err := s.Render(context.Background(), nil, 1, vpAt(t, 1))
		errc <- err
	}()
	<-started

	if _, err := s.Render(context.Background(), nil, 2, vpAt(t, 2)); err != nil {
		t.Fatalf("page 2 blocked by page 1: %v", err)
	}
	s.Invalidate(1)
	if err := <-errc; !errors.Is(err, ErrStale) {
		t.Fatalf("invalidated render err = %v", err)
	}
}

func TestSchedulerCallerCancel(t *testing.T) {
	started := make(chan struct{}, 1)
	s := blockingScheduler(started)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.Render(ctx, nil, 1, vpAt(t, 1))
		errc <- err
	}()
	<-started
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled err = %v", err)
	}
}

func TestSchedulerRendersDocument(t *testing.T) {
	h := open(t, pdftest.Document(pdftest.Page{Content: "1 0 0 rg 0 0 612 792 re f"}))
	s := NewScheduler(NewRenderer(Options{}))
	vp, err := Viewport(h, 1, 0.5, 0)
	if err != nil {
		t.Fatalf("Viewport: %v", err)
	}
	buf, err := s.Render(context.Background(), h, 1, vp)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !buf.Viewport.Same(vp) || buf.Image.Bounds().Dx() != 306 || !isRed(buf.Image.RGBAAt(10, 10)) {
		t.Fatalf("buffer %v %v", buf.Viewport, buf.Image.Bounds())
	}
}
