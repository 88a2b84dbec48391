package raster

import (
	"context"
	"errors"
	"sync"

	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/viewport"
)

// ErrStale is returned for a render superseded by a newer request for the same page.
var ErrStale = errors.New("render superseded")

// Scheduler serializes renders per page. A new request cancels the in-flight
// one for that page and waits for it to settle before starting; a result whose
// generation is no longer current is discarded on arrival.
type Scheduler struct {
	render func(context.Context, *document.Handle, int, viewport.Viewport) (*Buffer, error)
	logger observability.Logger

	mu    sync.Mutex
	pages map[int]*slot
}

type slot struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(r *Renderer) *Scheduler {
	return &Scheduler{render: r.RenderViewport, logger: r.logger, pages: make(map[int]*slot)}
}

// Render paints page with vp unless a newer request for the page arrives first.
func (s *Scheduler) Render(ctx context.Context, h *document.Handle, page int, vp viewport.Viewport) (*Buffer, error) {
	rctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer close(done)
	defer cancel()

	s.mu.Lock()
	sl := s.pages[page]
	if sl == nil {
		sl = &slot{}
		s.pages[page] = sl
	}
	sl.gen++
	gen := sl.gen
	prevCancel, prevDone := sl.cancel, sl.done
	sl.cancel, sl.done = cancel, done
	s.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	if prevDone != nil {
		select {
		case <-prevDone:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.stale(page, gen) {
		return nil, s.discard(page, vp)
	}

	buf, err := s.render(rctx, h, page, vp)
	if s.stale(page, gen) {
		return nil, s.discard(page, vp)
	}
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return buf, err
}

// Invalidate marks any in-flight render for page as stale and cancels it.
func (s *Scheduler) Invalidate(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl := s.pages[page]; sl != nil {
		sl.gen++
		if sl.cancel != nil {
			sl.cancel()
		}
	}
}

// InvalidateAll is Invalidate for every page seen so far.
func (s *Scheduler) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.pages {
		sl.gen++
		if sl.cancel != nil {
			sl.cancel()
		}
	}
}

func (s *Scheduler) stale(page int, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[page].gen != gen
}

func (s *Scheduler) discard(page int, vp viewport.Viewport) error {
	s.logger.Debug("stale render discarded",
		observability.Int("page", page),
		observability.String("viewport", vp.String()),
		observability.Int(observability.MetricStaleRender, 1))
	return ErrStale
}
