// Package viewer runs one document session: it loads the source, extracts
// text once, renders and composites frames for the current page and view, and
// routes input through the interaction machine into the edit history.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/edit"
	"github.com/wudi/pdfview/history"
	"github.com/wudi/pdfview/interact"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/ocr"
	"github.com/wudi/pdfview/overlay"
	"github.com/wudi/pdfview/raster"
	"github.com/wudi/pdfview/security"
	"github.com/wudi/pdfview/textrun"
	"github.com/wudi/pdfview/viewport"
)

// ErrNoSaveHandler is returned by Save when Config.OnSave is nil.
var ErrNoSaveHandler = errors.New("viewer: no save handler")

type Config struct {
	Locator string
	// Title overrides the document's /Info title.
	Title string
	// DisplayHeight fits page 1 to this many pixels; zero keeps scale 1.
	DisplayHeight int

	OnSave func(edits []edit.Edit)
	// OnEdit receives placed text when OnSave is nil (single-annotation mode).
	OnEdit func(page int, x, y float64, text string)

	Fetcher     document.Fetcher
	Limits      security.Limits
	OCR         ocr.Engine
	Logger      observability.Logger
	Tracer      observability.Tracer
	Style       overlay.Style
	Interaction interact.Options
}

// Session is safe for concurrent use. Rendering runs outside the lock; every
// other call is synchronous.
type Session struct {
	cfg    Config
	logger observability.Logger
	tracer observability.Tracer

	loader    *document.Loader
	extractor *textrun.Extractor
	renderer  *raster.Renderer
	sched     *raster.Scheduler
	overlay   *overlay.Renderer

	mu       sync.Mutex
	handle   *document.Handle
	err      error
	title    string
	store    *textrun.Store
	hist     *history.History
	machine  *interact.Machine
	page     int
	scale    float64
	rotation int
	rendered map[int]viewport.Viewport
	placed   []placement
}

type placement struct {
	page int
	x, y float64
	text string
}

func New(cfg Config) (*Session, error) {
	logger := observability.OrNop(cfg.Logger)
	tracer := observability.TracerOrNop(cfg.Tracer)
	ov, err := overlay.NewRenderer(cfg.Style)
	if err != nil {
		return nil, err
	}
	renderer := raster.NewRenderer(raster.Options{Logger: logger, Tracer: tracer})
	s := &Session{
		cfg:    cfg,
		logger: logger,
		tracer: tracer,
		loader: document.NewLoader(document.Config{
			Fetcher: cfg.Fetcher,
			Limits:  cfg.Limits,
			Logger:  logger,
			Tracer:  tracer,
		}),
		extractor: textrun.NewExtractor(textrun.Config{OCR: cfg.OCR, Logger: logger, Tracer: tracer}),
		renderer:  renderer,
		sched:     raster.NewScheduler(renderer),
		overlay:   ov,
		err:       document.ErrNoDocument,
		title:     cfg.Title,
		store:     textrun.NewStore(nil),
		hist:      history.New(),
		page:      1,
		scale:     1,
		rendered:  make(map[int]viewport.Viewport),
	}
	s.machine = s.newMachine()
	return s, nil
}

// Open creates a session and loads cfg.Locator. On a load failure the session
// is still returned so callers can show Err and Remedy.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return s, s.Load(ctx)
}

// Load fetches and parses the document, then extracts its text. A failure
// leaves the session in the degraded state reported by Err.
func (s *Session) Load(ctx context.Context) error {
	h, err := s.loader.Open(ctx, s.cfg.Locator)
	if err != nil {
		s.logger.Error("document load failed", observability.String("locator", s.cfg.Locator), observability.Error("error", err))
		s.degrade(err)
		return err
	}
	items, err := s.extractor.ExtractAll(ctx, h)
	if err != nil {
		le := &document.LoadError{Reason: document.ReasonCanceled, Err: err}
		s.degrade(le)
		return le
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.InvalidateAll()
	s.handle = h
	s.err = nil
	if s.cfg.Title == "" {
		s.title = h.Info().Title
	}
	s.store = textrun.NewStore(items)
	s.hist.Reset()
	s.machine = s.newMachine()
	s.page, s.rotation = document.Clamp(1, h.PageCount()), 0
	s.scale = s.fitScale()
	s.rendered = make(map[int]viewport.Viewport)
	s.syncView()
	return nil
}

// degrade drops any previously loaded document so nothing outlives a failed load.
func (s *Session) degrade(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.InvalidateAll()
	s.handle = nil
	s.err = err
	s.title = s.cfg.Title
	s.store = textrun.NewStore(nil)
	s.hist.Reset()
	s.machine = s.newMachine()
	s.page, s.rotation, s.scale = 1, 0, 1
	s.rendered = make(map[int]viewport.Viewport)
	s.placed = nil
}

func (s *Session) newMachine() *interact.Machine {
	opts := s.cfg.Interaction
	if s.cfg.OnEdit != nil && s.cfg.OnSave == nil {
		opts.Place = s.place
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	return interact.New(s.store, s.hist, opts)
}

// fitScale fits page 1 to DisplayHeight, honoring its /Rotate.
func (s *Session) fitScale() float64 {
	if s.cfg.DisplayHeight <= 0 {
		return 1
	}
	box, rot, err := s.handle.PageBox(1)
	if err != nil {
		return 1
	}
	h := box.Height()
	if rot == 90 || rot == 270 {
		h = box.Width()
	}
	if h <= 0 {
		return 1
	}
	return float64(s.cfg.DisplayHeight) / h
}

// syncView hands the current view to the interaction machine. Callers hold mu.
func (s *Session) syncView() {
	vp, err := s.viewport()
	if err != nil {
		return
	}
	s.machine.SetView(s.page, vp)
}

func (s *Session) viewport() (viewport.Viewport, error) {
	if s.handle == nil {
		return viewport.Viewport{}, s.err
	}
	return raster.Viewport(s.handle, s.page, s.scale, s.rotation)
}

// Err is the load failure, ErrNoDocument before a load, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Remedy is the user-facing fallback for Err, or "".
func (s *Session) Remedy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var le *document.LoadError
	if errors.As(s.err, &le) {
		return le.Remedy()
	}
	return ""
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return s.handle.PageCount()
}

func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Session) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

func (s *Session) Rotation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation
}

// Viewport is the projection of the current page and view.
func (s *Session) Viewport() (viewport.Viewport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport()
}

// GoTo moves to page n clamped to [1, PageCount] and returns the page shown.
func (s *Session) GoTo(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return s.page
	}
	s.page = document.Clamp(n, s.handle.PageCount())
	s.syncView()
	return s.page
}

func (s *Session) Next() int { return s.GoTo(s.Page() + 1) }
func (s *Session) Prev() int { return s.GoTo(s.Page() - 1) }

// SetScale changes the zoom. In-flight renders of the current page become stale.
func (s *Session) SetScale(scale float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !viewport.ValidScale(scale) {
		return fmt.Errorf("%w: %v", viewport.ErrInvalidScale, scale)
	}
	s.scale = scale
	s.sched.Invalidate(s.page)
	s.syncView()
	return nil
}

// SetRotation sets the clockwise view rotation, one of 0, 90, 180 or 270.
func (s *Session) SetRotation(deg int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !viewport.Valid(deg) {
		return fmt.Errorf("%w: %d", viewport.ErrInvalidRotation, deg)
	}
	s.rotation = deg
	s.sched.Invalidate(s.page)
	s.syncView()
	return nil
}

// Rotate turns the view a quarter clockwise.
func (s *Session) Rotate() error {
	return s.SetRotation(viewport.Normalize(s.Rotation() + 90))
}
