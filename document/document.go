// Package document opens PDF sources into read-only handles shared by the
// rasterizer and the text extractor.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/filters"
	"github.com/wudi/pdfview/fonts"
	"github.com/wudi/pdfview/ir"
	"github.com/wudi/pdfview/ir/semantic"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/security"
)

// Config tunes a Loader. The zero value loads local and embedded sources only.
type Config struct {
	Fetcher Fetcher
	Limits  security.Limits
	Logger  observability.Logger
	Tracer  observability.Tracer
}

// Loader turns locators into Handles.
type Loader struct {
	cfg    Config
	logger observability.Logger
	tracer observability.Tracer
}

func NewLoader(cfg Config) *Loader {
	cfg.Limits = cfg.Limits.WithDefaults()
	return &Loader{
		cfg:    cfg,
		logger: observability.OrNop(cfg.Logger),
		tracer: observability.TracerOrNop(cfg.Tracer),
	}
}

// Open loads locator with a default Loader.
func Open(ctx context.Context, locator string) (*Handle, error) {
	return NewLoader(Config{}).Open(ctx, locator)
}

// Open fetches and parses the document at locator. Every failure is a *LoadError;
// a canceled context never yields a handle.
func (l *Loader) Open(ctx context.Context, locator string) (*Handle, error) {
	ctx, span := l.tracer.StartSpan(ctx, "document.open")
	defer span.Finish()
	start := time.Now()

	h, err := l.open(ctx, locator)
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			le = &LoadError{Reason: ReasonCorrupt, Err: err}
		}
		span.SetError(le)
		l.logger.Error("document load failed",
			observability.String("reason", le.Reason), observability.Error("error", le.Err))
		return nil, le
	}
	span.SetTag("pages", h.PageCount())
	l.logger.Info("document loaded",
		observability.Int(observability.MetricPageCount, h.PageCount()),
		observability.Duration(observability.MetricLoadTime, time.Since(start)))
	return h, nil
}

func (l *Loader) open(ctx context.Context, locator string) (*Handle, error) {
	loc, err := ParseLocator(locator)
	if err != nil {
		return nil, &LoadError{Reason: ReasonInvalidLocator, Err: err}
	}
	data, err := l.read(ctx, loc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Reason: ReasonCanceled, Err: err}
	}
	if !hasHeader(data) {
		return nil, &LoadError{Reason: ReasonUnsupported, Err: fmt.Errorf("missing %%PDF- header")}
	}

	pipe := ir.New(ir.Config{Limits: l.cfg.Limits, Logger: l.logger, Tracer: l.tracer})
	doc, err := pipe.Parse(ctx, bytes.NewReader(data))
	if cerr := ctx.Err(); cerr != nil {
		return nil, &LoadError{Reason: ReasonCanceled, Err: cerr}
	}
	switch {
	case err == nil:
	case errors.Is(err, security.ErrEncrypted):
		return nil, &LoadError{Reason: ReasonEncrypted, Err: err}
	case errors.Is(err, semantic.ErrNoPages):
		return nil, &LoadError{Reason: ReasonNoPages, Err: err}
	default:
		return nil, &LoadError{Reason: ReasonCorrupt, Err: err}
	}

	return &Handle{
		Locator: loc,
		doc:     doc,
		limits:  l.cfg.Limits,
		fonts:   fonts.NewCache(l.logger),
		filters: filters.NewDefaultPipeline(filters.Limits{
			MaxDecompressedSize: l.cfg.Limits.MaxDecompressedSize,
			MaxDecodeTime:       l.cfg.Limits.MaxDecodeTime,
		}),
	}, nil
}

func (l *Loader) read(ctx context.Context, loc Locator) ([]byte, error) {
	switch loc.Kind {
	case KindData:
		return loc.Data, nil
	case KindPath, KindFile:
		data, err := os.ReadFile(loc.Path)
		if err != nil {
			return nil, &LoadError{Reason: ReasonFetch, Err: err}
		}
		return data, nil
	default:
		if l.cfg.Fetcher == nil {
			return nil, &LoadError{Reason: ReasonNoFetcher, Err: fmt.Errorf("scheme %q", loc.Scheme)}
		}
		data, err := l.cfg.Fetcher.Fetch(ctx, loc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &LoadError{Reason: ReasonCanceled, Err: ctx.Err()}
			}
			return nil, &LoadError{Reason: ReasonFetch, Err: err}
		}
		return data, nil
	}
}

// hasHeader looks for %PDF- within the first KiB, as readers tolerate leading junk.
func hasHeader(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(head, []byte("%PDF-"))
}

// Handle is an opened document. It is immutable and safe for concurrent use.
type Handle struct {
	Locator Locator

	doc     *semantic.Document
	limits  security.Limits
	fonts   *fonts.Cache
	filters *filters.Pipeline
}

func (h *Handle) PageCount() int {
	if h == nil || h.doc == nil {
		return 0
	}
	return len(h.doc.Pages)
}

// Page returns the 1-based page n.
func (h *Handle) Page(n int) (*semantic.Page, error) {
	if h == nil || h.doc == nil {
		return nil, ErrNoDocument
	}
	if n < 1 || n > len(h.doc.Pages) {
		return nil, &PageRangeError{Page: n, PageCount: len(h.doc.Pages)}
	}
	return h.doc.Pages[n-1], nil
}

// PageBox returns the visible box and the normalized /Rotate of page n.
func (h *Handle) PageBox(n int) (coords.Rect, int, error) {
	p, err := h.Page(n)
	if err != nil {
		return coords.Rect{}, 0, err
	}
	b := p.Box()
	return coords.Rect{MinX: b.LLX, MinY: b.LLY, MaxX: b.URX, MaxY: b.URY}, p.Rotate, nil
}

func (h *Handle) Info() semantic.DocumentInfo { return h.doc.Info }
func (h *Handle) Version() string             { return h.doc.Version }

// Limits are the resource bounds the document was opened with.
func (h *Handle) Limits() security.Limits { return h.limits }

// Fonts is the face cache shared by everything drawing or measuring this document.
func (h *Handle) Fonts() *fonts.Cache { return h.fonts }

// Filters decodes inline image data met while interpreting pages.
func (h *Handle) Filters() *filters.Pipeline { return h.filters }
