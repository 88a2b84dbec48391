package textrun

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/wudi/pdfview/contentstream"
	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/ocr"
	"github.com/wudi/pdfview/raster"
)

// Config configures an Extractor. OCR is optional; without it pages lacking a
// text layer simply have no items.
type Config struct {
	OCR       ocr.Engine
	OCRScale  float64 // raster scale for OCR input, default 2 (144 dpi)
	Languages []string
	Logger    observability.Logger
	Tracer    observability.Tracer
}

type Extractor struct {
	cfg    Config
	logger observability.Logger
	tracer observability.Tracer
}

func NewExtractor(cfg Config) *Extractor {
	if cfg.OCRScale <= 0 {
		cfg.OCRScale = 2
	}
	return &Extractor{cfg: cfg, logger: observability.OrNop(cfg.Logger), tracer: observability.TracerOrNop(cfg.Tracer)}
}

// ExtractAll extracts every page in order. A page that fails yields no items;
// only cancellation aborts the whole run.
func (e *Extractor) ExtractAll(ctx context.Context, h *document.Handle) ([]TextItem, error) {
	ctx, span := e.tracer.StartSpan(ctx, "textrun.extract")
	defer span.Finish()
	start := time.Now()

	var all []TextItem
	for page := 1; page <= h.PageCount(); page++ {
		items, err := e.ExtractPage(ctx, h, page)
		if err != nil {
			if ctx.Err() != nil {
				span.SetError(ctx.Err())
				return nil, ctx.Err()
			}
			e.logger.Warn("page text unavailable", observability.Int("page", page), observability.Error("error", err))
			continue
		}
		all = append(all, items...)
	}
	e.logger.Debug("text extracted",
		observability.Int("items", len(all)),
		observability.Duration(observability.MetricExtractTime, time.Since(start)))
	return all, nil
}

// ExtractPage returns the runs of one page in content-stream order, falling
// back to OCR when the page shows no text and an engine is configured.
func (e *Extractor) ExtractPage(ctx context.Context, h *document.Handle, page int) ([]TextItem, error) {
	p, err := h.Page(page)
	if err != nil {
		return nil, err
	}
	if p.ContentErr != nil {
		return nil, fmt.Errorf("content stream: %w", p.ContentErr)
	}
	c := &collector{page: page}
	in := &contentstream.Interpreter{
		Device:       c,
		Fonts:        h.Fonts(),
		Logger:       e.logger,
		MaxFormDepth: h.Limits().MaxXObjectDepth,
	}
	if err := in.RunPage(ctx, p); err != nil {
		return nil, err
	}
	if len(c.items) == 0 && e.cfg.OCR != nil {
		return e.recognize(ctx, h, page)
	}
	return c.items, nil
}

// collector turns each text-showing operator into one item.
type collector struct {
	contentstream.NopDevice
	page  int
	items []TextItem
}

func (c *collector) ShowText(t *contentstream.TextShow) {
	text := norm.NFKC.String(t.Text())
	if strings.TrimSpace(text) == "" {
		return
	}
	name := ""
	if t.Face != nil {
		name = t.Face.Name
	}
	c.items = append(c.items, TextItem{
		ID:           fmt.Sprintf("%d-%d", c.page, len(c.items)),
		Page:         c.page,
		Text:         text,
		OriginalText: text,
		OriginX:      t.Origin.X,
		OriginY:      t.Origin.Y,
		Width:        t.Width,
		Height:       t.Size,
		FontSize:     t.Size,
		FontName:     name,
	})
}

func (e *Extractor) recognize(ctx context.Context, h *document.Handle, page int) ([]TextItem, error) {
	r := raster.NewRenderer(raster.Options{Logger: e.logger})
	buf, err := r.Render(ctx, h, page, e.cfg.OCRScale, 0)
	if err != nil {
		return nil, fmt.Errorf("rasterize for ocr: %w", err)
	}
	in, err := ocr.InputFromImage(page, buf.Image,
		ocr.WithDPI(int(72*e.cfg.OCRScale)), ocr.WithLanguages(e.cfg.Languages...))
	if err != nil {
		return nil, err
	}
	results, err := ocr.Recognize(ctx, e.cfg.OCR, []ocr.Input{in})
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	var items []TextItem
	for _, res := range results {
		for _, w := range res.Words {
			if w.Bounds.IsEmpty() {
				continue
			}
			box := buf.Viewport.PDFRect(coords.Rect{
				MinX: w.Bounds.X, MinY: w.Bounds.Y,
				MaxX: w.Bounds.X + w.Bounds.Width, MaxY: w.Bounds.Y + w.Bounds.Height,
			})
			text := norm.NFKC.String(w.Text)
			if strings.TrimSpace(text) == "" {
				continue
			}
			items = append(items, TextItem{
				ID:           fmt.Sprintf("%d-%d", page, len(items)),
				Page:         page,
				Text:         text,
				OriginalText: text,
				OriginX:      box.MinX,
				OriginY:      box.MinY,
				Width:        box.Width(),
				Height:       box.Height(),
				FontSize:     box.Height(),
				Source:       SourceOCR,
			})
		}
	}
	e.logger.Info("page text recovered by ocr",
		observability.Int("page", page),
		observability.Int("words", len(items)),
		observability.String("engine", e.cfg.OCR.Name()))
	return items, nil
}
