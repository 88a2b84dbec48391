// Package ir chains the three representations: raw objects, decoded streams and semantic pages.
package ir

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wudi/pdfview/filters"
	"github.com/wudi/pdfview/ir/decoded"
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/ir/semantic"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/parser"
	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/security"
)

// Config selects the collaborators of a Pipeline. Zero values get viewer defaults.
type Config struct {
	Recovery recovery.Strategy
	Limits   security.Limits
	Logger   observability.Logger
	Tracer   observability.Tracer
}

type Pipeline struct {
	rawParser       raw.Parser
	decoder         decoded.Decoder
	semanticBuilder semantic.Builder
	logger          observability.Logger
	tracer          observability.Tracer
}

// New constructs a pipeline from cfg. A nil Recovery means lenient parsing.
func New(cfg Config) *Pipeline {
	cfg.Limits = cfg.Limits.WithDefaults()
	logger := observability.OrNop(cfg.Logger)
	if cfg.Recovery == nil {
		cfg.Recovery = &recovery.LenientStrategy{Logger: logger}
	}
	fp := filters.NewDefaultPipeline(filters.Limits{
		MaxDecompressedSize: cfg.Limits.MaxDecompressedSize,
		MaxDecodeTime:       cfg.Limits.MaxDecodeTime,
	})
	return &Pipeline{
		rawParser: parser.NewDocumentParser(parser.Config{
			Recovery: cfg.Recovery,
			Limits:   cfg.Limits,
			Logger:   logger,
		}),
		decoder:         decoded.NewDecoder(fp, logger),
		semanticBuilder: semantic.NewBuilder(logger),
		logger:          logger,
		tracer:          observability.TracerOrNop(cfg.Tracer),
	}
}

// NewDefault is New with a zero Config.
func NewDefault() *Pipeline { return New(Config{}) }

// Parse orchestrates Raw -> Decoded -> Semantic pipeline.
func (p *Pipeline) Parse(ctx context.Context, r io.ReaderAt) (*semantic.Document, error) {
	ctx, span := p.tracer.StartSpan(ctx, "ir.parse")
	defer span.Finish()
	start := time.Now()

	rawDoc, err := p.rawParser.Parse(ctx, r)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("raw parsing failed: %w", err)
	}

	decodedDoc, err := p.decoder.Decode(ctx, rawDoc)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("decoding failed: %w", err)
	}

	semDoc, err := p.semanticBuilder.Build(ctx, decodedDoc)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("semantic building failed: %w", err)
	}

	p.logger.Debug("document parsed",
		observability.Int("pages", len(semDoc.Pages)),
		observability.Int("objects", len(rawDoc.Objects)),
		observability.Duration(observability.MetricParseTime, time.Since(start)))
	return semDoc, nil
}
