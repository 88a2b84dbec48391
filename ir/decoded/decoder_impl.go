package decoded

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/wudi/pdfview/filters"
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/observability"
)

// NewDecoder constructs a Decoder that applies filter decoding to every stream with a bounded worker pool.
func NewDecoder(p *filters.Pipeline, logger observability.Logger) Decoder {
	if p == nil {
		p = filters.NewDefaultPipeline(filters.Limits{})
	}
	return &decoderImpl{pipeline: p, logger: observability.OrNop(logger)}
}

type decoderImpl struct {
	pipeline *filters.Pipeline
	logger   observability.Logger
}

func (d *decoderImpl) Decode(ctx context.Context, rawDoc *raw.Document) (*DecodedDocument, error) {
	out := &DecodedDocument{
		Raw:      rawDoc,
		Streams:  make(map[raw.ObjectRef]*Stream),
		Failures: make(map[raw.ObjectRef]error),
	}

	type task struct {
		ref raw.ObjectRef
		obj *raw.StreamObj
	}
	var tasks []task
	for ref, obj := range rawDoc.Objects {
		s, ok := obj.(*raw.StreamObj)
		if !ok {
			continue
		}
		// already consumed while parsing
		if typ, _ := s.Dict.Name("Type"); typ == "ObjStm" || typ == "XRef" {
			continue
		}
		tasks = append(tasks, task{ref: ref, obj: s})
	}
	if len(tasks) == 0 {
		return out, nil
	}

	workers := runtime.GOMAXPROCS(0)
	sem := make(chan struct{}, workers)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, t := range tasks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			stream, err := d.decodeStream(ctx, rawDoc, t.ref, t.obj)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failures[t.ref] = err
				return
			}
			out.Streams[t.ref] = stream
		}(t)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for ref, err := range out.Failures {
		d.logger.Warn("stream decode failed", observability.String("ref", ref.String()), observability.Error("error", err))
	}
	return out, nil
}

func (d *decoderImpl) decodeStream(ctx context.Context, doc *raw.Document, ref raw.ObjectRef, s *raw.StreamObj) (*Stream, error) {
	names, params := filters.ExtractFilters(s.Dict, doc.Resolve)
	data, image, err := d.pipeline.Decode(ctx, s.Data, names, params)
	if err != nil {
		return nil, fmt.Errorf("decode filters %v for %v: %w", names, ref, err)
	}
	return &Stream{Ref: ref, Dict: s.Dict, Data: data, Filters: names, ImageFilter: image}, nil
}
