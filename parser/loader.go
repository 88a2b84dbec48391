package parser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wudi/pdfview/filters"
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/scanner"
	"github.com/wudi/pdfview/xref"
)

type ObjectLoader interface {
	Load(ctx context.Context, ref raw.ObjectRef) (raw.Object, error)
}

// objectLoader reads objects by xref offset and unpacks object streams on demand.
type objectLoader struct {
	data     []byte
	table    *xref.Table
	scanCfg  scanner.Config
	filters  *filters.Pipeline
	recovery recovery.Strategy

	mu      sync.Mutex
	cache   map[raw.ObjectRef]raw.Object
	objstm  map[int]map[int]raw.Object
	loading map[int]bool
}

func newObjectLoader(data []byte, table *xref.Table, cfg Config, pipeline *filters.Pipeline) *objectLoader {
	return &objectLoader{
		data:     data,
		table:    table,
		scanCfg:  scanner.Config{Recovery: cfg.Recovery, MaxStringLength: cfg.Limits.MaxStringLength, MaxStreamLength: cfg.Limits.MaxStreamLength},
		filters:  pipeline,
		recovery: cfg.Recovery,
		cache:    make(map[raw.ObjectRef]raw.Object),
		objstm:   make(map[int]map[int]raw.Object),
		loading:  make(map[int]bool),
	}
}

func (o *objectLoader) Load(ctx context.Context, ref raw.ObjectRef) (raw.Object, error) {
	o.mu.Lock()
	if obj, ok := o.cache[ref]; ok {
		o.mu.Unlock()
		return obj, nil
	}
	o.mu.Unlock()

	obj, err := o.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.cache[ref] = obj
	o.mu.Unlock()
	return obj, nil
}

func (o *objectLoader) load(ctx context.Context, ref raw.ObjectRef) (raw.Object, error) {
	e, ok := o.table.Lookup(ref.Num)
	if !ok || e.Kind == xref.EntryFree {
		return raw.NullObj{}, nil
	}
	if e.Kind == xref.EntryCompressed {
		return o.loadCompressed(ctx, e)
	}
	return o.loadAt(ctx, e.Offset, ref)
}

func (o *objectLoader) loadAt(ctx context.Context, offset int64, want raw.ObjectRef) (raw.Object, error) {
	s := scanner.New(o.data, o.scanCfg)
	if err := s.Seek(offset); err != nil {
		return nil, fmt.Errorf("object %s: %w", want, err)
	}
	o.mu.Lock()
	if o.loading[want.Num] {
		o.mu.Unlock()
		return nil, fmt.Errorf("object %s: circular /Length", want)
	}
	o.loading[want.Num] = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.loading, want.Num)
		o.mu.Unlock()
	}()

	got, obj, err := raw.ReadIndirect(raw.NewTokenReader(s), func(v raw.Object) (int64, bool) {
		return o.length(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	if got.Num != want.Num {
		return nil, fmt.Errorf("xref points at object %s, found %s", want, got)
	}
	return obj, nil
}

func (o *objectLoader) length(ctx context.Context, v raw.Object) (int64, bool) {
	switch l := v.(type) {
	case raw.NumberObj:
		return l.Int(), true
	case raw.RefObj:
		obj, err := o.Load(ctx, l.R)
		if err != nil {
			return 0, false
		}
		n, ok := obj.(raw.NumberObj)
		return n.Int(), ok
	}
	return 0, false
}

func (o *objectLoader) loadCompressed(ctx context.Context, e xref.Entry) (raw.Object, error) {
	o.mu.Lock()
	objs, ok := o.objstm[e.Stream]
	o.mu.Unlock()
	if !ok {
		var err error
		objs, err = o.unpackObjectStream(ctx, e.Stream)
		if err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.objstm[e.Stream] = objs
		o.mu.Unlock()
	}
	obj, ok := objs[e.Index]
	if !ok {
		return raw.NullObj{}, nil
	}
	return obj, nil
}

// unpackObjectStream returns the objects of an /ObjStm keyed by their index.
func (o *objectLoader) unpackObjectStream(ctx context.Context, num int) (map[int]raw.Object, error) {
	obj, err := o.Load(ctx, raw.ObjectRef{Num: num})
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	st, ok := obj.(*raw.StreamObj)
	if !ok {
		return nil, fmt.Errorf("object stream %d is not a stream", num)
	}
	names, params := filters.ExtractFilters(st.Dict, nil)
	payload, _, err := o.filters.Decode(ctx, st.Data, names, params)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	n, _ := st.Dict.Int("N")
	first, _ := st.Dict.Int("First")
	if n <= 0 || first < 0 || first > int64(len(payload)) {
		return nil, errors.New("object stream header invalid")
	}

	header := raw.NewTokenReader(scanner.New(payload[:first], scanner.Config{ContentStream: true}))
	offsets := make([]int64, 0, n)
	for i := int64(0); i < n; i++ {
		numTok, err1 := header.Next()
		offTok, err2 := header.Next()
		if err1 != nil || err2 != nil {
			break
		}
		off, _ := offTok.Int()
		offsets = append(offsets, off)
		_ = numTok
	}

	body := payload[first:]
	out := make(map[int]raw.Object, len(offsets))
	for i, off := range offsets {
		if off < 0 || off > int64(len(body)) {
			continue
		}
		tr := raw.NewTokenReader(scanner.New(body[off:], scanner.Config{}))
		item, err := tr.ParseObject()
		if err != nil {
			if o.recovery == nil || !o.recovery.OnError(ctx, err, recovery.Location{ObjectNum: num, Component: "objstm"}).Continue() {
				return nil, fmt.Errorf("object stream %d item %d: %w", num, i, err)
			}
			continue
		}
		out[i] = item
	}
	return out, nil
}
