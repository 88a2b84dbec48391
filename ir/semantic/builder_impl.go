package semantic

import (
	"context"
	"errors"
	"fmt"

	"github.com/wudi/pdfview/ir/decoded"
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/observability"
)

// ErrNoPages is returned when the catalog has no page tree. An empty tree
// builds a document with zero pages.
var ErrNoPages = errors.New("document has no pages")

// NewBuilder returns the semantic builder. A nil logger discards warnings.
func NewBuilder(logger observability.Logger) Builder {
	return &builderImpl{logger: observability.OrNop(logger)}
}

type builderImpl struct {
	logger observability.Logger
}

func (b *builderImpl) Build(ctx context.Context, dec *decoded.DecodedDocument) (*Document, error) {
	if dec == nil || dec.Raw == nil {
		return nil, fmt.Errorf("build semantic document: no decoded document")
	}
	doc := &Document{
		decoded: dec,
		Version: dec.Raw.Version,
		Info: DocumentInfo{
			Title:    dec.Raw.Metadata.Title,
			Author:   dec.Raw.Metadata.Author,
			Subject:  dec.Raw.Metadata.Subject,
			Creator:  dec.Raw.Metadata.Creator,
			Producer: dec.Raw.Metadata.Producer,
		},
	}

	r := newResolver(dec, b.logger)
	catalog, ok := r.dict(lookupOrNil(dec.Raw.Trailer, "Root"))
	if !ok {
		return nil, fmt.Errorf("build semantic document: missing catalog")
	}
	pagesObj, ok := catalog.Get("Pages")
	if !ok {
		return nil, ErrNoPages
	}
	w := &pageWalker{r: r, seen: make(map[raw.ObjectRef]bool)}
	if err := w.walk(ctx, pagesObj, inheritedPageProps{}, 0); err != nil {
		return nil, err
	}
	doc.Pages = w.pages
	return doc, nil
}

func lookupOrNil(d *raw.DictObj, key string) raw.Object {
	v, _ := d.Get(key)
	return v
}

// resolver resolves raw objects against the decoded document and caches
// shared resources by object number.
type resolver struct {
	dec    *decoded.DecodedDocument
	logger observability.Logger
	fonts  map[raw.ObjectRef]*Font
	xobjs  map[raw.ObjectRef]*XObject
	res    map[raw.ObjectRef]*Resources
}

func newResolver(dec *decoded.DecodedDocument, logger observability.Logger) *resolver {
	return &resolver{
		dec:    dec,
		logger: logger,
		fonts:  make(map[raw.ObjectRef]*Font),
		xobjs:  make(map[raw.ObjectRef]*XObject),
		res:    make(map[raw.ObjectRef]*Resources),
	}
}

func (r *resolver) resolve(obj raw.Object) raw.Object {
	if obj == nil {
		return raw.NullObj{}
	}
	return r.dec.Raw.Resolve(obj)
}

func (r *resolver) dict(obj raw.Object) (*raw.DictObj, bool) {
	if obj == nil {
		return nil, false
	}
	return r.dec.Raw.Dict(obj)
}

func (r *resolver) array(obj raw.Object) (*raw.ArrayObj, bool) {
	a, ok := r.resolve(obj).(*raw.ArrayObj)
	return a, ok
}

func (r *resolver) name(d *raw.DictObj, key string) string {
	v, ok := r.dec.Raw.Lookup(d, key)
	if !ok {
		return ""
	}
	if n, ok := v.(raw.NameObj); ok {
		return n.Value()
	}
	return ""
}

func (r *resolver) number(d *raw.DictObj, key string) (float64, bool) {
	v, ok := r.dec.Raw.Lookup(d, key)
	if !ok {
		return 0, false
	}
	return raw.Float(v)
}

func (r *resolver) numbers(obj raw.Object) []float64 {
	arr, ok := r.array(obj)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(arr.Items))
	for _, it := range arr.Items {
		f, ok := raw.Float(r.resolve(it))
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// streamData returns decoded stream bytes for obj; direct streams are returned undecoded.
func (r *resolver) streamData(obj raw.Object) ([]byte, *decoded.Stream, error) {
	if s, ok := r.dec.Stream(obj); ok {
		return s.Data, s, nil
	}
	if err := r.dec.Failure(obj); err != nil {
		return nil, nil, err
	}
	if s, ok := r.resolve(obj).(*raw.StreamObj); ok {
		return s.Data, nil, nil
	}
	return nil, nil, fmt.Errorf("object is not a stream")
}

func refOf(obj raw.Object) (raw.ObjectRef, bool) {
	if ref, ok := obj.(raw.RefObj); ok {
		return ref.R, true
	}
	return raw.ObjectRef{}, false
}
