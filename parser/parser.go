// Package parser turns PDF bytes into a raw.Document using the xref chain and the object loader.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wudi/pdfview/filters"
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/security"
	"github.com/wudi/pdfview/xref"
)

// ErrNotPDF is returned when the payload has no %PDF- header.
var ErrNotPDF = errors.New("missing %PDF- header")

// Config controls high-level PDF parsing (xref resolution + object loading).
type Config struct {
	Recovery recovery.Strategy
	Limits   security.Limits
	Logger   observability.Logger
}

// DocumentParser builds a raw.Document using xref tables/streams and the object loader.
type DocumentParser struct {
	cfg Config
}

func NewDocumentParser(cfg Config) *DocumentParser {
	cfg.Limits = cfg.Limits.WithDefaults()
	cfg.Logger = observability.OrNop(cfg.Logger)
	return &DocumentParser{cfg: cfg}
}

func (p *DocumentParser) Parse(ctx context.Context, r io.ReaderAt) (*raw.Document, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return p.ParseBytes(ctx, data)
}

func (p *DocumentParser) ParseBytes(ctx context.Context, data []byte) (*raw.Document, error) {
	version, err := headerVersion(data)
	if err != nil {
		return nil, err
	}
	pipeline := filters.NewDefaultPipeline(filters.Limits{
		MaxDecompressedSize: p.cfg.Limits.MaxDecompressedSize,
		MaxDecodeTime:       p.cfg.Limits.MaxDecodeTime,
	})
	resolver := xref.NewResolver(xref.ResolverConfig{
		MaxXRefDepth: p.cfg.Limits.MaxXRefDepth,
		Recovery:     p.cfg.Recovery,
		Filters:      pipeline,
	})
	table, err := resolver.Resolve(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("resolve xref: %w", err)
	}
	if table.Repaired {
		p.cfg.Logger.Warn("xref rebuilt by scanning the file")
	}
	if err := security.CheckEncryption(table.Trailer); err != nil {
		return nil, err
	}

	loader := newObjectLoader(data, table, p.cfg, pipeline)
	doc := &raw.Document{
		Objects: make(map[raw.ObjectRef]raw.Object),
		Trailer: table.Trailer,
		Version: version,
	}
	nums := table.Objects()
	if len(nums) > p.cfg.Limits.MaxObjects {
		return nil, fmt.Errorf("object count %d exceeds limit %d", len(nums), p.cfg.Limits.MaxObjects)
	}
	for _, num := range nums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, _ := table.Lookup(num)
		ref := raw.ObjectRef{Num: num, Gen: e.Gen}
		if e.Kind == xref.EntryCompressed {
			ref.Gen = 0
		}
		obj, err := loader.Load(ctx, ref)
		if err != nil {
			if p.cfg.Recovery == nil || !p.cfg.Recovery.OnError(ctx, err, recovery.Location{ObjectNum: num, ObjectGen: ref.Gen, Component: "loader"}).Continue() {
				return nil, fmt.Errorf("load object %d: %w", num, err)
			}
			continue
		}
		doc.Objects[ref] = obj
	}

	if _, ok := doc.Trailer.Get("Root"); !ok {
		if root, ok := findCatalog(doc); ok {
			doc.Trailer.Set("Root", raw.RefObj{R: root})
		}
	}
	populateMetadata(doc)
	return doc, nil
}

func headerVersion(data []byte) (string, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return "", ErrNotPDF
	}
	v := head[idx+5:]
	end := 0
	for end < len(v) && end < 4 && (v[end] == '.' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	return string(v[:end]), nil
}

func findCatalog(doc *raw.Document) (raw.ObjectRef, bool) {
	for ref, obj := range doc.Objects {
		if d, ok := obj.(*raw.DictObj); ok {
			if typ, _ := d.Name("Type"); typ == "Catalog" {
				return ref, true
			}
		}
	}
	return raw.ObjectRef{}, false
}

func populateMetadata(doc *raw.Document) {
	info, ok := doc.Dict(infoRef(doc))
	if !ok {
		return
	}
	text := func(key string) string {
		v, ok := doc.Lookup(info, key)
		if !ok {
			return ""
		}
		b, _ := raw.StringBytes(v)
		return DecodeTextString(b)
	}
	doc.Metadata = raw.DocumentMetadata{
		Title:    text("Title"),
		Author:   text("Author"),
		Subject:  text("Subject"),
		Creator:  text("Creator"),
		Producer: text("Producer"),
	}
}

func infoRef(doc *raw.Document) raw.Object {
	v, ok := doc.Trailer.Get("Info")
	if !ok {
		return raw.NullObj{}
	}
	return v
}

func readAll(r io.ReaderAt) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 64*1024)
	for off := int64(0); ; {
		n, err := r.ReadAt(chunk, off)
		buf.Write(chunk[:n])
		off += int64(n)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
