// Package xref locates indirect objects: classic tables, cross-reference streams and full-file repair.
package xref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/wudi/pdfview/filters"
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/scanner"
)

type EntryKind int

const (
	EntryFree EntryKind = iota
	EntryInUse
	EntryCompressed // lives inside an object stream
)

// Entry is one row of the merged cross-reference data.
type Entry struct {
	Kind   EntryKind
	Offset int64 // EntryInUse
	Gen    int
	Stream int // EntryCompressed: object number of the /ObjStm
	Index  int // EntryCompressed: index inside the object stream
}

// Table is the merged view over every xref section reachable from startxref.
type Table struct {
	entries  map[int]Entry
	Trailer  *raw.DictObj
	Repaired bool
}

func newTable() *Table { return &Table{entries: make(map[int]Entry)} }

func (t *Table) Lookup(objNum int) (Entry, bool) {
	e, ok := t.entries[objNum]
	return e, ok
}

// Objects returns the in-use and compressed object numbers in ascending order.
func (t *Table) Objects() []int {
	out := make([]int, 0, len(t.entries))
	for k, e := range t.entries {
		if e.Kind != EntryFree {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}

// setIfAbsent keeps the newest section's entry; sections are visited newest first.
func (t *Table) setIfAbsent(num int, e Entry) {
	if _, ok := t.entries[num]; !ok {
		t.entries[num] = e
	}
}

type ResolverConfig struct {
	MaxXRefDepth int
	Recovery     recovery.Strategy
	Filters      *filters.Pipeline
}

type Resolver struct {
	cfg ResolverConfig
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.MaxXRefDepth <= 0 {
		cfg.MaxXRefDepth = 50
	}
	if cfg.Filters == nil {
		cfg.Filters = filters.NewDefaultPipeline(filters.Limits{})
	}
	return &Resolver{cfg: cfg}
}

// Resolve reads the xref chain. A broken chain falls back to Repair when the recovery strategy allows it.
func (r *Resolver) Resolve(ctx context.Context, data []byte) (*Table, error) {
	t, err := r.resolveChain(ctx, data)
	if err == nil {
		return t, nil
	}
	if r.cfg.Recovery == nil || !r.cfg.Recovery.OnError(ctx, err, recovery.Location{Component: "xref"}).Continue() {
		return nil, err
	}
	return Repair(ctx, data)
}

func (r *Resolver) resolveChain(ctx context.Context, data []byte) (*Table, error) {
	offset, err := findStartXRef(data)
	if err != nil {
		return nil, err
	}
	t := newTable()
	seen := make(map[int64]bool)
	for depth := 0; offset >= 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if depth >= r.cfg.MaxXRefDepth {
			return nil, errors.New("xref chain too deep")
		}
		if seen[offset] {
			break
		}
		seen[offset] = true
		if offset >= int64(len(data)) {
			return nil, fmt.Errorf("xref offset out of range: %d", offset)
		}
		trailer, err := r.readSection(ctx, data, offset, t)
		if err != nil {
			return nil, err
		}
		if t.Trailer == nil {
			t.Trailer = trailer
		}
		// hybrid-reference files point at a supplementary xref stream
		if stm, ok := trailer.Int("XRefStm"); ok && !seen[stm] {
			seen[stm] = true
			if _, err := r.readSection(ctx, data, stm, t); err != nil {
				return nil, err
			}
		}
		prev, ok := trailer.Int("Prev")
		if !ok {
			break
		}
		offset = prev
	}
	if t.Trailer == nil {
		return nil, errors.New("trailer not found")
	}
	return t, nil
}

func findStartXRef(data []byte) (int64, error) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("startxref not found")
	}
	rest := bytes.TrimLeft(data[idx+len("startxref"):], " \t\r\n\f\x00")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	off, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse startxref: %w", err)
	}
	return off, nil
}

func (r *Resolver) readSection(ctx context.Context, data []byte, offset int64, t *Table) (*raw.DictObj, error) {
	s := scanner.New(data, scanner.Config{Recovery: r.cfg.Recovery})
	if err := s.Seek(offset); err != nil {
		return nil, err
	}
	tr := raw.NewTokenReader(s)
	tok, err := tr.Next()
	if err != nil {
		return nil, fmt.Errorf("read xref at %d: %w", offset, err)
	}
	if tok.Keyword() == "xref" {
		return readClassic(tr, t)
	}
	tr.Unread(tok)
	return r.readStream(ctx, tr, t)
}

func readClassic(tr *raw.TokenReader, t *Table) (*raw.DictObj, error) {
	for {
		tok, err := tr.Next()
		if err != nil {
			return nil, fmt.Errorf("xref table: %w", err)
		}
		if tok.Keyword() == "trailer" {
			obj, err := tr.ParseObject()
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			d, ok := obj.(*raw.DictObj)
			if !ok {
				return nil, errors.New("trailer is not a dictionary")
			}
			return d, nil
		}
		start, ok1 := tok.Int()
		countTok, err := tr.Next()
		if err != nil {
			return nil, err
		}
		count, ok2 := countTok.Int()
		if tok.Type != scanner.TokenNumber || !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid xref subsection header at %d", tok.Pos)
		}
		for i := int64(0); i < count; i++ {
			offTok, err1 := tr.Next()
			genTok, err2 := tr.Next()
			kindTok, err3 := tr.Next()
			if err := errors.Join(err1, err2, err3); err != nil {
				return nil, fmt.Errorf("unexpected end of xref section: %w", err)
			}
			off, _ := offTok.Int()
			gen, _ := genTok.Int()
			num := int(start + i)
			switch kindTok.Keyword() {
			case "n":
				t.setIfAbsent(num, Entry{Kind: EntryInUse, Offset: off, Gen: int(gen)})
			case "f":
				t.setIfAbsent(num, Entry{Kind: EntryFree, Gen: int(gen)})
			default:
				return nil, fmt.Errorf("invalid xref entry type %v", kindTok.Value)
			}
		}
	}
}

func (r *Resolver) readStream(ctx context.Context, tr *raw.TokenReader, t *Table) (*raw.DictObj, error) {
	direct := func(o raw.Object) (int64, bool) {
		n, ok := o.(raw.NumberObj)
		return n.Int(), ok
	}
	_, obj, err := raw.ReadIndirect(tr, direct)
	if err != nil {
		return nil, fmt.Errorf("xref stream: %w", err)
	}
	st, ok := obj.(*raw.StreamObj)
	if !ok {
		return nil, errors.New("xref offset does not point at a table or stream")
	}
	if typ, _ := st.Dict.Name("Type"); typ != "XRef" {
		return nil, errors.New("stream at xref offset is not /Type /XRef")
	}
	names, params := filters.ExtractFilters(st.Dict, nil)
	payload, _, err := r.cfg.Filters.Decode(ctx, st.Data, names, params)
	if err != nil {
		return nil, fmt.Errorf("decode xref stream: %w", err)
	}
	widths, err := intArray(st.Dict, "W")
	if err != nil || len(widths) != 3 {
		return nil, errors.New("xref stream /W invalid")
	}
	size, _ := st.Dict.Int("Size")
	index := []int64{0, size}
	if idx, err := intArray(st.Dict, "Index"); err == nil && len(idx)%2 == 0 {
		index = idx
	}
	rowLen := int(widths[0] + widths[1] + widths[2])
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		for n := int64(0); n < index[i+1]; n++ {
			if pos+rowLen > len(payload) {
				return st.Dict, nil
			}
			row := payload[pos : pos+rowLen]
			pos += rowLen
			f1 := field(row[:widths[0]], 1)
			f2 := field(row[widths[0]:widths[0]+widths[1]], 0)
			f3 := field(row[widths[0]+widths[1]:], 0)
			num := int(index[i] + n)
			switch f1 {
			case 0:
				t.setIfAbsent(num, Entry{Kind: EntryFree, Gen: int(f3)})
			case 1:
				t.setIfAbsent(num, Entry{Kind: EntryInUse, Offset: f2, Gen: int(f3)})
			case 2:
				t.setIfAbsent(num, Entry{Kind: EntryCompressed, Stream: int(f2), Index: int(f3)})
			}
		}
	}
	return st.Dict, nil
}

// field decodes a big-endian integer; an empty field takes the default.
func field(b []byte, def int64) int64 {
	if len(b) == 0 {
		return def
	}
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

func intArray(d *raw.DictObj, key string) ([]int64, error) {
	v, ok := d.Get(key)
	if !ok {
		return nil, fmt.Errorf("missing /%s", key)
	}
	arr, ok := v.(*raw.ArrayObj)
	if !ok {
		return nil, fmt.Errorf("/%s is not an array", key)
	}
	out := make([]int64, 0, arr.Len())
	for _, it := range arr.Items {
		n, ok := it.(raw.NumberObj)
		if !ok {
			return nil, fmt.Errorf("/%s has a non-numeric item", key)
		}
		out = append(out, n.Int())
	}
	return out, nil
}
