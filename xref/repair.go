package xref

import (
	"context"
	"errors"
	"io"

	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/scanner"
)

// Repair scans the whole file for "<num> <gen> obj" headers and trailer dictionaries.
// Later definitions of an object win, matching incremental-update semantics.
func Repair(ctx context.Context, data []byte) (*Table, error) {
	s := scanner.New(data, scanner.Config{})
	tr := raw.NewTokenReader(s)
	t := newTable()
	t.Repaired = true
	var window []scanner.Token
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			window = window[:0]
			continue
		}
		switch {
		case tok.Keyword() == "obj" && len(window) == 2:
			num, _ := window[0].Int()
			gen, _ := window[1].Int()
			t.entries[int(num)] = Entry{Kind: EntryInUse, Offset: window[0].Pos, Gen: int(gen)}
			window = window[:0]
		case tok.Keyword() == "trailer":
			if obj, err := tr.ParseObject(); err == nil {
				if d, ok := obj.(*raw.DictObj); ok {
					mergeTrailer(t, d)
				}
			}
			window = window[:0]
		case tok.Type == scanner.TokenDict:
			// xref stream dictionaries double as trailers
			tr.Unread(tok)
			obj, err := tr.ParseObject()
			if err != nil {
				window = window[:0]
				continue
			}
			if d, ok := obj.(*raw.DictObj); ok {
				if typ, _ := d.Name("Type"); typ == "XRef" {
					mergeTrailer(t, d)
				}
			}
			window = window[:0]
		case tok.Type == scanner.TokenNumber:
			window = append(window, tok)
			if len(window) > 2 {
				window = window[1:]
			}
		default:
			window = window[:0]
		}
	}
	if len(t.entries) == 0 {
		return nil, errors.New("repair: no objects found")
	}
	if t.Trailer == nil {
		t.Trailer = raw.Dict()
	}
	return t, nil
}

func mergeTrailer(t *Table, d *raw.DictObj) {
	if t.Trailer == nil {
		t.Trailer = raw.Dict()
	}
	for _, k := range []string{"Root", "Info", "Encrypt", "ID", "Size"} {
		if v, ok := d.Get(k); ok {
			t.Trailer.Set(k, v)
		}
	}
}
