package raw

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/scanner"
)

// LengthFunc resolves a possibly indirect /Length value while a stream is being read.
type LengthFunc func(Object) (int64, bool)

// TokenReader wraps a scanner with unlimited push-back.
type TokenReader struct {
	S   scanner.Scanner
	buf []scanner.Token
}

func NewTokenReader(s scanner.Scanner) *TokenReader { return &TokenReader{S: s} }

func (r *TokenReader) Next() (scanner.Token, error) {
	if l := len(r.buf); l > 0 {
		t := r.buf[l-1]
		r.buf = r.buf[:l-1]
		return t, nil
	}
	return r.S.Next()
}

func (r *TokenReader) Unread(tok scanner.Token) { r.buf = append(r.buf, tok) }

// ParseObject reads one direct object.
func (r *TokenReader) ParseObject() (Object, error) {
	tok, err := r.Next()
	if err != nil {
		return nil, err
	}
	return r.objectFrom(tok, 0)
}

const maxNesting = 256

func (r *TokenReader) objectFrom(tok scanner.Token, depth int) (Object, error) {
	if depth > maxNesting {
		return nil, errors.New("object nesting too deep")
	}
	switch tok.Type {
	case scanner.TokenName:
		return NameObj{Val: tok.Value.(string)}, nil
	case scanner.TokenNumber:
		if i, ok := tok.Value.(int64); ok {
			return NumberInt(i), nil
		}
		f, _ := tok.Float()
		return NumberFloat(f), nil
	case scanner.TokenBoolean:
		return BoolObj{V: tok.Value.(bool)}, nil
	case scanner.TokenNull:
		return NullObj{}, nil
	case scanner.TokenString:
		b := tok.Value.([]byte)
		if tok.Hex {
			return HexStringObj{Bytes: b}, nil
		}
		return StringObj{Bytes: b}, nil
	case scanner.TokenRef:
		ref := tok.Value.(scanner.Ref)
		return Ref(ref.Num, ref.Gen), nil
	case scanner.TokenArray:
		arr := &ArrayObj{}
		for {
			t, err := r.Next()
			if err != nil {
				return nil, err
			}
			if t.Keyword() == "]" {
				return arr, nil
			}
			item, err := r.objectFrom(t, depth+1)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
	case scanner.TokenDict:
		d := Dict()
		for {
			t, err := r.Next()
			if err != nil {
				return nil, err
			}
			if t.Keyword() == ">>" {
				return d, nil
			}
			if t.Type != scanner.TokenName {
				return nil, fmt.Errorf("expected name key in dictionary at offset %d", t.Pos)
			}
			vt, err := r.Next()
			if err != nil {
				return nil, err
			}
			if vt.Keyword() == ">>" {
				// key without value; treat as null and close
				return d, nil
			}
			val, err := r.objectFrom(vt, depth+1)
			if err != nil {
				return nil, err
			}
			d.Set(t.Value.(string), val)
		}
	}
	return nil, fmt.Errorf("unexpected token %v at offset %d", tok.Value, tok.Pos)
}

// ReadIndirect parses "num gen obj ... endobj" at the scanner's current position.
func ReadIndirect(tr *TokenReader, length LengthFunc) (ObjectRef, Object, error) {
	numTok, err := tr.Next()
	if err != nil {
		return ObjectRef{}, nil, err
	}
	genTok, err := tr.Next()
	if err != nil {
		return ObjectRef{}, nil, err
	}
	kw, err := tr.Next()
	if err != nil {
		return ObjectRef{}, nil, err
	}
	num, ok1 := numTok.Int()
	gen, ok2 := genTok.Int()
	if numTok.Type != scanner.TokenNumber || genTok.Type != scanner.TokenNumber || !ok1 || !ok2 || kw.Keyword() != "obj" {
		return ObjectRef{}, nil, fmt.Errorf("no object header at offset %d", numTok.Pos)
	}
	ref := ObjectRef{Num: int(num), Gen: int(gen)}
	tr.S.SetRecoveryLocation(recovery.Location{ObjectNum: ref.Num, ObjectGen: ref.Gen, Component: "object"})
	obj, err := tr.ParseObject()
	if err != nil {
		return ref, nil, fmt.Errorf("object %s: %w", ref, err)
	}
	if dict, ok := obj.(*DictObj); ok {
		if lv, has := dict.Get("Length"); has && length != nil {
			if n, ok := length(lv); ok {
				tr.S.SetNextStreamLength(n)
			}
		}
		t, err := tr.Next()
		if err == nil {
			if t.Type == scanner.TokenStream {
				obj = NewStream(dict, append([]byte(nil), t.Value.([]byte)...))
			} else {
				tr.Unread(t)
			}
		}
		tr.S.SetNextStreamLength(-1)
	}
	if t, err := tr.Next(); err == nil && t.Keyword() != "endobj" {
		tr.Unread(t)
	}
	return ref, obj, nil
}

// ScanParser finds objects by scanning the whole file for "n g obj" headers. It backs xref repair.
type ScanParser struct {
	Scanner scanner.Config
}

func (p ScanParser) Parse(ctx context.Context, r io.ReaderAt) (*Document, error) {
	size, err := readerSize(r)
	if err != nil {
		return nil, err
	}
	s, err := scanner.NewReaderAt(r, size, p.Scanner)
	if err != nil {
		return nil, err
	}
	tr := NewTokenReader(s)
	doc := &Document{Objects: make(map[ObjectRef]Object)}
	direct := func(o Object) (int64, bool) {
		n, ok := o.(NumberObj)
		return n.Int(), ok
	}
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
			continue
		}
		switch {
		case tok.Keyword() == "obj" && len(window) == 2:
			tr.Unread(tok)
			tr.Unread(window[1])
			tr.Unread(window[0])
			window = window[:0]
			ref, obj, err := ReadIndirect(tr, direct)
			if err == nil {
				doc.Objects[ref] = obj
			}
		case tok.Keyword() == "trailer":
			if t, err := tr.ParseObject(); err == nil {
				if d, ok := t.(*DictObj); ok {
					doc.Trailer = d
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
	return doc, nil
}

func readerSize(r io.ReaderAt) (int64, error) {
	type sizer interface{ Size() int64 }
	if s, ok := r.(sizer); ok {
		return s.Size(), nil
	}
	if s, ok := r.(io.Seeker); ok {
		return s.Seek(0, io.SeekEnd)
	}
	return 0, errors.New("reader does not expose its size")
}
