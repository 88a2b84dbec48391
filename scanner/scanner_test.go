package scanner

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/wudi/pdfview/recovery"
)

func newScanner(data string, cfg Config) Scanner {
	return New([]byte(data), cfg)
}

func nextToken(t *testing.T, s Scanner) Token {
	t.Helper()
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tok
}

func TestScanner_ObjectHeaderAndDict(t *testing.T) {
	s := newScanner("%PDF-1.7\n1 0 obj\n<< /Name /Va#6Cue /Nums [1 -2.5 .5] /Flag true /Null null /P 3 0 R >>\nendobj", Config{})

	if tok := nextToken(t, s); tok.Type != TokenNumber || tok.Value != int64(1) {
		t.Fatalf("expected number 1, got %+v", tok)
	}
	if tok := nextToken(t, s); tok.Type != TokenNumber || tok.Value != int64(0) {
		t.Fatalf("expected number 0, got %+v", tok)
	}
	if tok := nextToken(t, s); tok.Keyword() != "obj" {
		t.Fatalf("expected obj, got %+v", tok)
	}
	if tok := nextToken(t, s); tok.Type != TokenDict {
		t.Fatalf("expected dict start, got %+v", tok)
	}
	nextToken(t, s)
	if tok := nextToken(t, s); tok.Type != TokenName || tok.Value != "Value" {
		t.Fatalf("expected decoded name, got %+v", tok)
	}
	nextToken(t, s)
	if tok := nextToken(t, s); tok.Type != TokenArray {
		t.Fatalf("expected array, got %+v", tok)
	}
	want := []float64{1, -2.5, 0.5}
	for _, w := range want {
		tok := nextToken(t, s)
		if f, ok := tok.Float(); !ok || f != w {
			t.Fatalf("expected %v, got %+v", w, tok)
		}
	}
	if tok := nextToken(t, s); tok.Keyword() != "]" {
		t.Fatalf("expected ], got %+v", tok)
	}
	nextToken(t, s)
	if tok := nextToken(t, s); tok.Type != TokenBoolean || tok.Value != true {
		t.Fatalf("expected true, got %+v", tok)
	}
	nextToken(t, s)
	if tok := nextToken(t, s); tok.Type != TokenNull {
		t.Fatalf("expected null, got %+v", tok)
	}
	nextToken(t, s)
	if tok := nextToken(t, s); tok.Type != TokenRef || tok.Value != (Ref{Num: 3, Gen: 0}) {
		t.Fatalf("expected ref 3 0 R, got %+v", tok)
	}
	if tok := nextToken(t, s); tok.Keyword() != ">>" {
		t.Fatalf("expected >>, got %+v", tok)
	}
	if tok := nextToken(t, s); tok.Keyword() != "endobj" {
		t.Fatalf("expected endobj, got %+v", tok)
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestScanner_Strings(t *testing.T) {
	s := newScanner(`(a\(b\)c\n\101 (nested)) <48 65 6C6C 6F> <7>`, Config{})
	tok := nextToken(t, s)
	if got := string(tok.Value.([]byte)); got != "a(b)c\nA (nested)" {
		t.Fatalf("literal: got %q", got)
	}
	tok = nextToken(t, s)
	if !tok.Hex || string(tok.Value.([]byte)) != "Hello" {
		t.Fatalf("hex: got %+v", tok)
	}
	tok = nextToken(t, s)
	if !bytes.Equal(tok.Value.([]byte), []byte{0x70}) {
		t.Fatalf("odd hex should pad, got %v", tok.Value)
	}
}

func TestScanner_ContentStreamOperatorsAreNotRefs(t *testing.T) {
	s := newScanner("1 0 0 RG 0 0 10 10 re f*", Config{ContentStream: true})
	var kinds []string
	for {
		tok, err := s.Next()
		if err != nil {
			break
		}
		if tok.Type == TokenKeyword {
			kinds = append(kinds, tok.Keyword())
		}
	}
	if len(kinds) != 3 || kinds[0] != "RG" || kinds[1] != "re" || kinds[2] != "f*" {
		t.Fatalf("unexpected operators %v", kinds)
	}

	// RG must not be mistaken for a reference even outside content mode.
	s = newScanner("0 0 RG", Config{})
	for i := 0; i < 2; i++ {
		if tok := nextToken(t, s); tok.Type != TokenNumber {
			t.Fatalf("expected number, got %+v", tok)
		}
	}
}

func TestScanner_StreamUsesLengthThenFallsBack(t *testing.T) {
	s := newScanner("stream\r\nABCDEF\nendstream", Config{})
	s.SetNextStreamLength(6)
	tok := nextToken(t, s)
	if tok.Type != TokenStream || string(tok.Value.([]byte)) != "ABCDEF" {
		t.Fatalf("got %+v", tok)
	}

	rec := recovery.NewLenientStrategy()
	s = newScanner("stream\nABCDEF\nendstream", Config{Recovery: rec})
	s.SetNextStreamLength(3)
	tok = nextToken(t, s)
	if string(tok.Value.([]byte)) != "ABCDEF" {
		t.Fatalf("fallback search failed: %q", tok.Value)
	}
	if len(rec.Errors()) != 1 {
		t.Fatalf("expected the bad length to be reported")
	}

	s = newScanner("stream\nAB\nendstream", Config{Recovery: recovery.NewStrictStrategy()})
	s.SetNextStreamLength(10)
	if _, err := s.Next(); err == nil {
		t.Fatalf("strict strategy should reject bad length")
	}
}

func TestScanner_InlineImage(t *testing.T) {
	s := newScanner("BI /W 2 /H 1 /BPC 8 /CS /G ID \x00\xffEIx\nEI Q", Config{ContentStream: true})
	var img []byte
	var after string
	for {
		tok, err := s.Next()
		if err != nil {
			break
		}
		if tok.Type == TokenInlineImage {
			img = tok.Value.([]byte)
			after = nextToken(t, s).Keyword()
		}
	}
	if string(img) != "\x00\xffEIx" {
		t.Fatalf("payload %q", img)
	}
	if after != "Q" {
		t.Fatalf("expected Q after image, got %q", after)
	}
}

func TestScanner_UnterminatedLiteral(t *testing.T) {
	if _, err := newScanner("(abc", Config{}).Next(); err == nil {
		t.Fatalf("expected error without recovery")
	}
	tok, err := newScanner("(abc", Config{Recovery: recovery.NewLenientStrategy()}).Next()
	if err != nil || string(tok.Value.([]byte)) != "abc" {
		t.Fatalf("lenient: %+v %v", tok, err)
	}
}
