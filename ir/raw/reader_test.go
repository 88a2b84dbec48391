package raw

import (
	"bytes"
	"context"
	"testing"

	"github.com/wudi/pdfview/scanner"
)

func TestScanParserFindsObjectsAndStreams(t *testing.T) {
	src := "%PDF-1.4\n" +
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
		"2 0 obj\n<< /Length 5 /Kids [3 0 R] >>\nstream\nhello\nendstream\nendobj\n" +
		"3 0 obj\n<48656C6C6F>\nendobj\n" +
		"trailer\n<< /Root 1 0 R /Size 4 >>\n"

	doc, err := ScanParser{}.Parse(context.Background(), bytes.NewReader([]byte(src)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Objects) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(doc.Objects))
	}
	st, ok := doc.Objects[ObjectRef{Num: 2}].(*StreamObj)
	if !ok || string(st.Data) != "hello" {
		t.Fatalf("expected stream payload, got %#v", doc.Objects[ObjectRef{Num: 2}])
	}
	if hs, ok := doc.Objects[ObjectRef{Num: 3}].(HexStringObj); !ok || string(hs.Bytes) != "Hello" {
		t.Fatalf("expected hex string, got %#v", doc.Objects[ObjectRef{Num: 3}])
	}
	root, ok := doc.Dict(doc.Trailer.KV["Root"])
	if !ok {
		t.Fatalf("trailer root did not resolve")
	}
	if name, _ := root.Name("Type"); name != "Catalog" {
		t.Fatalf("unexpected root %v", root.KV)
	}
}

func TestResolveStopsOnCycles(t *testing.T) {
	doc := &Document{Objects: map[ObjectRef]Object{
		{Num: 1}: Ref(2, 0),
		{Num: 2}: Ref(1, 0),
	}}
	if _, ok := doc.Resolve(Ref(1, 0)).(NullObj); !ok {
		t.Fatalf("cycle should resolve to null")
	}
	if _, ok := doc.Resolve(Ref(9, 0)).(NullObj); !ok {
		t.Fatalf("dangling ref should resolve to null")
	}
}

func TestParseObjectNested(t *testing.T) {
	tr := NewTokenReader(scanner.New([]byte("<< /A [1 2.5 (x) << /B null >>] /C true >>"), scanner.Config{}))
	obj, err := tr.ParseObject()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d := obj.(*DictObj)
	arr := d.KV["A"].(*ArrayObj)
	if arr.Len() != 4 {
		t.Fatalf("expected 4 items, got %d", arr.Len())
	}
	if f, _ := Float(arr.Items[1]); f != 2.5 {
		t.Fatalf("expected 2.5, got %v", arr.Items[1])
	}
	if b, ok := StringBytes(arr.Items[2]); !ok || string(b) != "x" {
		t.Fatalf("expected string x")
	}
	if _, ok := d.KV["C"].(BoolObj); !ok {
		t.Fatalf("expected bool")
	}
}
