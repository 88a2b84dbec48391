package decoded

import (
	"bytes"
	"compress/zlib"
	"context"
	"testing"

	"github.com/wudi/pdfview/ir/raw"
)

func TestDecoderDecodesAndRecordsFailures(t *testing.T) {
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	w.Write([]byte("BT ET"))
	w.Close()

	good := raw.Dict()
	good.Set("Filter", raw.NameLiteral("FlateDecode"))
	bad := raw.Dict()
	bad.Set("Filter", raw.NameLiteral("NoSuchDecode"))
	img := raw.Dict()
	img.Set("Filter", raw.NameLiteral("DCTDecode"))

	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{
		{Num: 1}: raw.NewStream(good, z.Bytes()),
		{Num: 2}: raw.NewStream(bad, []byte("x")),
		{Num: 3}: raw.NewStream(img, []byte{0xff, 0xd8}),
		{Num: 4}: raw.Dict(),
	}}

	dec, err := NewDecoder(nil, nil).Decode(context.Background(), doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, ok := dec.Stream(raw.Ref(1, 0))
	if !ok || string(s.Data) != "BT ET" {
		t.Fatalf("stream 1: %+v", s)
	}
	if dec.Failure(raw.Ref(2, 0)) == nil {
		t.Fatalf("expected failure for stream 2")
	}
	if s, _ := dec.Stream(raw.Ref(3, 0)); s == nil || s.ImageFilter != "DCTDecode" {
		t.Fatalf("stream 3: %+v", s)
	}
}

func TestDecoderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{
		{Num: 1}: raw.NewStream(raw.Dict(), []byte("x")),
	}}
	if _, err := NewDecoder(nil, nil).Decode(ctx, doc); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
