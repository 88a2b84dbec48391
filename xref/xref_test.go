package xref

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"testing"

	"github.com/wudi/pdfview/recovery"
)

func buildSimplePDF() ([]byte, map[int]int64) {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")
	offsets := make(map[int]int64)

	offsets[1] = int64(buf.Len())
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = int64(buf.Len())
	buf.WriteString("2 0 obj\n<< /Type /Pages /Count 0 /Kids [] >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 3\n0000000000 65535 f \n")
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(buf, "%010d 00000 n \n", offsets[i])
	}
	buf.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes(), offsets
}

func TestResolverParsesXRefTable(t *testing.T) {
	pdf, offsets := buildSimplePDF()
	table, err := NewResolver(ResolverConfig{}).Resolve(context.Background(), pdf)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for num, off := range offsets {
		e, ok := table.Lookup(num)
		if !ok || e.Kind != EntryInUse || e.Offset != off {
			t.Fatalf("object %d: got %+v want offset %d", num, e, off)
		}
	}
	if got := table.Objects(); len(got) != 2 {
		t.Fatalf("expected 2 in-use objects, got %v", got)
	}
	if _, ok := table.Trailer.Get("Root"); !ok {
		t.Fatalf("trailer missing Root")
	}
}

func TestResolverFollowsPrevAndPrefersNewest(t *testing.T) {
	pdf, _ := buildSimplePDF()
	buf := bytes.NewBuffer(append([]byte(nil), pdf...))
	firstXref := bytes.LastIndex(pdf, []byte("xref\n0 3"))

	newOff := buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Count 0 /Kids [] /Updated true >>\nendobj\n")
	xrefOff := buf.Len()
	fmt.Fprintf(buf, "xref\n2 1\n%010d 00000 n \n", newOff)
	fmt.Fprintf(buf, "trailer\n<< /Size 3 /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", firstXref, xrefOff)

	table, err := NewResolver(ResolverConfig{}).Resolve(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	e, _ := table.Lookup(2)
	if e.Offset != int64(newOff) {
		t.Fatalf("expected newest offset %d, got %d", newOff, e.Offset)
	}
	if _, ok := table.Lookup(1); !ok {
		t.Fatalf("object from previous section lost")
	}
}

func TestResolverReadsXRefStream(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.5\n")
	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog >>\nendobj\n")

	rows := []byte{
		0, 0, 0, 0xff,
		1, 0, byte(off1), 0,
		2, 0, 7, 3,
	}
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	w.Write(rows)
	w.Close()

	xrefOff := buf.Len()
	fmt.Fprintf(buf, "9 0 obj\n<< /Type /XRef /Size 3 /W [1 2 1] /Root 1 0 R /Filter /FlateDecode /Length %d >>\nstream\n", z.Len())
	buf.Write(z.Bytes())
	fmt.Fprintf(buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefOff)

	table, err := NewResolver(ResolverConfig{}).Resolve(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if e, _ := table.Lookup(1); e.Kind != EntryInUse || e.Offset != int64(off1) {
		t.Fatalf("object 1: %+v", e)
	}
	if e, _ := table.Lookup(2); e.Kind != EntryCompressed || e.Stream != 7 || e.Index != 3 {
		t.Fatalf("object 2: %+v", e)
	}
}

func TestResolverRepairsBrokenOffsets(t *testing.T) {
	pdf, offsets := buildSimplePDF()
	broken := bytes.Replace(pdf, []byte("startxref\n"), []byte("startxref\n9"), 1)

	if _, err := NewResolver(ResolverConfig{}).Resolve(context.Background(), broken); err == nil {
		t.Fatalf("expected failure without recovery")
	}
	table, err := NewResolver(ResolverConfig{Recovery: recovery.NewLenientStrategy()}).Resolve(context.Background(), broken)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !table.Repaired {
		t.Fatalf("expected repaired table")
	}
	for num, off := range offsets {
		if e, _ := table.Lookup(num); e.Offset != off {
			t.Fatalf("object %d: got %d want %d", num, e.Offset, off)
		}
	}
	if _, ok := table.Trailer.Get("Root"); !ok {
		t.Fatalf("repaired trailer missing Root")
	}
}
