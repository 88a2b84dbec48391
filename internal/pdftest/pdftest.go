// Package pdftest writes small, valid PDF files for tests.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strings"
)

// Builder accumulates indirect objects and serializes them with a correct xref table.
type Builder struct {
	objs []string
	Info string
}

func New() *Builder { return &Builder{} }

// Reserve allocates an object number to be filled later with Set.
func (b *Builder) Reserve() int {
	b.objs = append(b.objs, "null")
	return len(b.objs)
}

// Add appends an object body and returns its object number.
func (b *Builder) Add(body string) int {
	b.objs = append(b.objs, body)
	return len(b.objs)
}

func (b *Builder) Set(num int, body string) { b.objs[num-1] = body }

// AddStream appends a stream whose dictionary gets /Length filled in.
func (b *Builder) AddStream(dict string, data []byte) int {
	return b.Add(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data))
}

// AddFlateStream compresses data and appends it with /Filter /FlateDecode.
func (b *Builder) AddFlateStream(dict string, data []byte) int {
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	w.Write(data)
	w.Close()
	return b.AddStream(dict+" /Filter /FlateDecode", z.Bytes())
}

// Bytes serializes the file with root as the catalog object.
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(b.objs))
	for i, body := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	trailer := fmt.Sprintf("/Size %d /Root %d 0 R", len(b.objs)+1, root)
	if b.Info != "" {
		trailer += " " + b.Info
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

// Page describes one page for Document.
type Page struct {
	MediaBox string // defaults to "0 0 612 792"
	Rotate   int
	Content  string
	Extra    string // additional page dictionary entries
}

// Document builds a catalog with the given pages. Every page shares /F1 (Helvetica, WinAnsi) in its resources.
func Document(pages ...Page) []byte {
	b := New()
	catalog := b.Reserve()
	tree := b.Reserve()
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		content := b.AddStream("", []byte(p.Content))
		box := p.MediaBox
		if box == "" {
			box = "0 0 612 792"
		}
		page := b.Add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [%s] /Rotate %d /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R %s >>",
			tree, box, p.Rotate, font, content, p.Extra))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree))
	b.Set(tree, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	return b.Bytes(catalog)
}

// TextPage returns a content stream showing each line with /F1 at size 12, starting at (72, 720).
func TextPage(lines ...string) string {
	var sb strings.Builder
	sb.WriteString("BT /F1 12 Tf 14 TL 72 720 Td\n")
	for i, l := range lines {
		if i > 0 {
			sb.WriteString("T* ")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escape(l))
	}
	sb.WriteString("ET\n")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
