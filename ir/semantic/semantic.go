// Package semantic is the last pipeline stage: pages, resources and fonts as a viewer consumes them.
package semantic

import (
	"context"

	"github.com/wudi/pdfview/ir/decoded"
	"github.com/wudi/pdfview/ir/raw"
)

// Document is the semantic representation of a PDF.
type Document struct {
	Pages   []*Page
	Info    DocumentInfo
	Version string
	decoded *decoded.DecodedDocument
}

// Decoded returns the underlying decoded document (if set).
func (d *Document) Decoded() *decoded.DecodedDocument { return d.decoded }

// DocumentInfo models /Info dictionary values.
type DocumentInfo struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
}

// Page models a single PDF page.
type Page struct {
	Index     int
	MediaBox  Rectangle
	CropBox   Rectangle
	Rotate    int // normalized to 0/90/180/270
	UserUnit  float64
	Resources *Resources
	Contents  []ContentStream
	// ContentErr is set when a content stream could not be decoded; the page still counts.
	ContentErr error
	Ref        raw.ObjectRef
}

// Box is the visible region: the crop box clipped to the media box.
func (p *Page) Box() Rectangle {
	box := p.MediaBox.Normalize()
	crop := p.CropBox.Normalize()
	if crop.Width() <= 0 || crop.Height() <= 0 {
		return box
	}
	r := Rectangle{
		LLX: max(box.LLX, crop.LLX),
		LLY: max(box.LLY, crop.LLY),
		URX: min(box.URX, crop.URX),
		URY: min(box.URY, crop.URY),
	}
	if r.Width() <= 0 || r.Height() <= 0 {
		return box
	}
	return r
}

// Content concatenates the page's content streams, separated by whitespace.
func (p *Page) Content() []byte {
	if len(p.Contents) == 1 {
		return p.Contents[0].RawBytes
	}
	var out []byte
	for _, c := range p.Contents {
		out = append(out, c.RawBytes...)
		out = append(out, '\n')
	}
	return out
}

// ContentStream is one decoded content stream of a page.
type ContentStream struct {
	RawBytes []byte
}

// Operation represents a PDF operator and operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// Operand is a type-safe operand value.
type Operand interface {
	operand()
	Type() string
}

type NumberOperand struct{ Value float64 }

func (NumberOperand) operand()     {}
func (NumberOperand) Type() string { return "number" }

type NameOperand struct{ Value string }

func (NameOperand) operand()     {}
func (NameOperand) Type() string { return "name" }

type StringOperand struct{ Value []byte }

func (StringOperand) operand()     {}
func (StringOperand) Type() string { return "string" }

type BoolOperand struct{ Value bool }

func (BoolOperand) operand()     {}
func (BoolOperand) Type() string { return "boolean" }

type ArrayOperand struct{ Values []Operand }

func (ArrayOperand) operand()     {}
func (ArrayOperand) Type() string { return "array" }

type DictOperand struct{ Values map[string]Operand }

func (DictOperand) operand()     {}
func (DictOperand) Type() string { return "dict" }

type InlineImageOperand struct {
	Image DictOperand
	Data  []byte
}

func (InlineImageOperand) operand()     {}
func (InlineImageOperand) Type() string { return "inline_image" }

// Resources holds the named resources a content stream can reference.
type Resources struct {
	Fonts       map[string]*Font
	XObjects    map[string]*XObject
	ExtGStates  map[string]ExtGState
	ColorSpaces map[string]ColorSpace
}

// Font represents a font resource.
type Font struct {
	Subtype        string // Type1 (default), TrueType, Type0, Type3
	BaseFont       string
	Encoding       string // predefined encoding or CMap name
	EncodingDict   *EncodingDict
	EncodingCMap   []byte // embedded CMap stream (Type0)
	ToUnicodeCMap  []byte
	FirstChar      int
	Widths         map[int]float64 // character code -> width in glyph space (1/1000 em)
	DescendantFont *CIDFont
	Descriptor     *FontDescriptor
	FontMatrix     []float64 // Type3
	Ref            raw.ObjectRef
}

// EncodingDict represents a custom encoding dictionary.
type EncodingDict struct {
	BaseEncoding string
	Differences  []EncodingDifference
}

// EncodingDifference represents a difference in encoding.
type EncodingDifference struct {
	Code int
	Name string
}

// CIDFont describes a descendant font for Type0 fonts.
type CIDFont struct {
	Subtype         string // CIDFontType0 or CIDFontType2
	BaseFont        string
	DW              float64
	W               map[int]float64 // CID -> width
	CIDToGIDMap     []byte          // big-endian uint16 per CID
	CIDToGIDMapName string          // "Identity" or ""
	Descriptor      *FontDescriptor
}

// FontDescriptor carries metrics and the embedded font program.
type FontDescriptor struct {
	FontName        string
	Flags           int
	ItalicAngle     float64
	Ascent          float64
	Descent         float64
	CapHeight       float64
	MissingWidth    float64
	FontFile        []byte
	FontFileType    string // FontFile, FontFile2 or FontFile3
	FontFileSubtype string // FontFile3 /Subtype (Type1C, CIDFontType0C, OpenType)
}

// Symbolic reports the descriptor's symbolic flag (bit 3).
func (d *FontDescriptor) Symbolic() bool { return d != nil && d.Flags&4 != 0 }

// ExtGState captures the graphics state parameters a viewer honors.
type ExtGState struct {
	LineWidth   *float64
	StrokeAlpha *float64
	FillAlpha   *float64
}

// XObject is an Image or Form external object.
type XObject struct {
	Subtype string // Image or Form

	// Form
	BBox      Rectangle
	Matrix    []float64
	Resources *Resources
	Content   []byte

	// Image
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       ColorSpace
	ImageMask        bool
	Decode           []float64
	Data             []byte
	ImageFilter      string // codec still to apply to Data, e.g. DCTDecode
	SMask            *XObject

	Ref raw.ObjectRef
	Err error // decode failure; the object is skipped when painting
}

// ColorSpace references a named colorspace.
type ColorSpace interface {
	ColorSpaceName() string
	Components() int
}

type DeviceColorSpace struct {
	Name string // DeviceGray, DeviceRGB, DeviceCMYK
}

func (cs DeviceColorSpace) ColorSpaceName() string { return cs.Name }
func (cs DeviceColorSpace) Components() int {
	switch cs.Name {
	case "DeviceRGB", "RGB", "CalRGB", "Lab":
		return 3
	case "DeviceCMYK", "CMYK":
		return 4
	}
	return 1
}

// ICCBasedColorSpace is approximated by its component count.
type ICCBasedColorSpace struct {
	N         int
	Alternate ColorSpace
}

func (cs *ICCBasedColorSpace) ColorSpaceName() string { return "ICCBased" }
func (cs *ICCBasedColorSpace) Components() int        { return cs.N }

type IndexedColorSpace struct {
	Base   ColorSpace
	HiVal  int
	Lookup []byte
}

func (cs *IndexedColorSpace) ColorSpaceName() string { return "Indexed" }
func (cs *IndexedColorSpace) Components() int        { return 1 }

// SeparationColorSpace is painted as a gray tint; tint transforms are not evaluated.
type SeparationColorSpace struct {
	Name string
	N    int
}

func (cs *SeparationColorSpace) ColorSpaceName() string { return "Separation" }
func (cs *SeparationColorSpace) Components() int {
	if cs.N > 0 {
		return cs.N
	}
	return 1
}

type PatternColorSpace struct{}

func (PatternColorSpace) ColorSpaceName() string { return "Pattern" }
func (PatternColorSpace) Components() int        { return 1 }

// Rectangle represents a PDF rectangle.
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

func (r Rectangle) Width() float64  { return r.URX - r.LLX }
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Normalize orders the corners so LL is the lower-left.
func (r Rectangle) Normalize() Rectangle {
	if r.LLX > r.URX {
		r.LLX, r.URX = r.URX, r.LLX
	}
	if r.LLY > r.URY {
		r.LLY, r.URY = r.URY, r.LLY
	}
	return r
}

// Builder transforms Decoded IR into Semantic IR.
type Builder interface {
	Build(ctx context.Context, dec *decoded.DecodedDocument) (*Document, error)
}
