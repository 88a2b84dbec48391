// Package filters implements the PDF stream filters a viewer needs to read page content.
package filters

import (
	"bytes"
	"compress/flate"
	"compress/lzw"
	"compress/zlib"
	"context"
	stdascii85 "encoding/ascii85"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wudi/pdfview/ir/raw"
)

var ErrSizeLimit = errors.New("decompressed size exceeds limit")

type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte, params *raw.DictObj) ([]byte, error)
}

type Limits struct {
	MaxDecompressedSize int64
	MaxDecodeTime       time.Duration
}

type Pipeline struct {
	decoders map[string]Decoder
	limits   Limits
}

// NewPipeline constructs a pipeline with provided decoders and limits.
func NewPipeline(decoders []Decoder, limits Limits) *Pipeline {
	p := &Pipeline{decoders: make(map[string]Decoder, len(decoders)), limits: limits}
	for _, d := range decoders {
		p.decoders[d.Name()] = d
	}
	return p
}

// NewDefaultPipeline registers every decoder in this package.
func NewDefaultPipeline(limits Limits) *Pipeline {
	return NewPipeline([]Decoder{
		NewFlateDecoder(limits.MaxDecompressedSize),
		NewLZWDecoder(limits.MaxDecompressedSize),
		NewASCII85Decoder(),
		NewASCIIHexDecoder(),
		NewRunLengthDecoder(),
	}, limits)
}

// abbreviations allowed in inline image dictionaries
var abbreviations = map[string]string{
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"LZW": "LZWDecode",
	"Fl":  "FlateDecode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

// Canonical expands inline-image filter abbreviations.
func Canonical(name string) string {
	if full, ok := abbreviations[name]; ok {
		return full
	}
	return name
}

// IsImageFilter reports whether name produces an encoded image rather than samples.
func IsImageFilter(name string) bool {
	switch Canonical(name) {
	case "DCTDecode", "JPXDecode", "CCITTFaxDecode", "JBIG2Decode":
		return true
	}
	return false
}

// Decode runs the named filters in order. It stops before the first image filter and
// returns that filter's name so the caller can hand the payload to an image codec.
func (p *Pipeline) Decode(ctx context.Context, input []byte, names []string, params []*raw.DictObj) ([]byte, string, error) {
	if p.limits.MaxDecodeTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.limits.MaxDecodeTime)
		defer cancel()
	}
	data := input
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		name = Canonical(name)
		if IsImageFilter(name) {
			return data, name, nil
		}
		dec, ok := p.decoders[name]
		if !ok {
			return nil, "", fmt.Errorf("unknown filter: %s", name)
		}
		var param *raw.DictObj
		if i < len(params) {
			param = params[i]
		}
		out, err := dec.Decode(ctx, data, param)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", name, err)
		}
		if p.limits.MaxDecompressedSize > 0 && int64(len(out)) > p.limits.MaxDecompressedSize {
			return nil, "", ErrSizeLimit
		}
		data = out
	}
	return data, "", nil
}

type flateDecoder struct{ max int64 }

func (flateDecoder) Name() string { return "FlateDecode" }

// NewFlateDecoder returns a FlateDecode decoder; max <= 0 disables the output cap.
func NewFlateDecoder(max int64) Decoder { return flateDecoder{max: max} }

func (d flateDecoder) Decode(ctx context.Context, in []byte, params *raw.DictObj) ([]byte, error) {
	var rc io.ReadCloser
	zr, err := zlib.NewReader(bytes.NewReader(in))
	if err == nil {
		rc = zr
	} else {
		// some producers omit the zlib header
		rc = flate.NewReader(bytes.NewReader(in))
	}
	defer rc.Close()
	out, err := readCapped(rc, d.max)
	if err != nil && len(out) == 0 {
		return nil, err
	}
	// a truncated deflate tail still yields usable content
	return applyPredictor(out, params)
}

type lzwDecoder struct{ max int64 }

func (lzwDecoder) Name() string { return "LZWDecode" }

func NewLZWDecoder(max int64) Decoder { return lzwDecoder{max: max} }

func (d lzwDecoder) Decode(ctx context.Context, in []byte, params *raw.DictObj) ([]byte, error) {
	if ec, ok := params.Int("EarlyChange"); ok && ec == 0 {
		return nil, errors.New("LZW EarlyChange 0 not supported")
	}
	r := lzw.NewReader(bytes.NewReader(in), lzw.MSB, 8)
	defer r.Close()
	out, err := readCapped(r, d.max)
	if err != nil && len(out) == 0 {
		return nil, err
	}
	return applyPredictor(out, params)
}

type ascii85Decoder struct{}

func (ascii85Decoder) Name() string { return "ASCII85Decode" }

func NewASCII85Decoder() Decoder { return ascii85Decoder{} }

func (ascii85Decoder) Decode(ctx context.Context, in []byte, params *raw.DictObj) ([]byte, error) {
	trimmed := bytes.TrimSpace(in)
	trimmed = bytes.TrimPrefix(trimmed, []byte("<~"))
	if i := bytes.Index(trimmed, []byte("~>")); i >= 0 {
		trimmed = trimmed[:i]
	}
	out := make([]byte, 4*len(trimmed)/5+4+4*bytes.Count(trimmed, []byte("z")))
	n, _, err := stdascii85.Decode(out, trimmed, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

type asciiHexDecoder struct{}

func (asciiHexDecoder) Name() string { return "ASCIIHexDecode" }

func NewASCIIHexDecoder() Decoder { return asciiHexDecoder{} }

func (asciiHexDecoder) Decode(ctx context.Context, in []byte, params *raw.DictObj) ([]byte, error) {
	out := make([]byte, 0, len(in)/2)
	var hi byte
	half := false
	for _, c := range in {
		if c == '>' {
			break
		}
		v, ok := hexValue(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

type runLengthDecoder struct{}

func (runLengthDecoder) Name() string { return "RunLengthDecode" }

func NewRunLengthDecoder() Decoder { return runLengthDecoder{} }

func (runLengthDecoder) Decode(ctx context.Context, in []byte, params *raw.DictObj) ([]byte, error) {
	var out []byte
	for i := 0; i < len(in); {
		n := int(in[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(in) {
				end = len(in)
			}
			out = append(out, in[i:end]...)
			i = end
		default:
			if i >= len(in) {
				return out, nil
			}
			for k := 0; k < 257-n; k++ {
				out = append(out, in[i])
			}
			i++
		}
	}
	return out, nil
}

func readCapped(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, max+1))
	if int64(len(out)) > max {
		return nil, ErrSizeLimit
	}
	return out, err
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
