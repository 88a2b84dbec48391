// Package security bounds the resources a parse or render may consume.
package security

import (
	"errors"
	"time"

	"github.com/wudi/pdfview/ir/raw"
)

// ErrEncrypted is returned for documents carrying an /Encrypt dictionary; decryption is not supported.
var ErrEncrypted = errors.New("document is encrypted")

// Limits defines boundaries that keep hostile or broken files from exhausting memory or time.
type Limits struct {
	// Maximum decompressed stream size. Default: 100 MB.
	MaxDecompressedSize int64

	// Maximum XRef chain depth (Prev entries). Default: 50.
	MaxXRefDepth int

	// Maximum Form XObject nesting while interpreting a page. Default: 20.
	MaxXObjectDepth int

	// Maximum string length (bytes). Default: 10 MB.
	MaxStringLength int64

	// Maximum raw stream length (bytes). Default: 50 MB.
	MaxStreamLength int64

	// Maximum decode time per stream. Default: 30s.
	MaxDecodeTime time.Duration

	// Maximum number of indirect objects loaded. Default: 2,000,000.
	MaxObjects int

	// Maximum rasterized page size in pixels. Default: 100 megapixels.
	MaxPixels int64
}

// DefaultLimits returns a Limits struct with safe default values.
func DefaultLimits() Limits {
	return Limits{
		MaxDecompressedSize: 100 * 1024 * 1024,
		MaxXRefDepth:        50,
		MaxXObjectDepth:     20,
		MaxStringLength:     10 * 1024 * 1024,
		MaxStreamLength:     50 * 1024 * 1024,
		MaxDecodeTime:       30 * time.Second,
		MaxObjects:          2_000_000,
		MaxPixels:           100_000_000,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxDecompressedSize == 0 {
		l.MaxDecompressedSize = d.MaxDecompressedSize
	}
	if l.MaxXRefDepth == 0 {
		l.MaxXRefDepth = d.MaxXRefDepth
	}
	if l.MaxXObjectDepth == 0 {
		l.MaxXObjectDepth = d.MaxXObjectDepth
	}
	if l.MaxStringLength == 0 {
		l.MaxStringLength = d.MaxStringLength
	}
	if l.MaxStreamLength == 0 {
		l.MaxStreamLength = d.MaxStreamLength
	}
	if l.MaxDecodeTime == 0 {
		l.MaxDecodeTime = d.MaxDecodeTime
	}
	if l.MaxObjects == 0 {
		l.MaxObjects = d.MaxObjects
	}
	if l.MaxPixels == 0 {
		l.MaxPixels = d.MaxPixels
	}
	return l
}

// CheckEncryption rejects a trailer that declares encryption.
func CheckEncryption(trailer *raw.DictObj) error {
	if trailer == nil {
		return nil
	}
	v, ok := trailer.Get("Encrypt")
	if !ok {
		return nil
	}
	if _, null := v.(raw.NullObj); null {
		return nil
	}
	return ErrEncrypted
}
