// Package decoded is the second pipeline stage: every stream with its filters applied.
package decoded

import (
	"context"

	"github.com/wudi/pdfview/ir/raw"
)

// Stream is a stream after filter decoding. ImageFilter names an image codec
// (DCTDecode, JPXDecode, ...) still to be applied to Data.
type Stream struct {
	Ref         raw.ObjectRef
	Dict        *raw.DictObj
	Data        []byte
	Filters     []string
	ImageFilter string
}

// DecodedDocument contains decoded streams plus a back-reference to the raw doc.
// Streams that failed to decode are listed in Failures instead of Streams.
type DecodedDocument struct {
	Raw      *raw.Document
	Streams  map[raw.ObjectRef]*Stream
	Failures map[raw.ObjectRef]error
}

// Stream returns the decoded stream behind obj when obj is (a reference to) a stream.
func (d *DecodedDocument) Stream(obj raw.Object) (*Stream, bool) {
	ref, ok := obj.(raw.RefObj)
	if !ok {
		return nil, false
	}
	for i := 0; i < 8; i++ {
		if s, ok := d.Streams[ref.R]; ok {
			return s, true
		}
		next, ok := d.Raw.Objects[ref.R].(raw.RefObj)
		if !ok {
			return nil, false
		}
		ref = next
	}
	return nil, false
}

// Failure returns the decode error recorded for the stream behind obj.
func (d *DecodedDocument) Failure(obj raw.Object) error {
	if ref, ok := obj.(raw.RefObj); ok {
		return d.Failures[ref.R]
	}
	return nil
}

// Decoder transforms Raw IR into Decoded IR.
type Decoder interface {
	Decode(ctx context.Context, rawDoc *raw.Document) (*DecodedDocument, error)
}
