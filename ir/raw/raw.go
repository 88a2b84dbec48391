// Package raw holds the undecoded PDF object graph: the first stage of the Raw -> Decoded -> Semantic pipeline.
package raw

import (
	"context"
	"fmt"
	"io"
)

// ObjectRef uniquely identifies an indirect PDF object.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the base interface for all raw PDF objects.
type Object interface {
	Type() string
	IsIndirect() bool
}

// Dictionary is implemented by dictionaries and by streams (through their dictionary).
type Dictionary interface {
	Object
	Get(key string) (Object, bool)
	Keys() []string
	Len() int
}

// Number represents a PDF numeric value.
type Number interface {
	Object
	Int() int64
	Float() float64
	IsInteger() bool
}

// DocumentMetadata contains the Info dictionary fields a viewer displays.
type DocumentMetadata struct {
	Producer string
	Creator  string
	Title    string
	Author   string
	Subject  string
}

// Document is the root container for raw PDF objects.
type Document struct {
	Objects   map[ObjectRef]Object
	Trailer   *DictObj
	Version   string // e.g. "1.7"
	Metadata  DocumentMetadata
	Encrypted bool
}

// Parser converts bytes into a raw.Document.
type Parser interface {
	Parse(ctx context.Context, r io.ReaderAt) (*Document, error)
}

// Resolve follows references until a direct object is reached. Cycles and dangling references yield NullObj.
func (d *Document) Resolve(obj Object) Object {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(RefObj)
		if !ok {
			return obj
		}
		next, ok := d.Objects[ref.R]
		if !ok {
			return NullObj{}
		}
		obj = next
	}
	return NullObj{}
}

// Dict resolves obj to a dictionary, unwrapping streams.
func (d *Document) Dict(obj Object) (*DictObj, bool) {
	switch v := d.Resolve(obj).(type) {
	case *DictObj:
		return v, true
	case *StreamObj:
		return v.Dict, true
	}
	return nil, false
}

// Lookup resolves dict[key].
func (d *Document) Lookup(dict *DictObj, key string) (Object, bool) {
	if dict == nil {
		return nil, false
	}
	v, ok := dict.Get(key)
	if !ok {
		return nil, false
	}
	v = d.Resolve(v)
	if _, null := v.(NullObj); null {
		return nil, false
	}
	return v, true
}
