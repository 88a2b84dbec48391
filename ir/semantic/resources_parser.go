package semantic

import (
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/observability"
)

// maxFormDepth bounds nested Form XObject resource parsing.
const maxFormDepth = 12

func (r *resolver) resources(obj raw.Object, depth int) *Resources {
	ref, isRef := refOf(obj)
	if isRef {
		if cached, ok := r.res[ref]; ok {
			return cached
		}
	}
	dict, ok := r.dict(obj)
	if !ok {
		return nil
	}
	res := &Resources{
		Fonts:       make(map[string]*Font),
		XObjects:    make(map[string]*XObject),
		ExtGStates:  make(map[string]ExtGState),
		ColorSpaces: make(map[string]ColorSpace),
	}
	if isRef {
		// Registered before children so self-referencing forms terminate.
		r.res[ref] = res
	}

	if fonts, ok := r.dict(lookupOrNil(dict, "Font")); ok {
		for _, name := range fonts.Keys() {
			v, _ := fonts.Get(name)
			if f := r.font(v); f != nil {
				res.Fonts[name] = f
			}
		}
	}
	if gs, ok := r.dict(lookupOrNil(dict, "ExtGState")); ok {
		for _, name := range gs.Keys() {
			v, _ := gs.Get(name)
			if d, ok := r.dict(v); ok {
				res.ExtGStates[name] = r.extGState(d)
			}
		}
	}
	if cs, ok := r.dict(lookupOrNil(dict, "ColorSpace")); ok {
		for _, name := range cs.Keys() {
			v, _ := cs.Get(name)
			if c := r.colorSpace(v, 0); c != nil {
				res.ColorSpaces[name] = c
			}
		}
	}
	if xo, ok := r.dict(lookupOrNil(dict, "XObject")); ok {
		for _, name := range xo.Keys() {
			v, _ := xo.Get(name)
			if x := r.xobject(v, depth); x != nil {
				res.XObjects[name] = x
			}
		}
	}
	return res
}

func (r *resolver) extGState(d *raw.DictObj) ExtGState {
	var gs ExtGState
	if v, ok := r.number(d, "LW"); ok {
		gs.LineWidth = &v
	}
	if v, ok := r.number(d, "CA"); ok {
		gs.StrokeAlpha = &v
	}
	if v, ok := r.number(d, "ca"); ok {
		gs.FillAlpha = &v
	}
	return gs
}

func (r *resolver) colorSpace(obj raw.Object, depth int) ColorSpace {
	if depth > 4 {
		return nil
	}
	switch v := r.resolve(obj).(type) {
	case raw.NameObj:
		switch v.Value() {
		case "DeviceGray", "G", "CalGray":
			return DeviceColorSpace{Name: "DeviceGray"}
		case "DeviceRGB", "RGB", "CalRGB", "Lab":
			return DeviceColorSpace{Name: "DeviceRGB"}
		case "DeviceCMYK", "CMYK":
			return DeviceColorSpace{Name: "DeviceCMYK"}
		case "Pattern":
			return PatternColorSpace{}
		}
	case *raw.ArrayObj:
		if len(v.Items) == 0 {
			return nil
		}
		family, _ := r.resolve(v.Items[0]).(raw.NameObj)
		switch family.Value() {
		case "ICCBased":
			if len(v.Items) < 2 {
				return nil
			}
			d, _ := r.dict(v.Items[1])
			n, _ := r.number(d, "N")
			cs := &ICCBasedColorSpace{N: int(n)}
			if alt, ok := d.Get("Alternate"); ok {
				cs.Alternate = r.colorSpace(alt, depth+1)
			}
			if cs.N == 0 {
				cs.N = 3
			}
			return cs
		case "Indexed", "I":
			if len(v.Items) < 4 {
				return nil
			}
			cs := &IndexedColorSpace{Base: r.colorSpace(v.Items[1], depth+1)}
			if hi, ok := raw.Float(r.resolve(v.Items[2])); ok {
				cs.HiVal = int(hi)
			}
			lookup := r.resolve(v.Items[3])
			if b, ok := raw.StringBytes(lookup); ok {
				cs.Lookup = b
			} else if data, _, err := r.streamData(v.Items[3]); err == nil {
				cs.Lookup = data
			}
			if cs.Base == nil {
				cs.Base = DeviceColorSpace{Name: "DeviceRGB"}
			}
			return cs
		case "Separation":
			return &SeparationColorSpace{Name: "Separation", N: 1}
		case "DeviceN":
			n := 1
			if len(v.Items) > 1 {
				if names, ok := r.array(v.Items[1]); ok {
					n = len(names.Items)
				}
			}
			return &SeparationColorSpace{Name: "DeviceN", N: n}
		case "Pattern":
			return PatternColorSpace{}
		case "CalRGB", "Lab":
			return DeviceColorSpace{Name: "DeviceRGB"}
		case "CalGray":
			return DeviceColorSpace{Name: "DeviceGray"}
		}
	}
	return nil
}

func (r *resolver) xobject(obj raw.Object, depth int) *XObject {
	ref, isRef := refOf(obj)
	if isRef {
		if cached, ok := r.xobjs[ref]; ok {
			return cached
		}
	}
	dict, ok := r.dict(obj)
	if !ok {
		return nil
	}
	x := &XObject{Subtype: r.name(dict, "Subtype"), Ref: ref}
	if isRef {
		r.xobjs[ref] = x
	}
	data, stream, err := r.streamData(obj)
	if err != nil {
		r.logger.Warn("xobject stream unavailable",
			observability.String("ref", ref.String()),
			observability.Error("error", err))
		x.Err = err
	}

	switch x.Subtype {
	case "Form":
		x.Content = data
		if bbox := r.rect(dict, "BBox"); bbox != nil {
			x.BBox = *bbox
		}
		if m := r.numbers(lookupOrNil(dict, "Matrix")); len(m) == 6 {
			x.Matrix = m
		}
		if res, ok := dict.Get("Resources"); ok && depth < maxFormDepth {
			x.Resources = r.resources(res, depth+1)
		}
	case "Image":
		x.Data = data
		if stream != nil {
			x.ImageFilter = stream.ImageFilter
		}
		w, _ := r.number(dict, "Width")
		h, _ := r.number(dict, "Height")
		x.Width, x.Height = int(w), int(h)
		if bpc, ok := r.number(dict, "BitsPerComponent"); ok {
			x.BitsPerComponent = int(bpc)
		}
		if im, ok := r.dec.Raw.Lookup(dict, "ImageMask"); ok {
			if b, ok := im.(raw.BoolObj); ok {
				x.ImageMask = b.Value()
			}
		}
		if x.ImageMask && x.BitsPerComponent == 0 {
			x.BitsPerComponent = 1
		}
		if cs, ok := dict.Get("ColorSpace"); ok {
			x.ColorSpace = r.colorSpace(cs, 0)
		}
		x.Decode = r.numbers(lookupOrNil(dict, "Decode"))
		if sm, ok := dict.Get("SMask"); ok && depth < maxFormDepth {
			x.SMask = r.xobject(sm, depth+1)
		}
	}
	return x
}
