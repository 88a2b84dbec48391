package semantic

import (
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/observability"
)

func (r *resolver) font(obj raw.Object) *Font {
	ref, isRef := refOf(obj)
	if isRef {
		if cached, ok := r.fonts[ref]; ok {
			return cached
		}
	}
	dict, ok := r.dict(obj)
	if !ok {
		return nil
	}
	f := &Font{
		Subtype:  r.name(dict, "Subtype"),
		BaseFont: r.name(dict, "BaseFont"),
		Ref:      ref,
	}
	if isRef {
		r.fonts[ref] = f
	}
	if f.Subtype == "" {
		f.Subtype = "Type1"
	}

	switch enc := r.resolve(lookupOrNil(dict, "Encoding")).(type) {
	case raw.NameObj:
		f.Encoding = enc.Value()
	case *raw.DictObj:
		f.EncodingDict = r.encodingDict(enc)
	case *raw.StreamObj:
		// Embedded CMap (Type0).
		if data, _, err := r.streamData(lookupOrNil(dict, "Encoding")); err == nil {
			f.EncodingCMap = data
		}
		if name := r.name(enc.Dict, "CMapName"); name != "" {
			f.Encoding = name
		}
	}

	if tu, ok := dict.Get("ToUnicode"); ok {
		data, _, err := r.streamData(tu)
		if err != nil {
			r.logger.Warn("font ToUnicode unavailable",
				observability.String("font", f.BaseFont),
				observability.Error("error", err))
		} else {
			f.ToUnicodeCMap = data
		}
	}

	if fc, ok := r.number(dict, "FirstChar"); ok {
		f.FirstChar = int(fc)
	}
	if widths, ok := r.array(lookupOrNil(dict, "Widths")); ok {
		f.Widths = make(map[int]float64, len(widths.Items))
		for i, w := range widths.Items {
			if v, ok := raw.Float(r.resolve(w)); ok {
				f.Widths[f.FirstChar+i] = v
			}
		}
	}
	if fd, ok := r.dict(lookupOrNil(dict, "FontDescriptor")); ok {
		f.Descriptor = r.fontDescriptor(fd)
	}
	if f.Subtype == "Type3" {
		f.FontMatrix = r.numbers(lookupOrNil(dict, "FontMatrix"))
	}
	if f.Subtype == "Type0" {
		if desc, ok := r.array(lookupOrNil(dict, "DescendantFonts")); ok && len(desc.Items) > 0 {
			if cd, ok := r.dict(desc.Items[0]); ok {
				f.DescendantFont = r.cidFont(cd)
			}
		}
	}
	return f
}

func (r *resolver) encodingDict(d *raw.DictObj) *EncodingDict {
	ed := &EncodingDict{BaseEncoding: r.name(d, "BaseEncoding")}
	diffs, ok := r.array(lookupOrNil(d, "Differences"))
	if !ok {
		return ed
	}
	code := 0
	for _, it := range diffs.Items {
		switch v := r.resolve(it).(type) {
		case raw.NumberObj:
			code = int(v.Int())
		case raw.NameObj:
			ed.Differences = append(ed.Differences, EncodingDifference{Code: code, Name: v.Value()})
			code++
		}
	}
	return ed
}

func (r *resolver) fontDescriptor(d *raw.DictObj) *FontDescriptor {
	fd := &FontDescriptor{FontName: r.name(d, "FontName")}
	if v, ok := r.number(d, "Flags"); ok {
		fd.Flags = int(v)
	}
	fd.ItalicAngle, _ = r.number(d, "ItalicAngle")
	fd.Ascent, _ = r.number(d, "Ascent")
	fd.Descent, _ = r.number(d, "Descent")
	fd.CapHeight, _ = r.number(d, "CapHeight")
	fd.MissingWidth, _ = r.number(d, "MissingWidth")
	for _, key := range []string{"FontFile2", "FontFile3", "FontFile"} {
		obj, ok := d.Get(key)
		if !ok {
			continue
		}
		data, _, err := r.streamData(obj)
		if err != nil {
			r.logger.Warn("embedded font unavailable",
				observability.String("font", fd.FontName),
				observability.Error("error", err))
			continue
		}
		fd.FontFile = data
		fd.FontFileType = key
		if sd, ok := r.dict(obj); ok {
			fd.FontFileSubtype = r.name(sd, "Subtype")
		}
		break
	}
	return fd
}

func (r *resolver) cidFont(d *raw.DictObj) *CIDFont {
	cf := &CIDFont{
		Subtype:  r.name(d, "Subtype"),
		BaseFont: r.name(d, "BaseFont"),
		DW:       1000,
	}
	if dw, ok := r.number(d, "DW"); ok {
		cf.DW = dw
	}
	if fd, ok := r.dict(lookupOrNil(d, "FontDescriptor")); ok {
		cf.Descriptor = r.fontDescriptor(fd)
	}
	switch m := r.resolve(lookupOrNil(d, "CIDToGIDMap")).(type) {
	case raw.NameObj:
		cf.CIDToGIDMapName = m.Value()
	case *raw.StreamObj:
		if data, _, err := r.streamData(lookupOrNil(d, "CIDToGIDMap")); err == nil {
			cf.CIDToGIDMap = data
		}
	}
	if w, ok := r.array(lookupOrNil(d, "W")); ok {
		cf.W = r.cidWidths(w)
	}
	return cf
}

// cidWidths expands the W array: "c [w1 w2 ...]" and "cFirst cLast w" forms.
func (r *resolver) cidWidths(arr *raw.ArrayObj) map[int]float64 {
	out := make(map[int]float64)
	items := arr.Items
	for i := 0; i < len(items); {
		first, ok := raw.Float(r.resolve(items[i]))
		if !ok || i+1 >= len(items) {
			break
		}
		next := r.resolve(items[i+1])
		if list, ok := next.(*raw.ArrayObj); ok {
			for j, w := range list.Items {
				if v, ok := raw.Float(r.resolve(w)); ok {
					out[int(first)+j] = v
				}
			}
			i += 2
			continue
		}
		last, ok := raw.Float(next)
		if !ok || i+2 >= len(items) {
			break
		}
		w, _ := raw.Float(r.resolve(items[i+2]))
		if last-first > 65535 {
			last = first + 65535
		}
		for c := int(first); c <= int(last); c++ {
			out[c] = w
		}
		i += 3
	}
	return out
}
