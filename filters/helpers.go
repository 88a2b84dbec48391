package filters

import "github.com/wudi/pdfview/ir/raw"

// ExtractFilters reads Filter and DecodeParms from a stream dictionary, following references through resolve.
func ExtractFilters(dict *raw.DictObj, resolve func(raw.Object) raw.Object) ([]string, []*raw.DictObj) {
	if resolve == nil {
		resolve = func(o raw.Object) raw.Object { return o }
	}
	var names []string
	var params []*raw.DictObj

	filterObj, ok := dict.Get("Filter")
	if !ok {
		return nil, nil
	}
	switch f := resolve(filterObj).(type) {
	case raw.NameObj:
		names = append(names, f.Val)
	case *raw.ArrayObj:
		for _, item := range f.Items {
			if n, ok := resolve(item).(raw.NameObj); ok {
				names = append(names, n.Val)
			}
		}
	}

	if pObj, ok := dict.Get("DecodeParms"); ok {
		switch p := resolve(pObj).(type) {
		case *raw.DictObj:
			params = append(params, p)
		case *raw.ArrayObj:
			for _, item := range p.Items {
				d, _ := resolve(item).(*raw.DictObj)
				params = append(params, d)
			}
		}
	}
	return names, params
}
