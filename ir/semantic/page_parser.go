package semantic

import (
	"context"
	"fmt"

	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/observability"
)

// maxPageTreeDepth bounds Kids recursion.
const maxPageTreeDepth = 64

type inheritedPageProps struct {
	MediaBox  *Rectangle
	CropBox   *Rectangle
	Rotate    *int
	Resources raw.Object
}

type pageWalker struct {
	r     *resolver
	seen  map[raw.ObjectRef]bool
	pages []*Page
}

// walk traverses the page tree depth first, appending leaves in document order.
func (w *pageWalker) walk(ctx context.Context, obj raw.Object, inherited inheritedPageProps, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth > maxPageTreeDepth {
		return fmt.Errorf("page tree deeper than %d", maxPageTreeDepth)
	}
	ref, isRef := refOf(obj)
	if isRef {
		if w.seen[ref] {
			w.r.logger.Warn("page tree cycle", observability.String("ref", ref.String()))
			return nil
		}
		w.seen[ref] = true
	}
	dict, ok := w.r.dict(obj)
	if !ok {
		return nil
	}

	props := inherited
	if mb := w.r.rect(dict, "MediaBox"); mb != nil {
		props.MediaBox = mb
	}
	if cb := w.r.rect(dict, "CropBox"); cb != nil {
		props.CropBox = cb
	}
	if rot, ok := w.r.number(dict, "Rotate"); ok {
		v := int(rot)
		props.Rotate = &v
	}
	if res, ok := dict.Get("Resources"); ok {
		props.Resources = res
	}

	typ := w.r.name(dict, "Type")
	kids, hasKids := w.r.array(lookupOrNil(dict, "Kids"))
	if typ == "Page" || (typ == "" && !hasKids) {
		page := w.r.parsePage(dict, props, ref)
		page.Index = len(w.pages)
		w.pages = append(w.pages, page)
		return nil
	}
	if !hasKids {
		return nil
	}
	for _, kid := range kids.Items {
		if err := w.walk(ctx, kid, props, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) parsePage(dict *raw.DictObj, inherited inheritedPageProps, ref raw.ObjectRef) *Page {
	page := &Page{UserUnit: 1, Ref: ref}

	switch {
	case inherited.MediaBox != nil:
		page.MediaBox = inherited.MediaBox.Normalize()
	default:
		page.MediaBox = Rectangle{0, 0, 612, 792} // Letter
	}
	if inherited.CropBox != nil {
		page.CropBox = inherited.CropBox.Normalize()
	} else {
		page.CropBox = page.MediaBox
	}
	if inherited.Rotate != nil {
		page.Rotate = NormalizeRotation(*inherited.Rotate)
	}
	if u, ok := r.number(dict, "UserUnit"); ok && u > 0 {
		page.UserUnit = u
	}

	if inherited.Resources != nil {
		page.Resources = r.resources(inherited.Resources, 0)
	}
	if page.Resources == nil {
		page.Resources = &Resources{}
	}

	contents, ok := dict.Get("Contents")
	if !ok {
		return page
	}
	var parts []raw.Object
	if arr, ok := r.array(contents); ok {
		parts = arr.Items
	} else {
		parts = []raw.Object{contents}
	}
	for _, part := range parts {
		data, _, err := r.streamData(part)
		if err != nil {
			r.logger.Warn("page content stream unavailable",
				observability.Int("page_object", page.Ref.Num),
				observability.Error("error", err))
			if page.ContentErr == nil {
				page.ContentErr = err
			}
			continue
		}
		page.Contents = append(page.Contents, ContentStream{RawBytes: data})
	}
	return page
}

// NormalizeRotation maps any multiple of 90 into 0, 90, 180 or 270. Other values become 0.
func NormalizeRotation(deg int) int {
	if deg%90 != 0 {
		return 0
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

func (r *resolver) rect(dict *raw.DictObj, key string) *Rectangle {
	v, ok := dict.Get(key)
	if !ok {
		return nil
	}
	nums := r.numbers(v)
	if len(nums) != 4 {
		return nil
	}
	rc := Rectangle{nums[0], nums[1], nums[2], nums[3]}.Normalize()
	return &rc
}
