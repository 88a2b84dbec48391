package contentstream

import (
	"context"
	"image/color"
	"math"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/filters"
	"github.com/wudi/pdfview/fonts"
	"github.com/wudi/pdfview/ir/raw"
	"github.com/wudi/pdfview/ir/semantic"
	"github.com/wudi/pdfview/observability"
)

// DefaultMaxFormDepth bounds nested Form XObjects.
const DefaultMaxFormDepth = 12

// Interpreter executes content streams against a Device.
type Interpreter struct {
	Device       Device
	Fonts        *fonts.Cache
	Filters      *filters.Pipeline // decodes inline image data; nil leaves it as is
	Logger       observability.Logger
	MaxFormDepth int
}

// RunPage interprets every content stream of page in page (PDF user) space.
func (in *Interpreter) RunPage(ctx context.Context, page *semantic.Page) error {
	ops, err := Parse(page.Content())
	if err != nil {
		observability.OrNop(in.Logger).Warn("content stream truncated",
			observability.Int("page", page.Index+1), observability.Error("error", err))
	}
	return in.Run(ctx, ops, page.Resources, coords.Identity())
}

// Run executes ops with base as the initial CTM.
func (in *Interpreter) Run(ctx context.Context, ops []semantic.Operation, res *semantic.Resources, base coords.Matrix) error {
	if in.Device == nil {
		in.Device = NopDevice{}
	}
	if in.Fonts == nil {
		in.Fonts = fonts.NewCache(in.Logger)
	}
	if in.MaxFormDepth <= 0 {
		in.MaxFormDepth = DefaultMaxFormDepth
	}
	ex := &execution{in: in, logger: observability.OrNop(in.Logger), forms: make(map[*semantic.XObject]bool)}
	gs := newGraphicsState(base)
	return ex.run(ctx, ops, res, &gs, 0)
}

type execution struct {
	in     *Interpreter
	logger observability.Logger
	forms  map[*semantic.XObject]bool // forms on the current Do chain
}

type frame struct {
	gs    *GraphicsState
	stack []GraphicsState
	res   *semantic.Resources

	path    Path
	current *Subpath
	cur     coords.Point // user-space current point
	start   coords.Point

	pendingClip bool

	tm, tlm coords.Matrix
}

func (ex *execution) run(ctx context.Context, ops []semantic.Operation, res *semantic.Resources, gs *GraphicsState, depth int) error {
	if res == nil {
		res = &semantic.Resources{}
	}
	f := &frame{gs: gs, res: res, tm: coords.Identity(), tlm: coords.Identity()}
	for i, op := range ops {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := ex.exec(ctx, f, op, depth); err != nil {
			return err
		}
	}
	return nil
}

func (ex *execution) exec(ctx context.Context, f *frame, op semantic.Operation, depth int) error {
	args := op.Operands
	gs := f.gs
	switch op.Operator {
	// graphics state
	case "q":
		f.stack = append(f.stack, *gs)
	case "Q":
		if n := len(f.stack); n > 0 {
			*gs = f.stack[n-1]
			f.stack = f.stack[:n-1]
		}
	case "cm":
		if m, ok := matrixOf(args); ok {
			gs.CTM = m.Multiply(gs.CTM)
		}
	case "w":
		if v, ok := num(args, 0); ok {
			gs.LineWidth = v
		}
	case "J":
		if v, ok := num(args, 0); ok {
			gs.LineCap = LineCap(v)
		}
	case "j":
		if v, ok := num(args, 0); ok {
			gs.LineJoin = LineJoin(v)
		}
	case "gs":
		if n, ok := name(args, 0); ok {
			if egs, ok := f.res.ExtGStates[n]; ok {
				if egs.LineWidth != nil {
					gs.LineWidth = *egs.LineWidth
				}
				if egs.StrokeAlpha != nil {
					gs.StrokeAlpha = clamp01(*egs.StrokeAlpha)
				}
				if egs.FillAlpha != nil {
					gs.FillAlpha = clamp01(*egs.FillAlpha)
				}
			}
		}

	// color
	case "g":
		gs.fillSpace = semantic.DeviceColorSpace{Name: "DeviceGray"}
		gs.FillColor = ColorOf(gs.fillSpace, nums(args))
	case "G":
		gs.strokeSpace = semantic.DeviceColorSpace{Name: "DeviceGray"}
		gs.StrokeColor = ColorOf(gs.strokeSpace, nums(args))
	case "rg":
		gs.fillSpace = semantic.DeviceColorSpace{Name: "DeviceRGB"}
		gs.FillColor = ColorOf(gs.fillSpace, nums(args))
	case "RG":
		gs.strokeSpace = semantic.DeviceColorSpace{Name: "DeviceRGB"}
		gs.StrokeColor = ColorOf(gs.strokeSpace, nums(args))
	case "k":
		gs.fillSpace = semantic.DeviceColorSpace{Name: "DeviceCMYK"}
		gs.FillColor = ColorOf(gs.fillSpace, nums(args))
	case "K":
		gs.strokeSpace = semantic.DeviceColorSpace{Name: "DeviceCMYK"}
		gs.StrokeColor = ColorOf(gs.strokeSpace, nums(args))
	case "cs":
		gs.fillSpace = f.colorSpace(args)
		gs.FillColor = initialColor(gs.fillSpace)
	case "CS":
		gs.strokeSpace = f.colorSpace(args)
		gs.StrokeColor = initialColor(gs.strokeSpace)
	case "sc", "scn":
		gs.FillColor = ColorOf(gs.fillSpace, nums(args))
	case "SC", "SCN":
		gs.StrokeColor = ColorOf(gs.strokeSpace, nums(args))

	// path construction
	case "m":
		if p, ok := point(args, 0); ok {
			f.moveTo(p)
		}
	case "l":
		if p, ok := point(args, 0); ok {
			f.lineTo(p)
		}
	case "c":
		p1, ok1 := point(args, 0)
		p2, ok2 := point(args, 2)
		p3, ok3 := point(args, 4)
		if ok1 && ok2 && ok3 {
			f.curveTo(p1, p2, p3)
		}
	case "v":
		p2, ok2 := point(args, 0)
		p3, ok3 := point(args, 2)
		if ok2 && ok3 {
			f.curveTo(f.cur, p2, p3)
		}
	case "y":
		p1, ok1 := point(args, 0)
		p3, ok3 := point(args, 2)
		if ok1 && ok3 {
			f.curveTo(p1, p3, p3)
		}
	case "h":
		f.closePath()
	case "re":
		v := nums(args)
		if len(v) == 4 {
			x, y, w, h := v[0], v[1], v[2], v[3]
			f.moveTo(coords.Point{X: x, Y: y})
			f.lineTo(coords.Point{X: x + w, Y: y})
			f.lineTo(coords.Point{X: x + w, Y: y + h})
			f.lineTo(coords.Point{X: x, Y: y + h})
			f.closePath()
		}

	// path painting
	case "f", "F":
		ex.paint(f, true, false, NonZero, false)
	case "f*":
		ex.paint(f, true, false, EvenOdd, false)
	case "S":
		ex.paint(f, false, true, NonZero, false)
	case "s":
		ex.paint(f, false, true, NonZero, true)
	case "B":
		ex.paint(f, true, true, NonZero, false)
	case "B*":
		ex.paint(f, true, true, EvenOdd, false)
	case "b":
		ex.paint(f, true, true, NonZero, true)
	case "b*":
		ex.paint(f, true, true, EvenOdd, true)
	case "n":
		ex.paint(f, false, false, NonZero, false)
	case "W", "W*":
		f.pendingClip = true

	// text objects and state
	case "BT":
		f.tm, f.tlm = coords.Identity(), coords.Identity()
	case "ET":
	case "Tc":
		if v, ok := num(args, 0); ok {
			gs.Text.CharSpace = v
		}
	case "Tw":
		if v, ok := num(args, 0); ok {
			gs.Text.WordSpace = v
		}
	case "Tz":
		if v, ok := num(args, 0); ok {
			gs.Text.HScale = v / 100
		}
	case "TL":
		if v, ok := num(args, 0); ok {
			gs.Text.Leading = v
		}
	case "Ts":
		if v, ok := num(args, 0); ok {
			gs.Text.Rise = v
		}
	case "Tr":
		if v, ok := num(args, 0); ok {
			gs.Text.RenderMode = TextRenderMode(v)
		}
	case "Tf":
		fontName, _ := name(args, 0)
		size, _ := num(args, 1)
		gs.Text.Font = f.res.Fonts[fontName]
		gs.Text.Face = ex.in.Fonts.Face(gs.Text.Font)
		gs.Text.FontSize = size
		if gs.Text.Font == nil {
			ex.logger.Debug("unknown font resource, using default face", observability.String("font", fontName))
		}
	case "Td":
		if p, ok := point(args, 0); ok {
			f.nextLine(p.X, p.Y)
		}
	case "TD":
		if p, ok := point(args, 0); ok {
			gs.Text.Leading = -p.Y
			f.nextLine(p.X, p.Y)
		}
	case "Tm":
		if m, ok := matrixOf(args); ok {
			f.tm, f.tlm = m, m
		}
	case "T*":
		f.nextLine(0, -gs.Text.Leading)

	// text showing
	case "Tj":
		if s, ok := str(args, 0); ok {
			ex.show(f, "Tj", []semantic.Operand{semantic.StringOperand{Value: s}})
		}
	case "TJ":
		if len(args) > 0 {
			if arr, ok := args[0].(semantic.ArrayOperand); ok {
				ex.show(f, "TJ", arr.Values)
			}
		}
	case "'":
		f.nextLine(0, -gs.Text.Leading)
		if s, ok := str(args, 0); ok {
			ex.show(f, "'", []semantic.Operand{semantic.StringOperand{Value: s}})
		}
	case "\"":
		if aw, ok := num(args, 0); ok {
			gs.Text.WordSpace = aw
		}
		if ac, ok := num(args, 1); ok {
			gs.Text.CharSpace = ac
		}
		f.nextLine(0, -gs.Text.Leading)
		if s, ok := str(args, 2); ok {
			ex.show(f, "\"", []semantic.Operand{semantic.StringOperand{Value: s}})
		}

	// external objects
	case "Do":
		n, ok := name(args, 0)
		if !ok {
			return nil
		}
		xo, ok := f.res.XObjects[n]
		if !ok || xo == nil {
			ex.logger.Debug("unknown xobject", observability.String("name", n))
			return nil
		}
		return ex.doXObject(ctx, f, xo, depth)
	case "BI":
		if len(args) == 1 {
			if img, ok := args[0].(semantic.InlineImageOperand); ok {
				ex.inlineImage(ctx, f, img)
			}
		}
	}
	return nil
}

func (f *frame) moveTo(p coords.Point) {
	dp := f.gs.CTM.Transform(p)
	f.path.Subpaths = append(f.path.Subpaths, Subpath{Points: []PathPoint{{X: dp.X, Y: dp.Y, Type: PathMoveTo}}})
	f.current = &f.path.Subpaths[len(f.path.Subpaths)-1]
	f.cur, f.start = p, p
}

func (f *frame) lineTo(p coords.Point) {
	if f.current == nil {
		if len(f.path.Subpaths) == 0 {
			f.moveTo(p)
			return
		}
		f.moveTo(f.cur)
	}
	dp := f.gs.CTM.Transform(p)
	f.current.Points = append(f.current.Points, PathPoint{X: dp.X, Y: dp.Y, Type: PathLineTo})
	f.cur = p
}

func (f *frame) curveTo(p1, p2, p3 coords.Point) {
	if f.current == nil {
		f.moveTo(f.cur)
	}
	c1, c2, end := f.gs.CTM.Transform(p1), f.gs.CTM.Transform(p2), f.gs.CTM.Transform(p3)
	f.current.Points = append(f.current.Points, PathPoint{
		X: end.X, Y: end.Y, Type: PathCurveTo,
		Control1X: c1.X, Control1Y: c1.Y,
		Control2X: c2.X, Control2Y: c2.Y,
	})
	f.cur = p3
}

func (f *frame) closePath() {
	if f.current == nil {
		return
	}
	f.current.Closed = true
	// A following segment without m starts a new subpath at the start point.
	f.current = nil
	f.cur = f.start
}

func (ex *execution) paint(f *frame, fill, stroke bool, rule FillRule, closeFirst bool) {
	if closeFirst {
		f.closePath()
	}
	p := &f.path
	if !p.Empty() {
		if fill {
			ex.in.Device.FillPath(p, rule, f.gs)
		}
		if stroke {
			ex.in.Device.StrokePath(p, f.gs)
		}
	}
	if f.pendingClip {
		b := p.Bounds()
		if f.gs.HasClip {
			b = intersect(f.gs.Clip, b)
		}
		f.gs.Clip, f.gs.HasClip = b, true
		f.pendingClip = false
	}
	f.path = Path{}
	f.current = nil
}

func (f *frame) nextLine(tx, ty float64) {
	f.tlm = coords.Translate(tx, ty).Multiply(f.tlm)
	f.tm = f.tlm
}

// show advances the text matrix glyph by glyph and reports the run.
func (ex *execution) show(f *frame, operator string, items []semantic.Operand) {
	ts := &f.gs.Text
	face := ts.Face
	if face == nil {
		face = ex.in.Fonts.Face(nil)
		ts.Face = face
	}
	size := ts.FontSize
	hs := ts.HScale
	startToPage := f.tm.Multiply(f.gs.CTM)
	run := &TextShow{
		Operator: operator,
		Face:     face,
		Origin:   startToPage.Transform(coords.Point{}),
		GS:       f.gs,
	}
	params := coords.Matrix{size * hs, 0, 0, size, 0, ts.Rise}
	for _, item := range items {
		switch v := item.(type) {
		case semantic.StringOperand:
			for _, g := range face.Decode(v.Value) {
				trm := params.Multiply(f.tm).Multiply(f.gs.CTM)
				run.Glyphs = append(run.Glyphs, PositionedGlyph{Glyph: g, Matrix: trm})
				tx := g.Width*size + ts.CharSpace
				if g.IsSpace() {
					tx += ts.WordSpace
				}
				f.tm = coords.Translate(tx*hs, 0).Multiply(f.tm)
			}
		case semantic.NumberOperand:
			tx := -v.Value / 1000 * size * hs
			f.tm = coords.Translate(tx, 0).Multiply(f.tm)
		}
	}
	endToPage := f.tm.Multiply(f.gs.CTM)
	run.End = endToPage.Transform(coords.Point{})
	run.Width = math.Hypot(run.End.X-run.Origin.X, run.End.Y-run.Origin.Y)
	v := startToPage.TransformVector(coords.Point{Y: size})
	run.Size = math.Hypot(v.X, v.Y)
	ex.in.Device.ShowText(run)
}

func (ex *execution) doXObject(ctx context.Context, f *frame, xo *semantic.XObject, depth int) error {
	if xo.Err != nil {
		return nil
	}
	switch xo.Subtype {
	case "Image":
		ex.in.Device.DrawImage(&Image{XObject: xo, Matrix: f.gs.CTM}, f.gs)
	case "Form":
		if depth >= ex.in.MaxFormDepth || ex.forms[xo] {
			ex.logger.Warn("form xobject nesting cut off", observability.Int("depth", depth))
			return nil
		}
		ops, err := Parse(xo.Content)
		if err != nil {
			ex.logger.Warn("form content truncated", observability.Error("error", err))
		}
		saved := *f.gs
		if len(xo.Matrix) == 6 {
			m := coords.Matrix{xo.Matrix[0], xo.Matrix[1], xo.Matrix[2], xo.Matrix[3], xo.Matrix[4], xo.Matrix[5]}
			f.gs.CTM = m.Multiply(f.gs.CTM)
		}
		if bb := xo.BBox; bb.Width() > 0 && bb.Height() > 0 {
			r := coords.Rect{MinX: bb.LLX, MinY: bb.LLY, MaxX: bb.URX, MaxY: bb.URY}.Transform(f.gs.CTM)
			if f.gs.HasClip {
				r = intersect(f.gs.Clip, r)
			}
			f.gs.Clip, f.gs.HasClip = r, true
		}
		res := xo.Resources
		if res == nil {
			res = f.res
		}
		ex.forms[xo] = true
		err = ex.run(ctx, ops, res, f.gs, depth+1)
		delete(ex.forms, xo)
		*f.gs = saved
		return err
	}
	return nil
}

// inlineImage turns a BI/ID/EI payload into an image XObject.
func (ex *execution) inlineImage(ctx context.Context, f *frame, img semantic.InlineImageOperand) {
	d := img.Image.Values
	get := func(long, short string) semantic.Operand {
		if v, ok := d[long]; ok {
			return v
		}
		return d[short]
	}
	xo := &semantic.XObject{Subtype: "Image", Data: img.Data}
	if v, ok := get("Width", "W").(semantic.NumberOperand); ok {
		xo.Width = int(v.Value)
	}
	if v, ok := get("Height", "H").(semantic.NumberOperand); ok {
		xo.Height = int(v.Value)
	}
	if v, ok := get("BitsPerComponent", "BPC").(semantic.NumberOperand); ok {
		xo.BitsPerComponent = int(v.Value)
	}
	if v, ok := get("ImageMask", "IM").(semantic.BoolOperand); ok {
		xo.ImageMask = v.Value
	}
	if xo.ImageMask && xo.BitsPerComponent == 0 {
		xo.BitsPerComponent = 1
	}
	if arr, ok := get("Decode", "D").(semantic.ArrayOperand); ok {
		for _, v := range arr.Values {
			if n, ok := v.(semantic.NumberOperand); ok {
				xo.Decode = append(xo.Decode, n.Value)
			}
		}
	}
	switch cs := get("ColorSpace", "CS").(type) {
	case semantic.NameOperand:
		xo.ColorSpace = inlineColorSpace(cs.Value, f.res)
	case semantic.ArrayOperand:
		xo.ColorSpace = inlineIndexed(cs, f.res)
	}

	var names []string
	switch v := get("Filter", "F").(type) {
	case semantic.NameOperand:
		names = []string{v.Value}
	case semantic.ArrayOperand:
		for _, n := range v.Values {
			if nm, ok := n.(semantic.NameOperand); ok {
				names = append(names, nm.Value)
			}
		}
	}
	if len(names) > 0 {
		for i, n := range names {
			names[i] = filters.Canonical(n)
		}
		if ex.in.Filters == nil {
			ex.logger.Debug("inline image filters skipped, no pipeline configured")
			return
		}
		params := make([]*raw.DictObj, len(names))
		if dp, ok := get("DecodeParms", "DP").(semantic.DictOperand); ok && len(names) > 0 {
			params[0] = rawDict(dp)
		}
		out, imageFilter, err := ex.in.Filters.Decode(ctx, img.Data, names, params)
		if err != nil {
			ex.logger.Warn("inline image undecodable", observability.Error("error", err))
			return
		}
		xo.Data, xo.ImageFilter = out, imageFilter
	}
	ex.in.Device.DrawImage(&Image{XObject: xo, Matrix: f.gs.CTM, Inline: true}, f.gs)
}

func inlineColorSpace(name string, res *semantic.Resources) semantic.ColorSpace {
	switch name {
	case "G", "DeviceGray", "CalGray":
		return semantic.DeviceColorSpace{Name: "DeviceGray"}
	case "RGB", "DeviceRGB", "CalRGB":
		return semantic.DeviceColorSpace{Name: "DeviceRGB"}
	case "CMYK", "DeviceCMYK":
		return semantic.DeviceColorSpace{Name: "DeviceCMYK"}
	}
	if cs, ok := res.ColorSpaces[name]; ok {
		return cs
	}
	return semantic.DeviceColorSpace{Name: "DeviceGray"}
}

// inlineIndexed handles [/I base hival (lookup)].
func inlineIndexed(arr semantic.ArrayOperand, res *semantic.Resources) semantic.ColorSpace {
	if len(arr.Values) < 4 {
		return nil
	}
	cs := &semantic.IndexedColorSpace{Base: semantic.DeviceColorSpace{Name: "DeviceRGB"}}
	if base, ok := arr.Values[1].(semantic.NameOperand); ok {
		cs.Base = inlineColorSpace(base.Value, res)
	}
	if hi, ok := arr.Values[2].(semantic.NumberOperand); ok {
		cs.HiVal = int(hi.Value)
	}
	if lookup, ok := arr.Values[3].(semantic.StringOperand); ok {
		cs.Lookup = lookup.Value
	}
	return cs
}

func rawDict(d semantic.DictOperand) *raw.DictObj {
	out := raw.Dict()
	for k, v := range d.Values {
		switch t := v.(type) {
		case semantic.NumberOperand:
			if t.Value == math.Trunc(t.Value) {
				out.Set(k, raw.NumberInt(int64(t.Value)))
			} else {
				out.Set(k, raw.NumberFloat(t.Value))
			}
		case semantic.NameOperand:
			out.Set(k, raw.NameLiteral(t.Value))
		case semantic.BoolOperand:
			out.Set(k, raw.Bool(t.Value))
		}
	}
	return out
}

func (f *frame) colorSpace(args []semantic.Operand) semantic.ColorSpace {
	n, _ := name(args, 0)
	switch n {
	case "DeviceGray", "DeviceRGB", "DeviceCMYK":
		return semantic.DeviceColorSpace{Name: n}
	case "Pattern":
		return semantic.PatternColorSpace{}
	}
	if cs, ok := f.res.ColorSpaces[n]; ok && cs != nil {
		return cs
	}
	return semantic.DeviceColorSpace{Name: "DeviceGray"}
}

func initialColor(cs semantic.ColorSpace) color.NRGBA {
	switch cs := cs.(type) {
	case *semantic.IndexedColorSpace:
		return ColorOf(cs, []float64{0})
	case *semantic.SeparationColorSpace:
		return ColorOf(cs, []float64{1})
	case semantic.DeviceColorSpace:
		if cs.Name == "DeviceCMYK" {
			return ColorOf(cs, []float64{0, 0, 0, 1})
		}
	}
	return color.NRGBA{A: 255}
}

// ColorOf converts components in cs to an opaque sRGB color. Device spaces
// are taken at face value; ICC profiles are approximated by their component count.
func ColorOf(cs semantic.ColorSpace, v []float64) color.NRGBA {
	switch cs := cs.(type) {
	case *semantic.IndexedColorSpace:
		if len(v) == 0 {
			return color.NRGBA{A: 255}
		}
		idx := int(v[0])
		n := 3
		if cs.Base != nil {
			n = cs.Base.Components()
		}
		if idx < 0 || idx > cs.HiVal || (idx+1)*n > len(cs.Lookup) {
			return color.NRGBA{A: 255}
		}
		comps := make([]float64, n)
		for i := range comps {
			comps[i] = float64(cs.Lookup[idx*n+i]) / 255
		}
		return ColorOf(cs.Base, comps)
	case *semantic.SeparationColorSpace:
		if len(v) == 0 {
			return color.NRGBA{A: 255}
		}
		g := 1 - clamp01(v[0])
		return gray(g)
	case semantic.PatternColorSpace:
		return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	case *semantic.ICCBasedColorSpace:
		return colorByCount(v)
	}
	return colorByCount(v)
}

func colorByCount(v []float64) color.NRGBA {
	switch len(v) {
	case 1:
		return gray(clamp01(v[0]))
	case 3:
		return color.NRGBA{R: to8(v[0]), G: to8(v[1]), B: to8(v[2]), A: 255}
	case 4:
		c, m, y, k := clamp01(v[0]), clamp01(v[1]), clamp01(v[2]), clamp01(v[3])
		return color.NRGBA{R: to8((1 - c) * (1 - k)), G: to8((1 - m) * (1 - k)), B: to8((1 - y) * (1 - k)), A: 255}
	}
	return color.NRGBA{A: 255}
}

func gray(g float64) color.NRGBA {
	b := to8(g)
	return color.NRGBA{R: b, G: b, B: b, A: 255}
}

func to8(v float64) uint8 { return uint8(math.Round(clamp01(v) * 255)) }

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func intersect(a, b coords.Rect) coords.Rect {
	r := coords.Rect{
		MinX: math.Max(a.MinX, b.MinX), MinY: math.Max(a.MinY, b.MinY),
		MaxX: math.Min(a.MaxX, b.MaxX), MaxY: math.Min(a.MaxY, b.MaxY),
	}
	if r.MaxX < r.MinX {
		r.MaxX = r.MinX
	}
	if r.MaxY < r.MinY {
		r.MaxY = r.MinY
	}
	return r
}

func num(args []semantic.Operand, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	n, ok := args[i].(semantic.NumberOperand)
	return n.Value, ok
}

func nums(args []semantic.Operand) []float64 {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		if n, ok := a.(semantic.NumberOperand); ok {
			out = append(out, n.Value)
		}
	}
	return out
}

func point(args []semantic.Operand, i int) (coords.Point, bool) {
	x, ok1 := num(args, i)
	y, ok2 := num(args, i+1)
	return coords.Point{X: x, Y: y}, ok1 && ok2
}

func name(args []semantic.Operand, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	n, ok := args[i].(semantic.NameOperand)
	return n.Value, ok
}

func str(args []semantic.Operand, i int) ([]byte, bool) {
	if i >= len(args) {
		return nil, false
	}
	s, ok := args[i].(semantic.StringOperand)
	return s.Value, ok
}

func matrixOf(args []semantic.Operand) (coords.Matrix, bool) {
	v := nums(args)
	if len(v) != 6 {
		return coords.Matrix{}, false
	}
	return coords.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}, true
}
