package canvas

import (
	"math"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/fonts"
)

type segOp uint8

const (
	opMove segOp = iota
	opLine
	opQuad
	opCube
	opClose
)

type seg struct {
	op  segOp
	pts [3]coords.Point
}

// Path is a device-space path.
type Path struct {
	segs  []seg
	start coords.Point
	cur   coords.Point
	open  bool
}

func (p *Path) MoveTo(pt coords.Point) {
	p.segs = append(p.segs, seg{op: opMove, pts: [3]coords.Point{pt}})
	p.start, p.cur, p.open = pt, pt, true
}

func (p *Path) LineTo(pt coords.Point) {
	if !p.open {
		p.MoveTo(p.cur)
	}
	p.segs = append(p.segs, seg{op: opLine, pts: [3]coords.Point{pt}})
	p.cur = pt
}

func (p *Path) QuadTo(c, pt coords.Point) {
	if !p.open {
		p.MoveTo(p.cur)
	}
	p.segs = append(p.segs, seg{op: opQuad, pts: [3]coords.Point{c, pt}})
	p.cur = pt
}

func (p *Path) CubeTo(c1, c2, pt coords.Point) {
	if !p.open {
		p.MoveTo(p.cur)
	}
	p.segs = append(p.segs, seg{op: opCube, pts: [3]coords.Point{c1, c2, pt}})
	p.cur = pt
}

// Close ends the current subpath with a line back to its start.
func (p *Path) Close() {
	if !p.open {
		return
	}
	p.segs = append(p.segs, seg{op: opClose})
	p.cur, p.open = p.start, false
}

// Rect appends a closed axis-aligned rectangle.
func (p *Path) Rect(r coords.Rect) {
	p.MoveTo(coords.Point{X: r.MinX, Y: r.MinY})
	p.LineTo(coords.Point{X: r.MaxX, Y: r.MinY})
	p.LineTo(coords.Point{X: r.MaxX, Y: r.MaxY})
	p.LineTo(coords.Point{X: r.MinX, Y: r.MaxY})
	p.Close()
}

func (p *Path) Empty() bool { return len(p.segs) == 0 }

// Bounds covers every point including curve controls.
func (p *Path) Bounds() coords.Rect {
	var pts []coords.Point
	for _, s := range p.segs {
		switch s.op {
		case opMove, opLine:
			pts = append(pts, s.pts[0])
		case opQuad:
			pts = append(pts, s.pts[0], s.pts[1])
		case opCube:
			pts = append(pts, s.pts[0], s.pts[1], s.pts[2])
		}
	}
	return coords.RectFromPoints(pts...)
}

// polylines flattens the path into point lists, one per subpath.
func (p *Path) polylines() (lines [][]coords.Point, closed []bool) {
	var cur []coords.Point
	flush := func(c bool) {
		if len(cur) > 1 {
			lines = append(lines, cur)
			closed = append(closed, c)
		}
		cur = nil
	}
	var last coords.Point
	for _, s := range p.segs {
		switch s.op {
		case opMove:
			flush(false)
			cur = []coords.Point{s.pts[0]}
			last = s.pts[0]
		case opLine:
			cur = append(cur, s.pts[0])
			last = s.pts[0]
		case opQuad:
			n := steps(last, s.pts[0], s.pts[1], s.pts[1])
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur = append(cur, coords.Point{
					X: u*u*last.X + 2*u*t*s.pts[0].X + t*t*s.pts[1].X,
					Y: u*u*last.Y + 2*u*t*s.pts[0].Y + t*t*s.pts[1].Y,
				})
			}
			last = s.pts[1]
		case opCube:
			n := steps(last, s.pts[0], s.pts[1], s.pts[2])
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur = append(cur, coords.Point{
					X: u*u*u*last.X + 3*u*u*t*s.pts[0].X + 3*u*t*t*s.pts[1].X + t*t*t*s.pts[2].X,
					Y: u*u*u*last.Y + 3*u*u*t*s.pts[0].Y + 3*u*t*t*s.pts[1].Y + t*t*t*s.pts[2].Y,
				})
			}
			last = s.pts[2]
		case opClose:
			if len(cur) > 0 {
				last = cur[0]
			}
			flush(true)
			cur = []coords.Point{last}
		}
	}
	flush(false)
	return lines, closed
}

// steps picks a subdivision count from the control polygon length (about 3px per step).
func steps(p0, p1, p2, p3 coords.Point) int {
	l := dist(p0, p1) + dist(p1, p2) + dist(p2, p3)
	n := int(l / 3)
	return max(4, min(n, 64))
}

func dist(a, b coords.Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Glyph appends a glyph outline mapped through m, closing each contour.
func (p *Path) Glyph(segs []fonts.Segment, m coords.Matrix) {
	open := false
	for _, s := range segs {
		switch s.Op {
		case fonts.MoveTo:
			if open {
				p.Close()
			}
			p.MoveTo(m.Transform(s.Pts[0]))
			open = true
		case fonts.LineTo:
			p.LineTo(m.Transform(s.Pts[0]))
		case fonts.QuadTo:
			p.QuadTo(m.Transform(s.Pts[0]), m.Transform(s.Pts[1]))
		case fonts.CubeTo:
			p.CubeTo(m.Transform(s.Pts[0]), m.Transform(s.Pts[1]), m.Transform(s.Pts[2]))
		}
	}
	if open {
		p.Close()
	}
}
