package textrun

import "github.com/wudi/pdfview/coords"

const (
	quadCapacity = 8
	quadMaxDepth = 8
)

// quadTree indexes item boxes by arena position.
type quadTree struct {
	bounds coords.Rect
	depth  int
	items  []quadEntry
	nodes  []*quadTree
}

type quadEntry struct {
	box coords.Rect
	idx int
}

func newQuadTree(bounds coords.Rect, depth int) *quadTree {
	return &quadTree{bounds: bounds, depth: depth}
}

func (q *quadTree) insert(box coords.Rect, idx int) bool {
	if !overlaps(q.bounds, box) {
		return false
	}
	if q.nodes != nil {
		for _, n := range q.nodes {
			if encloses(n.bounds, box) && n.insert(box, idx) {
				return true
			}
		}
		// straddles a split line
		q.items = append(q.items, quadEntry{box: box, idx: idx})
		return true
	}
	if len(q.items) < quadCapacity || q.depth >= quadMaxDepth {
		q.items = append(q.items, quadEntry{box: box, idx: idx})
		return true
	}
	q.subdivide()
	old := q.items
	q.items = nil
	for _, e := range old {
		q.insert(e.box, e.idx)
	}
	return q.insert(box, idx)
}

func (q *quadTree) subdivide() {
	b := q.bounds
	mx, my := (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
	d := q.depth + 1
	q.nodes = []*quadTree{
		newQuadTree(coords.Rect{MinX: b.MinX, MinY: my, MaxX: mx, MaxY: b.MaxY}, d),
		newQuadTree(coords.Rect{MinX: mx, MinY: my, MaxX: b.MaxX, MaxY: b.MaxY}, d),
		newQuadTree(coords.Rect{MinX: b.MinX, MinY: b.MinY, MaxX: mx, MaxY: my}, d),
		newQuadTree(coords.Rect{MinX: mx, MinY: b.MinY, MaxX: b.MaxX, MaxY: my}, d),
	}
}

// containing returns the arena positions of every box holding p, in no particular order.
func (q *quadTree) containing(p coords.Point, found []int) []int {
	if !q.bounds.Contains(p) {
		return found
	}
	for _, e := range q.items {
		if e.box.Contains(p) {
			found = append(found, e.idx)
		}
	}
	for _, n := range q.nodes {
		found = n.containing(p, found)
	}
	return found
}

func overlaps(a, b coords.Rect) bool {
	return !(b.MinX > a.MaxX || b.MaxX < a.MinX || b.MinY > a.MaxY || b.MaxY < a.MinY)
}

func encloses(outer, inner coords.Rect) bool {
	return inner.MinX >= outer.MinX && inner.MaxX <= outer.MaxX &&
		inner.MinY >= outer.MinY && inner.MaxY <= outer.MaxY
}
