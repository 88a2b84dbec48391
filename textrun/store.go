package textrun

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/edit"
)

// ErrUnknownItem is returned for ids the store never saw.
var ErrUnknownItem = errors.New("unknown text item")

// Store is an arena of TextItems addressed by id. Items are never removed;
// edits replace Text and Revert restores OriginalText. Store is not safe for
// concurrent use; the viewer serializes access.
type Store struct {
	items []TextItem
	byID  map[string]int
	pages map[int][]int
	trees map[int]*quadTree
}

// NewStore takes ownership of items, in extraction order.
func NewStore(items []TextItem) *Store {
	s := &Store{
		items: items,
		byID:  make(map[string]int, len(items)),
		pages: make(map[int][]int),
		trees: make(map[int]*quadTree),
	}
	for i, it := range items {
		s.byID[it.ID] = i
		s.pages[it.Page] = append(s.pages[it.Page], i)
	}
	return s
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Get(id string) (TextItem, bool) {
	i, ok := s.byID[id]
	if !ok {
		return TextItem{}, false
	}
	return s.items[i], true
}

// Page returns copies of the items on page in extraction order.
func (s *Store) Page(page int) []TextItem {
	idx := s.pages[page]
	out := make([]TextItem, len(idx))
	for i, j := range idx {
		out[i] = s.items[j]
	}
	return out
}

// All returns a copy of every item.
func (s *Store) All() []TextItem { return slices.Clone(s.items) }

func (s *Store) SetText(id, text string) error {
	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	s.items[i].Text = text
	return nil
}

func (s *Store) Revert(id string) error {
	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	s.items[i].Text = s.items[i].OriginalText
	return nil
}

// ApplyEdits resets every item and replays the text edits that target items,
// so item texts always agree with the visible history.
func (s *Store) ApplyEdits(visible []edit.Edit) {
	for i := range s.items {
		s.items[i].Text = s.items[i].OriginalText
	}
	for _, e := range visible {
		t, ok := e.(*edit.Text)
		if !ok || t.ItemID == "" {
			continue
		}
		if i, ok := s.byID[t.ItemID]; ok {
			s.items[i].Text = t.Content
		}
	}
}

// HitTest finds the item on page whose box contains the PDF-space point (x, y).
// Overlapping boxes resolve to the first item in extraction order.
func (s *Store) HitTest(page int, x, y float64) (TextItem, bool) {
	tree := s.tree(page)
	if tree == nil {
		return TextItem{}, false
	}
	found := tree.containing(coords.Point{X: x, Y: y}, nil)
	if len(found) == 0 {
		return TextItem{}, false
	}
	return s.items[slices.Min(found)], true
}

func (s *Store) tree(page int) *quadTree {
	if t, ok := s.trees[page]; ok {
		return t
	}
	idx := s.pages[page]
	if len(idx) == 0 {
		return nil
	}
	bounds := s.items[idx[0]].Box()
	for _, i := range idx[1:] {
		b := s.items[i].Box()
		bounds = coords.RectFromPoints(
			coords.Point{X: bounds.MinX, Y: bounds.MinY}, coords.Point{X: bounds.MaxX, Y: bounds.MaxY},
			coords.Point{X: b.MinX, Y: b.MinY}, coords.Point{X: b.MaxX, Y: b.MaxY},
		)
	}
	t := newQuadTree(bounds, 0)
	for _, i := range idx {
		t.insert(s.items[i].Box(), i)
	}
	s.trees[page] = t
	return t
}
