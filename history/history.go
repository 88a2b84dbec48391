// Package history is the linear undo/redo log of edits.
package history

import (
	"errors"
	"fmt"

	"github.com/wudi/pdfview/edit"
)

// ErrNotFound is returned by Replace for an id that is not visible.
var ErrNotFound = errors.New("edit not found")

// History is a cursor-addressed log. Edits log[0..cursor] are visible; cursor
// is -1 when none are. Appending discards the undone tail, so redo never
// resurrects edits abandoned by a newer append.
type History struct {
	log    []edit.Edit
	cursor int
}

func New() *History { return &History{cursor: -1} }

// Append truncates the log after the cursor and pushes e as the new tail.
func (h *History) Append(e edit.Edit) {
	h.log = append(h.log[:h.cursor+1], e)
	h.cursor = len(h.log) - 1
}

// Undo hides the newest visible edit. It reports false when nothing is visible.
func (h *History) Undo() bool {
	if h.cursor < 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo re-exposes the next undone edit. It reports false at the tail.
func (h *History) Redo() bool {
	if h.cursor >= len(h.log)-1 {
		return false
	}
	h.cursor++
	return true
}

func (h *History) CanUndo() bool { return h.cursor >= 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.log)-1 }
func (h *History) Cursor() int   { return h.cursor }
func (h *History) Len() int      { return len(h.log) }

// Visible returns a copy of log[0..cursor].
func (h *History) Visible() []edit.Edit {
	out := make([]edit.Edit, h.cursor+1)
	copy(out, h.log[:h.cursor+1])
	return out
}

// Tail returns the newest visible edit.
func (h *History) Tail() (edit.Edit, bool) {
	if h.cursor < 0 {
		return nil, false
	}
	return h.log[h.cursor], true
}

// Replace swaps the visible edit with id for e in place, keeping its position.
func (h *History) Replace(id string, e edit.Edit) error {
	for i := 0; i <= h.cursor; i++ {
		if h.log[i].Base().ID == id {
			h.log[i] = e
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Reset empties the log.
func (h *History) Reset() {
	h.log = nil
	h.cursor = -1
}
