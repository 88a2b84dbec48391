package history

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfview/edit"
)

func highlight(id string) edit.Edit {
	return &edit.Highlight{Meta: edit.Meta{ID: id, Page: 1}, X: 10, Y: 10, Color: edit.Yellow}
}

func ids(edits []edit.Edit) []string {
	out := []string{}
	for _, e := range edits {
		out = append(out, e.Base().ID)
	}
	return out
}

func TestUndoRedoHighlight(t *testing.T) {
	h := New()
	e := highlight("h1")
	h.Append(e)
	require.Len(t, h.Visible(), 1)

	require.True(t, h.Undo())
	require.Empty(t, h.Visible())
	require.Equal(t, -1, h.Cursor())

	require.True(t, h.Redo())
	require.Len(t, h.Visible(), 1)
	require.Same(t, e, h.Visible()[0])
}

func TestUndoRedoBounds(t *testing.T) {
	h := New()
	require.False(t, h.Undo())
	require.False(t, h.Redo())
	require.False(t, h.CanUndo())

	h.Append(highlight("a"))
	require.False(t, h.Redo())
	require.True(t, h.Undo())
	require.False(t, h.Undo())
	require.Equal(t, -1, h.Cursor())
	require.True(t, h.CanRedo())
}

func TestAppendAfterUndoDropsTail(t *testing.T) {
	h := New()
	h.Append(highlight("a"))
	h.Append(highlight("b"))
	h.Append(highlight("c"))
	h.Undo()
	h.Undo()
	h.Append(highlight("d"))

	require.Equal(t, []string{"a", "d"}, ids(h.Visible()))
	require.Equal(t, 2, h.Len())
	require.False(t, h.Redo(), "redo resurrected an abandoned edit")
}

func TestVisibleIsACopy(t *testing.T) {
	h := New()
	h.Append(highlight("a"))
	v := h.Visible()
	v[0] = highlight("z")
	require.Equal(t, []string{"a"}, ids(h.Visible()))
}

func TestReplace(t *testing.T) {
	h := New()
	h.Append(highlight("a"))
	h.Append(&edit.Text{Meta: edit.Meta{ID: "t", Page: 1}, Content: "one", ItemID: "1-0"})
	h.Append(highlight("b"))

	next := &edit.Text{Meta: edit.Meta{ID: "t", Page: 1}, Content: "two", ItemID: "1-0"}
	require.NoError(t, h.Replace("t", next))
	require.Equal(t, []string{"a", "t", "b"}, ids(h.Visible()))
	require.Same(t, next, h.Visible()[1])

	h.Undo()
	h.Undo()
	err := h.Replace("b", highlight("b"))
	require.True(t, errors.Is(err, ErrNotFound), "undone edits must not be replaceable: %v", err)

	tail, ok := h.Tail()
	require.True(t, ok)
	require.Equal(t, "a", tail.Base().ID)
}

func TestReset(t *testing.T) {
	h := New()
	h.Append(highlight("a"))
	h.Reset()
	require.Equal(t, 0, h.Len())
	require.Equal(t, -1, h.Cursor())
	_, ok := h.Tail()
	require.False(t, ok)
}

// Random append/undo/redo sequences keep the cursor in range, expose every
// append, and make undo followed by redo a no-op on the visible slice.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := New()
	for step := 0; step < 2000; step++ {
		switch rng.Intn(3) {
		case 0:
			id := fmt.Sprintf("e%d", step)
			h.Append(highlight(id))
			v := h.Visible()
			require.Equal(t, id, v[len(v)-1].Base().ID)
		case 1:
			before := ids(h.Visible())
			if h.Undo() {
				require.True(t, h.Redo())
				require.Equal(t, before, ids(h.Visible()))
				h.Undo()
			}
		case 2:
			h.Redo()
		}
		require.GreaterOrEqual(t, h.Cursor(), -1)
		require.Less(t, h.Cursor(), h.Len())
		require.Len(t, h.Visible(), h.Cursor()+1)
	}
}
