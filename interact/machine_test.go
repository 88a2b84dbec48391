package interact

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/edit"
	"github.com/wudi/pdfview/history"
	"github.com/wudi/pdfview/textrun"
	"github.com/wudi/pdfview/viewport"
)

var letter = coords.Rect{MaxX: 612, MaxY: 792}

func items() []textrun.TextItem {
	return []textrun.TextItem{
		{ID: "1-0", Page: 1, Text: "Hello", OriginalText: "Hello", OriginX: 72, OriginY: 720, Width: 30, Height: 12, FontSize: 12},
		{ID: "1-1", Page: 1, Text: "World", OriginalText: "World", OriginX: 72, OriginY: 700, Width: 32, Height: 12, FontSize: 12},
		{ID: "2-0", Page: 2, Text: "Second", OriginalText: "Second", OriginX: 72, OriginY: 720, Width: 40, Height: 12, FontSize: 12},
	}
}

type fixture struct {
	m     *Machine
	store *textrun.Store
	hist  *history.History
	vp    viewport.Viewport
}

func setup(t *testing.T, scale float64, rot int, opts Options) *fixture {
	t.Helper()
	store := textrun.NewStore(items())
	hist := history.New()
	vp, err := viewport.New(letter, scale, rot)
	require.NoError(t, err)
	m := New(store, hist, opts)
	m.SetView(1, vp)
	return &fixture{m: m, store: store, hist: hist, vp: vp}
}

// click presses at the device point of PDF (x, y).
func (f *fixture) click(t *testing.T, x, y float64) edit.Edit {
	t.Helper()
	px, py := f.vp.ToDevice(x, y)
	e, err := f.m.PointerDown(px, py)
	require.NoError(t, err)
	return e
}

func (f *fixture) clickItem(t *testing.T, id string) {
	t.Helper()
	it, ok := f.store.Get(id)
	require.True(t, ok)
	f.click(t, it.OriginX+it.Width/2, it.OriginY+it.Height/2)
}

func TestClickOnItemStartsEditing(t *testing.T) {
	f := setup(t, 1.5, 0, Options{})
	f.clickItem(t, "1-0")

	s, ok := f.m.State().(EditingText)
	require.True(t, ok, "state = %s", f.m.State().Name())
	require.Equal(t, "1-0", s.Item.ID)
	require.Equal(t, "Hello", s.Draft)
	require.Equal(t, "1-0", f.m.SelectionID())
}

func TestClickOutsideItemsStaysIdle(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.click(t, 400, 100)
	require.IsType(t, Idle{}, f.m.State())
	require.Empty(t, f.m.SelectionID())
}

func TestSelectToolRestsInSelecting(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.m.SetTool(ToolSelect)
	require.IsType(t, Selecting{}, f.m.State())

	f.clickItem(t, "1-1")
	require.IsType(t, EditingText{}, f.m.State())
	require.NoError(t, f.m.Cancel())
	require.IsType(t, Selecting{}, f.m.State())
}

func TestRotationRederivesHitBoxes(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.clickItem(t, "1-0")
	require.Equal(t, "1-0", f.m.SelectionID())

	it, _ := f.store.Get("1-0")
	before := f.vp.DeviceRect(it.Box())

	rotated, err := viewport.New(letter, 1, 90)
	require.NoError(t, err)
	f.m.SetView(1, rotated)
	f.vp = rotated
	require.Equal(t, "1-0", f.m.SelectionID(), "rotation must keep the selection")

	after := rotated.DeviceRect(it.Box())
	require.InDelta(t, before.Width(), after.Height(), 1e-9)
	require.InDelta(t, before.Height(), after.Width(), 1e-9)
	require.NotEqual(t, before, after)

	require.NoError(t, f.m.Cancel())
	cx, cy := (after.MinX+after.MaxX)/2, (after.MinY+after.MaxY)/2
	_, err = f.m.PointerDown(cx, cy)
	require.NoError(t, err)
	require.Equal(t, "1-0", f.m.SelectionID())

	// the old device center now maps somewhere else on the page
	require.NoError(t, f.m.Cancel())
	_, err = f.m.PointerDown((before.MinX+before.MaxX)/2, (before.MinY+before.MaxY)/2)
	require.NoError(t, err)
	require.Empty(t, f.m.SelectionID())
}

func TestCommitWritesItemAndRecordsEdit(t *testing.T) {
	f := setup(t, 1, 0, Options{TextColor: edit.Black})
	f.clickItem(t, "1-0")
	require.NoError(t, f.m.SetDraft("Howdy"))

	e, err := f.m.Key(KeyEnter)
	require.NoError(t, err)
	te, ok := e.(*edit.Text)
	require.True(t, ok)
	require.Equal(t, "Howdy", te.Content)
	require.Equal(t, "1-0", te.ItemID)
	require.Equal(t, 72.0, te.X)
	require.Equal(t, 720.0, te.Y)

	it, _ := f.store.Get("1-0")
	require.Equal(t, "Howdy", it.Text)
	require.Equal(t, "Hello", it.OriginalText)
	require.Len(t, f.hist.Visible(), 1)
	require.IsType(t, Idle{}, f.m.State())
}

func TestRepeatedCommitsReplaceTail(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.clickItem(t, "1-0")
	require.NoError(t, f.m.SetDraft("one"))
	first, err := f.m.Commit()
	require.NoError(t, err)

	f.clickItem(t, "1-0")
	require.NoError(t, f.m.SetDraft("two"))
	second, err := f.m.Commit()
	require.NoError(t, err)

	v := f.hist.Visible()
	require.Len(t, v, 1)
	require.Equal(t, first.Base().ID, second.Base().ID)
	require.Equal(t, "two", v[0].(*edit.Text).Content)
}

func TestCommitAfterUndoDropsRedoTail(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.clickItem(t, "1-0")
	require.NoError(t, f.m.SetDraft("First"))
	first, err := f.m.Commit()
	require.NoError(t, err)

	f.m.SetTool(ToolHighlight)
	require.NotNil(t, f.click(t, 300, 300))
	f.m.SetTool(ToolNone)
	require.Equal(t, 2, f.hist.Len())

	require.True(t, f.hist.Undo())
	require.True(t, f.hist.CanRedo())

	f.clickItem(t, "1-0")
	require.NoError(t, f.m.SetDraft("Fresh"))
	fresh, err := f.m.Commit()
	require.NoError(t, err)
	require.NotEqual(t, first.Base().ID, fresh.Base().ID)

	require.False(t, f.hist.CanRedo())
	require.False(t, f.hist.Redo())
	v := f.hist.Visible()
	require.Len(t, v, 2)
	require.Equal(t, "First", v[0].(*edit.Text).Content)
	require.Equal(t, "Fresh", v[1].(*edit.Text).Content)
	for _, e := range v {
		require.NotEqual(t, edit.KindHighlight, e.Kind())
	}
}

func TestCommitUnchangedRecordsNothing(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.clickItem(t, "1-0")
	e, err := f.m.Commit()
	require.NoError(t, err)
	require.Nil(t, e)
	require.Zero(t, f.hist.Len())
}

func TestCancelAppendsNothing(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.clickItem(t, "1-1")
	require.NoError(t, f.m.SetDraft("changed"))
	_, err := f.m.Key(KeyEscape)
	require.NoError(t, err)

	it, _ := f.store.Get("1-1")
	require.Equal(t, "World", it.Text)
	require.Zero(t, f.hist.Len())
	require.IsType(t, Idle{}, f.m.State())
}

func TestClickElsewhereCommitsThenSelects(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.clickItem(t, "1-0")
	require.NoError(t, f.m.SetDraft("Bye"))

	it, _ := f.store.Get("1-1")
	px, py := f.vp.ToDevice(it.Center())
	e, err := f.m.PointerDown(px, py)
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Equal(t, "1-1", f.m.SelectionID())

	got, _ := f.store.Get("1-0")
	require.Equal(t, "Bye", got.Text)
}

func TestDraftOutsideTextStates(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	require.ErrorIs(t, f.m.SetDraft("x"), ErrNotEditing)
	_, err := f.m.Commit()
	require.ErrorIs(t, err, ErrNotEditing)
	require.ErrorIs(t, f.m.Cancel(), ErrNotEditing)
}

func TestTextToolPlacesText(t *testing.T) {
	f := setup(t, 2, 0, Options{})
	f.m.SetTool(ToolText)
	require.IsType(t, AddingText{}, f.m.State())

	// empty pending text places nothing
	require.Nil(t, f.click(t, 300, 300))
	require.Zero(t, f.hist.Len())

	require.NoError(t, f.m.SetDraft("note"))
	e := f.click(t, 300, 300)
	te, ok := e.(*edit.Text)
	require.True(t, ok)
	require.InDelta(t, 300, te.X, 1e-9)
	require.InDelta(t, 300, te.Y, 1e-9)
	require.Equal(t, edit.DefaultFontSize, te.FontSize)
	require.Empty(t, te.ItemID)

	require.Equal(t, ToolNone, f.m.Tool())
	require.IsType(t, Idle{}, f.m.State())
}

func TestStickyTextTool(t *testing.T) {
	f := setup(t, 1, 0, Options{StickyTools: true})
	f.m.SetTool(ToolText)
	require.NoError(t, f.m.SetDraft("a"))
	f.click(t, 100, 100)

	require.Equal(t, ToolText, f.m.Tool())
	s, ok := f.m.State().(AddingText)
	require.True(t, ok)
	require.Empty(t, s.Pending)
}

func TestPlaceFuncConsumesText(t *testing.T) {
	var got []string
	f := setup(t, 1, 0, Options{Place: func(page int, x, y float64, text string) bool {
		got = append(got, text)
		return true
	}})
	f.m.SetTool(ToolText)
	require.NoError(t, f.m.SetDraft("only"))
	require.Nil(t, f.click(t, 100, 100))
	require.Equal(t, []string{"only"}, got)
	require.Zero(t, f.hist.Len())
}

func TestHighlightTool(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.m.SetTool(ToolHighlight)
	e := f.click(t, 10, 10)
	h, ok := e.(*edit.Highlight)
	require.True(t, ok)
	require.Equal(t, edit.Yellow, h.Color)
	require.InDelta(t, 10, h.X, 1e-9)
	require.Equal(t, 1, h.Page)
	require.Len(t, f.hist.Visible(), 1)
}

func TestDrawStroke(t *testing.T) {
	f := setup(t, 2, 0, Options{DrawWidth: 3})
	f.m.SetTool(ToolDraw)

	f.click(t, 100, 100)
	require.IsType(t, Drawing{}, f.m.State())
	px, py := f.vp.ToDevice(150, 120)
	f.m.PointerMove(px, py)
	f.m.PointerMove(px, py)
	require.Len(t, f.m.Sketch(), 2)
	require.Zero(t, f.hist.Len(), "strokes are not edits until released")

	ux, uy := f.vp.ToDevice(200, 100)
	e := f.m.PointerUp(ux, uy)
	d, ok := e.(*edit.Drawing)
	require.True(t, ok)
	require.Len(t, d.Points, 3)
	require.InDelta(t, 150, d.Points[1].X, 1e-9)
	require.InDelta(t, 120, d.Points[1].Y, 1e-9)
	require.Equal(t, 3.0, d.StrokeWidth)
	require.IsType(t, Idle{}, f.m.State())
	require.Equal(t, ToolDraw, f.m.Tool())
}

func TestToolChangeDropsStroke(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.m.SetTool(ToolDraw)
	f.click(t, 100, 100)
	f.m.PointerMove(300, 300)

	f.m.SetTool(ToolNone)
	require.IsType(t, Idle{}, f.m.State())
	require.Nil(t, f.m.PointerUp(300, 300))
	require.Zero(t, f.hist.Len())
}

func TestEscapeAbortsStroke(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.m.SetTool(ToolDraw)
	f.click(t, 100, 100)
	_, err := f.m.Key(KeyEscape)
	require.NoError(t, err)
	require.Nil(t, f.m.Sketch())
	require.Zero(t, f.hist.Len())
	require.Equal(t, ToolDraw, f.m.Tool())
}

func TestPageChangeAbandonsEditing(t *testing.T) {
	f := setup(t, 1, 0, Options{})
	f.clickItem(t, "1-0")
	require.NoError(t, f.m.SetDraft("lost"))

	f.m.SetView(2, f.vp)
	require.IsType(t, Idle{}, f.m.State())
	it, _ := f.store.Get("1-0")
	require.Equal(t, "Hello", it.Text)

	f.clickItem(t, "2-0")
	require.Equal(t, "2-0", f.m.SelectionID())
}
