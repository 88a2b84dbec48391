package interact

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wudi/pdfview/edit"
	"github.com/wudi/pdfview/history"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/textrun"
	"github.com/wudi/pdfview/viewport"
)

// ErrNotEditing is returned for draft, commit and cancel calls outside a text state.
var ErrNotEditing = errors.New("interact: no text is being edited")

// PlaceFunc receives placed text instead of the history. It reports whether it
// consumed the text.
type PlaceFunc func(page int, x, y float64, text string) bool

type Options struct {
	// StickyTools keeps the text and highlight tools armed after each placement.
	StickyTools bool

	TextColor      edit.Color
	FontSize       float64
	DrawColor      edit.Color
	DrawWidth      float64 // PDF units
	HighlightColor edit.Color

	Place  PlaceFunc
	Logger observability.Logger
}

func (o Options) withDefaults() Options {
	if o.FontSize <= 0 {
		o.FontSize = edit.DefaultFontSize
	}
	if o.DrawWidth <= 0 {
		o.DrawWidth = 2
	}
	if o.DrawColor == (edit.Color{}) {
		o.DrawColor = edit.Red
	}
	if o.HighlightColor == (edit.Color{}) {
		o.HighlightColor = edit.Yellow
	}
	o.Logger = observability.OrNop(o.Logger)
	return o
}

// Machine is the interaction state machine for one document. Pointer
// coordinates are device pixels in the current view; they are mapped to PDF
// space on every event, so a zoom or rotation between events is always honored.
// Machine is not safe for concurrent use.
type Machine struct {
	opts  Options
	store *textrun.Store
	hist  *history.History

	tool  Tool
	state State
	page  int
	vp    viewport.Viewport
}

func New(store *textrun.Store, hist *history.History, opts Options) *Machine {
	return &Machine{opts: opts.withDefaults(), store: store, hist: hist, state: Idle{}, page: 1}
}

// Options returns the options in effect, defaults filled in.
func (m *Machine) Options() Options { return m.opts }

func (m *Machine) State() State { return m.state }
func (m *Machine) Tool() Tool   { return m.tool }
func (m *Machine) Page() int    { return m.page }

// SetView sets the page and viewport pointer events refer to. Moving to
// another page abandons the current interaction.
func (m *Machine) SetView(page int, vp viewport.Viewport) {
	if page != m.page {
		m.abandon()
		m.page = page
	}
	m.vp = vp
}

// SetTool arms t. Whatever was in progress is abandoned: an unfinished stroke
// is dropped and an in-place edit is canceled.
func (m *Machine) SetTool(t Tool) {
	m.abandon()
	m.tool = t
	m.state = m.rest()
	m.opts.Logger.Debug("tool changed", observability.String("tool", t.String()))
}

// rest is the state the current tool settles in.
func (m *Machine) rest() State {
	switch m.tool {
	case ToolSelect:
		return Selecting{}
	case ToolText:
		return AddingText{}
	}
	return Idle{}
}

// Abandon drops whatever is in progress without recording it.
func (m *Machine) Abandon() { m.abandon() }

func (m *Machine) abandon() {
	if s, ok := m.state.(EditingText); ok {
		_ = m.store.SetText(s.Item.ID, s.Item.Text)
	}
	m.state = m.rest()
}

// SelectionID is the id of the item being edited, or "".
func (m *Machine) SelectionID() string {
	if s, ok := m.state.(EditingText); ok {
		return s.Item.ID
	}
	return ""
}

// Sketch returns the points of the stroke in progress.
func (m *Machine) Sketch() []edit.Point {
	if s, ok := m.state.(Drawing); ok {
		return slices.Clone(s.Points)
	}
	return nil
}

// SetDraft replaces the pending text in AddingText or the draft in EditingText.
func (m *Machine) SetDraft(text string) error {
	switch s := m.state.(type) {
	case AddingText:
		s.Pending = text
		m.state = s
	case EditingText:
		s.Draft = text
		m.state = s
	default:
		return ErrNotEditing
	}
	return nil
}

func (m *Machine) toPDF(px, py float64) (float64, float64) { return m.vp.ToPDF(px, py) }

// PointerDown handles a press at device (px, py). It returns the edit it
// appended, if any.
func (m *Machine) PointerDown(px, py float64) (edit.Edit, error) {
	x, y := m.toPDF(px, py)
	switch s := m.state.(type) {
	case AddingText:
		if s.Pending == "" {
			return nil, nil
		}
		return m.placeText(x, y, s.Pending), nil

	case EditingText:
		if hit, ok := m.store.HitTest(m.page, x, y); ok && hit.ID == s.Item.ID {
			return nil, nil
		}
		// a click elsewhere commits, then acts as a fresh click
		e, err := m.Commit()
		if err != nil {
			return nil, err
		}
		if _, err := m.PointerDown(px, py); err != nil {
			return e, err
		}
		return e, nil

	case Idle, Selecting:
		switch m.tool {
		case ToolDraw:
			m.state = Drawing{Points: []edit.Point{{X: x, Y: y}}}
			return nil, nil
		case ToolHighlight:
			h := &edit.Highlight{Meta: edit.NewMeta(m.page), X: x, Y: y, Color: m.opts.HighlightColor}
			m.hist.Append(h)
			m.settle()
			return h, nil
		}
		if hit, ok := m.store.HitTest(m.page, x, y); ok {
			m.state = EditingText{Item: hit, Draft: hit.Text}
			m.opts.Logger.Debug("editing text item", observability.String("item", hit.ID))
		}
	}
	return nil, nil
}

// PointerMove extends the stroke in progress.
func (m *Machine) PointerMove(px, py float64) {
	s, ok := m.state.(Drawing)
	if !ok {
		return
	}
	x, y := m.toPDF(px, py)
	if last := s.Points[len(s.Points)-1]; last.X == x && last.Y == y {
		return
	}
	s.Points = append(s.Points, edit.Point{X: x, Y: y})
	m.state = s
}

// PointerUp finishes a stroke and records it.
func (m *Machine) PointerUp(px, py float64) edit.Edit {
	if _, ok := m.state.(Drawing); !ok {
		return nil
	}
	m.PointerMove(px, py)
	s := m.state.(Drawing)
	d := &edit.Drawing{
		Meta:        edit.NewMeta(m.page),
		Color:       m.opts.DrawColor,
		StrokeWidth: m.opts.DrawWidth,
		Points:      s.Points,
	}
	m.hist.Append(d)
	m.state = Idle{}
	return d
}

// Key handles Enter (commit) and Escape (cancel, abort a stroke or disarm the tool).
func (m *Machine) Key(k Key) (edit.Edit, error) {
	switch k {
	case KeyEnter:
		if _, ok := m.state.(EditingText); ok {
			return m.Commit()
		}
	case KeyEscape:
		switch m.state.(type) {
		case EditingText:
			return nil, m.Cancel()
		case Drawing:
			m.state = m.rest()
		default:
			m.SetTool(ToolNone)
		}
	}
	return nil, nil
}

// Commit writes the draft to the edited item and records it. Repeated commits
// on the item whose edit ends the history replace that edit; with undone edits
// pending the commit appends, dropping them. An unchanged draft records nothing.
func (m *Machine) Commit() (edit.Edit, error) {
	s, ok := m.state.(EditingText)
	if !ok {
		return nil, ErrNotEditing
	}
	m.state = m.rest()
	if s.Draft == s.Item.Text {
		return nil, nil
	}
	if err := m.store.SetText(s.Item.ID, s.Draft); err != nil {
		return nil, err
	}
	e := &edit.Text{
		Meta:     edit.NewMeta(m.page),
		X:        s.Item.OriginX,
		Y:        s.Item.OriginY,
		Content:  s.Draft,
		FontSize: s.Item.FontSize,
		Color:    m.opts.TextColor,
		ItemID:   s.Item.ID,
	}
	if tail, ok := m.hist.Tail(); ok && !m.hist.CanRedo() {
		if t, ok := tail.(*edit.Text); ok && t.ItemID == s.Item.ID {
			e.ID = t.ID
			if err := m.hist.Replace(t.ID, e); err != nil {
				return nil, fmt.Errorf("interact: %w", err)
			}
			return e, nil
		}
	}
	m.hist.Append(e)
	return e, nil
}

// Cancel leaves the edited item as it was before editing began.
func (m *Machine) Cancel() error {
	s, ok := m.state.(EditingText)
	if !ok {
		return ErrNotEditing
	}
	m.state = m.rest()
	return m.store.SetText(s.Item.ID, s.Item.Text)
}

func (m *Machine) placeText(x, y float64, text string) edit.Edit {
	defer m.settle()
	if m.opts.Place != nil && m.opts.Place(m.page, x, y, text) {
		return nil
	}
	e := &edit.Text{
		Meta:     edit.NewMeta(m.page),
		X:        x,
		Y:        y,
		Content:  text,
		FontSize: m.opts.FontSize,
		Color:    m.opts.TextColor,
	}
	m.hist.Append(e)
	return e
}

// settle ends a placement: sticky tools stay armed with an empty draft.
func (m *Machine) settle() {
	if !m.opts.StickyTools {
		m.tool = ToolNone
	}
	m.state = m.rest()
}
