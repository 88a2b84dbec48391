package viewer

import (
	"github.com/wudi/pdfview/edit"
	"github.com/wudi/pdfview/interact"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/textrun"
)

func (s *Session) SetTool(t interact.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.SetTool(t)
}

func (s *Session) Tool() interact.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Tool()
}

func (s *Session) State() interact.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Selection is the id of the text item being edited, or "".
func (s *Session) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.SelectionID()
}

// SetDraft sets the text to place or the replacement for the edited item.
func (s *Session) SetDraft(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.SetDraft(text)
}

// PointerDown handles a press at device pixel (x, y) of the current view.
func (s *Session) PointerDown(x, y float64) (edit.Edit, error) {
	s.mu.Lock()
	e, err := s.machine.PointerDown(x, y)
	s.mu.Unlock()
	s.flushPlaced()
	return e, err
}

func (s *Session) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.PointerMove(x, y)
}

func (s *Session) PointerUp(x, y float64) edit.Edit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.PointerUp(x, y)
}

func (s *Session) Key(k interact.Key) (edit.Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Key(k)
}

// Undo hides the newest edit and re-derives item texts from what stays visible.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Abandon()
	if !s.hist.Undo() {
		return false
	}
	s.store.ApplyEdits(s.hist.Visible())
	return true
}

func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Abandon()
	if !s.hist.Redo() {
		return false
	}
	s.store.ApplyEdits(s.hist.Visible())
	return true
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// Edits is the visible history.
func (s *Session) Edits() []edit.Edit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Visible()
}

// Items returns the text items of page with their current texts.
func (s *Session) Items(page int) []textrun.TextItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Page(page)
}

// Save hands the visible edits to Config.OnSave.
func (s *Session) Save() error {
	s.mu.Lock()
	edits := s.hist.Visible()
	s.mu.Unlock()
	if s.cfg.OnSave == nil {
		return ErrNoSaveHandler
	}
	s.logger.Info("saving edits", observability.Int("edits", len(edits)))
	s.cfg.OnSave(edits)
	return nil
}

// place queues text for OnEdit; it runs with mu held, so delivery waits for flushPlaced.
func (s *Session) place(page int, x, y float64, text string) bool {
	s.placed = append(s.placed, placement{page: page, x: x, y: y, text: text})
	return true
}

func (s *Session) flushPlaced() {
	s.mu.Lock()
	placed := s.placed
	s.placed = nil
	s.mu.Unlock()
	for _, p := range placed {
		s.cfg.OnEdit(p.page, p.x, p.y, p.text)
	}
}
