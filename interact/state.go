// Package interact turns pointer and keyboard input on a page into edits. The
// machine is always in exactly one of the State variants below.
package interact

import (
	"github.com/wudi/pdfview/edit"
	"github.com/wudi/pdfview/textrun"
)

type Tool uint8

const (
	ToolNone Tool = iota
	ToolSelect
	ToolText
	ToolDraw
	ToolHighlight
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolText:
		return "text"
	case ToolDraw:
		return "draw"
	case ToolHighlight:
		return "highlight"
	}
	return "none"
}

// State is the closed set Idle, Selecting, AddingText, EditingText and Drawing.
type State interface {
	Name() string
	state()
}

// Idle waits for input. Clicks on text items start editing; with the draw or
// highlight tool armed they start a stroke or place a highlight.
type Idle struct{}

// Selecting is the select tool's resting state.
type Selecting struct{}

// AddingText holds text waiting for a click to place it.
type AddingText struct {
	Pending string
}

// EditingText edits one item in place. Item is the item as it was when editing
// began; Draft is the value Commit will write.
type EditingText struct {
	Item  textrun.TextItem
	Draft string
}

// Drawing is an unfinished stroke in PDF space.
type Drawing struct {
	Points []edit.Point
}

func (Idle) Name() string        { return "idle" }
func (Selecting) Name() string   { return "selecting" }
func (AddingText) Name() string  { return "adding-text" }
func (EditingText) Name() string { return "editing-text" }
func (Drawing) Name() string     { return "drawing" }

func (Idle) state()        {}
func (Selecting) state()   {}
func (AddingText) state()  {}
func (EditingText) state() {}
func (Drawing) state()     {}

type Key uint8

const (
	KeyEnter Key = iota + 1
	KeyEscape
)
