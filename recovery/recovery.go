// Package recovery decides how the parse pipeline reacts to malformed input.
package recovery

import "context"

type Strategy interface {
	OnError(ctx context.Context, err error, location Location) Action
}

// Location pinpoints where in the file a problem was found.
type Location struct {
	ByteOffset int64
	ObjectNum  int
	ObjectGen  int
	Component  string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionFix
	ActionWarn
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	case ActionFix:
		return "fix"
	case ActionWarn:
		return "warn"
	}
	return "unknown"
}

// Continue reports whether the caller may keep going after the action.
func (a Action) Continue() bool { return a == ActionSkip || a == ActionFix }
