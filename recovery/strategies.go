package recovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/wudi/pdfview/observability"
)

// StrictStrategy fails on the first problem.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(context.Context, error, Location) Action {
	return ActionFail
}

// LenientStrategy records every problem and asks the caller to repair and continue.
// Viewers use it by default: a damaged file should still show whatever can be shown.
type LenientStrategy struct {
	Logger observability.Logger

	mu     sync.Mutex
	errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(_ context.Context, err error, loc Location) Action {
	wrapped := fmt.Errorf("[%s] offset %d: %w", loc.Component, loc.ByteOffset, err)
	s.mu.Lock()
	s.errors = append(s.errors, wrapped)
	s.mu.Unlock()
	observability.OrNop(s.Logger).Debug("recovered parse error",
		observability.String("component", loc.Component),
		observability.Int64("offset", loc.ByteOffset),
		observability.Error("error", err))
	return ActionFix
}

// Errors returns a copy of the recorded problems.
func (s *LenientStrategy) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errors...)
}
