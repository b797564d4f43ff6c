package orchestrator

import "github.com/cyris-project/cyris/internal/cyrislog"

// Stack is the compensating-action stack from §4.J: every resource
// acquisition pushes its own undo, and a fatal failure drains the stack
// in reverse, logging but never raising from an individual undo's error.
type Stack struct {
	actions []func() error
}

func (s *Stack) Push(undo func() error) {
	s.actions = append(s.actions, undo)
}

func (s *Stack) Unwind() {
	for i := len(s.actions) - 1; i >= 0; i-- {
		if err := s.actions[i](); err != nil {
			cyrislog.Warn("orchestrator: rollback action failed: %v", err)
		}
	}
	s.actions = nil
}
