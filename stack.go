package keel

import "slices"

// Stack tracks the ids whose resolution is in progress. Entering an id that
// is already on the stack is a circular dependency. The zero value is ready
// to use. Compiled containers embed a Stack to share cycle reporting with
// the reflective Container.
type Stack struct {
	ids []string
}

// Enter pushes id, failing with a CircularDependencyError when id is already
// being resolved. The error chain is the full stack followed by id.
func (s *Stack) Enter(id string) error {
	if slices.Contains(s.ids, id) {
		chain := make([]string, 0, len(s.ids)+1)
		chain = append(chain, s.ids...)
		return CircularDependencyError{Chain: append(chain, id)}
	}
	s.ids = append(s.ids, id)
	return nil
}

// Leave pops id. It is a no-op if id is not on top of the stack.
func (s *Stack) Leave(id string) {
	if n := len(s.ids); n > 0 && s.ids[n-1] == id {
		s.ids = s.ids[:n-1]
	}
}

// Active reports whether id is being resolved.
func (s *Stack) Active(id string) bool {
	return slices.Contains(s.ids, id)
}

// Chain returns a copy of the stack in entry order.
func (s *Stack) Chain() []string {
	return slices.Clone(s.ids)
}

// Depth returns the number of ids being resolved.
func (s *Stack) Depth() int {
	return len(s.ids)
}

// NotFound returns a NotFoundError for id carrying the current chain.
func (s *Stack) NotFound(id string) error {
	return NotFoundError{ID: id, Chain: s.Chain()}
}
