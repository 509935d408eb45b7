package middleware

import (
	"slices"
	"sync/atomic"
)

// Step is one phase of a [Stack]: an ordered list of middleware sharing the
// same input and output types. Middleware ids are unique within a step.
//
// The interception API is meant for setup time only; a Step is not safe for
// concurrent modification.
type Step[In, Out any] struct {
	id     string
	mws    []Middleware[In, Out]
	sealed *atomic.Bool
}

// NewStep returns an empty step identified by id.
func NewStep[In, Out any](id string) *Step[In, Out] {
	return &Step[In, Out]{id: id}
}

func newSealableStep[In, Out any](id string, sealed *atomic.Bool) *Step[In, Out] {
	return &Step[In, Out]{id: id, sealed: sealed}
}

// ID returns the step identifier.
func (s *Step[In, Out]) ID() string { return s.id }

// InsertAtHead makes m the outermost middleware of the step.
func (s *Step[In, Out]) InsertAtHead(m Middleware[In, Out]) error {
	if err := s.checkInsert(m.ID()); err != nil {
		return err
	}
	s.mws = slices.Insert(s.mws, 0, m)
	return nil
}

// InsertAtTail makes m the innermost middleware of the step.
func (s *Step[In, Out]) InsertAtTail(m Middleware[In, Out]) error {
	if err := s.checkInsert(m.ID()); err != nil {
		return err
	}
	s.mws = append(s.mws, m)
	return nil
}

// InsertBefore inserts m immediately before the middleware identified by relativeTo.
func (s *Step[In, Out]) InsertBefore(relativeTo string, m Middleware[In, Out]) error {
	return s.insertRelative(relativeTo, m, 0)
}

// InsertAfter inserts m immediately after the middleware identified by relativeTo.
func (s *Step[In, Out]) InsertAfter(relativeTo string, m Middleware[In, Out]) error {
	return s.insertRelative(relativeTo, m, 1)
}

func (s *Step[In, Out]) insertRelative(relativeTo string, m Middleware[In, Out], offset int) error {
	if err := s.checkInsert(m.ID()); err != nil {
		return err
	}
	i := s.index(relativeTo)
	if i < 0 {
		return s.setupError(relativeTo, ErrMiddlewareNotFound)
	}
	s.mws = slices.Insert(s.mws, i+offset, m)
	return nil
}

// Get returns the middleware identified by id.
func (s *Step[In, Out]) Get(id string) (Middleware[In, Out], bool) {
	if i := s.index(id); i >= 0 {
		return s.mws[i], true
	}
	return nil, false
}

// Remove removes and returns the middleware identified by id.
func (s *Step[In, Out]) Remove(id string) (Middleware[In, Out], error) {
	if err := s.checkSealed(id); err != nil {
		return nil, err
	}
	i := s.index(id)
	if i < 0 {
		return nil, s.setupError(id, ErrMiddlewareNotFound)
	}
	m := s.mws[i]
	s.mws = slices.Delete(s.mws, i, i+1)
	return m, nil
}

// Swap replaces the middleware identified by id with m, keeping its position.
// The replaced middleware is returned.
func (s *Step[In, Out]) Swap(id string, m Middleware[In, Out]) (Middleware[In, Out], error) {
	if err := s.checkSealed(id); err != nil {
		return nil, err
	}
	i := s.index(id)
	if i < 0 {
		return nil, s.setupError(id, ErrMiddlewareNotFound)
	}
	if m.ID() != id && s.index(m.ID()) >= 0 {
		return nil, s.setupError(m.ID(), ErrDuplicateMiddleware)
	}
	old := s.mws[i]
	s.mws[i] = m
	return old, nil
}

// IDs returns the middleware ids in execution order, outermost first.
func (s *Step[In, Out]) IDs() []string {
	ids := make([]string, 0, len(s.mws))
	for _, m := range s.mws {
		ids = append(ids, m.ID())
	}
	return ids
}

// Len returns the number of middleware in the step.
func (s *Step[In, Out]) Len() int { return len(s.mws) }

// Clear removes every middleware.
func (s *Step[In, Out]) Clear() error {
	if err := s.checkSealed(""); err != nil {
		return err
	}
	s.mws = nil
	return nil
}

// Compose returns a handler running the step's middleware around terminal.
// With no middleware the result behaves exactly as terminal.
func (s *Step[In, Out]) Compose(terminal Handler[In, Out]) Handler[In, Out] {
	return Decorate(terminal, s.mws...)
}

func (s *Step[In, Out]) index(id string) int {
	return slices.IndexFunc(s.mws, func(m Middleware[In, Out]) bool { return m.ID() == id })
}

func (s *Step[In, Out]) checkInsert(id string) error {
	if err := s.checkSealed(id); err != nil {
		return err
	}
	if s.index(id) >= 0 {
		return s.setupError(id, ErrDuplicateMiddleware)
	}
	return nil
}

func (s *Step[In, Out]) checkSealed(id string) error {
	if s.sealed != nil && s.sealed.Load() {
		return s.setupError(id, ErrStackSealed)
	}
	return nil
}

func (s *Step[In, Out]) setupError(id string, err error) error {
	return &SetupError{Step: s.id, MiddlewareID: id, Err: err}
}
