package widgetserver

import (
	"errors"
	"sync"

	"github.com/mcosta74/opstack/example/widgets"
)

var ErrNotFound = errors.New("widget not found")

// Store is an in-memory widget repository. Every put bumps the version.
type Store struct {
	mu      sync.RWMutex
	widgets map[string]widgets.Widget
}

func NewStore() *Store {
	return &Store{widgets: make(map[string]widgets.Widget)}
}

func (s *Store) Get(id string) (widgets.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.widgets[id]
	if !ok {
		return widgets.Widget{}, ErrNotFound
	}
	return w, nil
}

// Put stores w and reports whether it was created.
func (s *Store) Put(w widgets.Widget) (widgets.Widget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.widgets[w.ID]
	w.Version = old.Version + 1
	s.widgets[w.ID] = w
	return w, !exists
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.widgets[id]; !ok {
		return ErrNotFound
	}
	delete(s.widgets, id)
	return nil
}
