package sim

import (
	"fmt"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// Store maps global location names to their current symbolic values. The
// set of names and their types are fixed once the store is populated.
type Store struct {
	names  []string
	values map[string]theory.Expr
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]theory.Expr)}
}

// Define adds a location with its initial value.
func (s *Store) Define(name string, v theory.Expr) error {
	if _, ok := s.values[name]; ok {
		return fmt.Errorf("location %q already defined", name)
	}
	s.names = append(s.names, name)
	s.values[name] = v
	return nil
}

// Get returns the current value of a location.
func (s *Store) Get(name string) (theory.Expr, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set updates a location. The new value must keep the location's type.
func (s *Store) Set(name string, v theory.Expr) error {
	old, ok := s.values[name]
	if !ok {
		return fmt.Errorf("write to unknown location %q", name)
	}
	if !types.Equal(old.Type(), v.Type()) {
		return fmt.Errorf("write of %s to location %q of type %s", v.Type(), name, old.Type())
	}
	s.values[name] = v
	return nil
}

// Names returns the location names in definition order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of locations.
func (s *Store) Len() int { return len(s.names) }

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	c := &Store{
		names:  append([]string(nil), s.names...),
		values: make(map[string]theory.Expr, len(s.values)),
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

func mergeStores(cond theory.Expr, t, e *Store) (*Store, error) {
	out := t.Clone()
	for _, name := range t.names {
		ev, ok := e.values[name]
		if !ok {
			return nil, fmt.Errorf("location %q missing from merged store", name)
		}
		v, err := theory.Ite(cond, t.values[name], ev)
		if err != nil {
			return nil, err
		}
		out.values[name] = v
	}
	return out, nil
}
