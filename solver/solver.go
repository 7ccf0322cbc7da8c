// Package solver provides the per-call solver sessions the engine uses to
// decide path satisfiability.
package solver

import (
	"fmt"
	"io"

	"github.com/sarchlab/isasem/theory"
)

// Result is the outcome of a satisfiability query.
type Result int

// Query outcomes.
const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Session answers satisfiability queries for a single extraction. A session
// must not be shared between concurrent extractions.
type Session interface {
	// Check decides whether the conjunction of conds is satisfiable.
	Check(conds []theory.Expr) (Result, error)

	// SetLog sets the destination of the session's query log.
	SetLog(w io.Writer)

	// Close releases the session.
	Close() error
}

// Factory opens a new session.
type Factory func() (Session, error)

// Backend names.
const (
	BackendGini = "gini"
	BackendNone = "none"
)

// New returns the factory for the named backend.
func New(backend string) (Factory, error) {
	switch backend {
	case BackendGini, "":
		return func() (Session, error) { return NewGini(), nil }, nil
	case BackendNone:
		return func() (Session, error) { return &nullSession{log: io.Discard}, nil }, nil
	default:
		return nil, fmt.Errorf("unknown solver backend %q", backend)
	}
}

// nullSession answers every query with Unknown.
type nullSession struct {
	log    io.Writer
	closed bool
}

func (s *nullSession) Check(conds []theory.Expr) (Result, error) {
	if s.closed {
		return Unknown, ErrClosed
	}
	logQuery(s.log, conds, Unknown)
	return Unknown, nil
}

func (s *nullSession) SetLog(w io.Writer) { s.log = orDiscard(w) }

func (s *nullSession) Close() error {
	s.closed = true
	return nil
}
