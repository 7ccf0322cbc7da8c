package solver

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// ErrClosed is returned when a closed session is queried.
var ErrClosed = errors.New("solver session is closed")

// GiniSession checks the propositional skeleton of a query with the gini SAT
// solver. Atoms that are not propositional are abstracted to fresh literals,
// so an unsat answer is exact while a sat answer is exact only when nothing
// was abstracted.
type GiniSession struct {
	circuit *logic.C
	vars    map[*theory.BoundVar]z.Lit
	atoms   map[string]z.Lit
	log     io.Writer
	closed  bool

	abstracted bool
}

// NewGini opens a gini session.
func NewGini() *GiniSession {
	return &GiniSession{
		circuit: logic.NewC(),
		vars:    make(map[*theory.BoundVar]z.Lit),
		atoms:   make(map[string]z.Lit),
		log:     io.Discard,
	}
}

// SetLog implements Session.
func (s *GiniSession) SetLog(w io.Writer) { s.log = orDiscard(w) }

// Close implements Session.
func (s *GiniSession) Close() error {
	s.closed = true
	s.circuit = nil
	s.vars = nil
	s.atoms = nil
	return nil
}

// Check implements Session.
func (s *GiniSession) Check(conds []theory.Expr) (Result, error) {
	if s.closed {
		return Unknown, ErrClosed
	}

	s.abstracted = false
	lits := make([]z.Lit, 0, len(conds))
	for i, c := range conds {
		if !types.Equal(c.Type(), types.Bool) {
			return Unknown, fmt.Errorf("condition %d has type %s, want bool", i, c.Type())
		}
		lits = append(lits, s.encode(c))
	}

	g := gini.New()
	s.circuit.ToCnf(g)
	g.Assume(lits...)

	var res Result
	switch g.Solve() {
	case 1:
		res = Sat
		if s.abstracted {
			res = Unknown
		}
	case -1:
		res = Unsat
	default:
		res = Unknown
	}

	logQuery(s.log, conds, res)
	return res, nil
}

func (s *GiniSession) encode(e theory.Expr) z.Lit {
	c := s.circuit
	switch e := e.(type) {
	case *theory.BoolLit:
		if e.Value {
			return c.T
		}
		return c.F
	case *theory.VarExpr:
		l, ok := s.vars[e.Var]
		if !ok {
			l = c.Lit()
			s.vars[e.Var] = l
		}
		return l
	case *theory.App:
		if l, ok := s.encodeApp(e); ok {
			return l
		}
	}
	return s.atom(e)
}

func (s *GiniSession) encodeApp(e *theory.App) (z.Lit, bool) {
	c := s.circuit
	switch e.Op {
	case theory.OpNot:
		return s.encode(e.Args[0]).Not(), true
	case theory.OpAnd:
		return c.Ands(s.encodeAll(e.Args)...), true
	case theory.OpOr:
		return c.Ors(s.encodeAll(e.Args)...), true
	case theory.OpXor:
		lits := s.encodeAll(e.Args)
		acc := lits[0]
		for _, l := range lits[1:] {
			acc = c.Or(c.And(acc, l.Not()), c.And(acc.Not(), l))
		}
		return acc, true
	case theory.OpImplies:
		return c.Or(s.encode(e.Args[0]).Not(), s.encode(e.Args[1])), true
	case theory.OpEq:
		if !types.Equal(e.Args[0].Type(), types.Bool) {
			return z.LitNull, false
		}
		a, b := s.encode(e.Args[0]), s.encode(e.Args[1])
		return c.Or(c.And(a, b), c.And(a.Not(), b.Not())), true
	case theory.OpIte:
		if !types.Equal(e.Type(), types.Bool) {
			return z.LitNull, false
		}
		i := s.encode(e.Args[0])
		t, f := s.encode(e.Args[1]), s.encode(e.Args[2])
		return c.Or(c.And(i, t), c.And(i.Not(), f)), true
	}
	return z.LitNull, false
}

func (s *GiniSession) encodeAll(es []theory.Expr) []z.Lit {
	out := make([]z.Lit, len(es))
	for i, e := range es {
		out[i] = s.encode(e)
	}
	return out
}

func (s *GiniSession) atom(e theory.Expr) z.Lit {
	s.abstracted = true
	key := e.String()
	l, ok := s.atoms[key]
	if !ok {
		l = s.circuit.Lit()
		s.atoms[key] = l
	}
	return l
}

func logQuery(w io.Writer, conds []theory.Expr, res Result) {
	if w == io.Discard {
		return
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	fmt.Fprintf(w, "(check-sat-assuming (%s)) ; %s\n", strings.Join(parts, " "), res)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
