package sim

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sarchlab/isasem/solver"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

// Simulator runs bodies symbolically. A simulator holds a solver session
// and must not be used by more than one goroutine at a time.
type Simulator struct {
	maxSteps  int
	timeLimit time.Duration
	pathSat   bool
	session   solver.Session
	logger    *zap.Logger
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithMaxSteps bounds the number of statements and terminators executed
// across all paths. A value of 0 means no limit.
func WithMaxSteps(n int) SimulatorOption {
	return func(s *Simulator) {
		s.maxSteps = n
	}
}

// WithTimeLimit bounds the wall-clock time of a run. A value of 0 means no
// limit.
func WithTimeLimit(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		s.timeLimit = d
	}
}

// WithPathSatChecking enables pruning of branch sides the solver proves
// infeasible.
func WithPathSatChecking(enabled bool) SimulatorOption {
	return func(s *Simulator) {
		s.pathSat = enabled
	}
}

// WithSolver sets the session used for path-satisfiability queries.
func WithSolver(sess solver.Session) SimulatorOption {
	return func(s *Simulator) {
		s.session = sess
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) SimulatorOption {
	return func(s *Simulator) {
		s.logger = l
	}
}

// NewSimulator creates a simulator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PathSatChecking reports whether branch pruning is enabled.
func (s *Simulator) PathSatChecking() bool {
	return s.pathSat && s.session != nil
}

// Run executes body on args and an initial store. The store is not
// modified. An error is returned for malformed bodies; every other outcome
// is a Result.
func (s *Simulator) Run(body *Body, args []Value, store *Store) (Result, error) {
	if err := body.Validate(); err != nil {
		return nil, err
	}
	if len(args) != len(body.Params) {
		return nil, fmt.Errorf("body %s takes %d arguments, got %d", body.Name, len(body.Params), len(args))
	}
	for i, a := range args {
		if !types.SurfaceEqual(a.Type(), body.Params[i]) {
			return nil, fmt.Errorf("body %s: argument %d has type %s, want %s",
				body.Name, i, a.Type(), body.Params[i])
		}
	}

	r := &run{
		sim:     s,
		body:    body,
		args:    args,
		start:   time.Now(),
		builder: theory.NewBuilder(),
		fns:     make(map[string]*theory.Function),
	}
	out, err := r.explore(&state{
		block:   body.Blocks[0],
		locals:  make(map[string]Value),
		store:   store.Clone(),
		defined: theory.True,
	})
	if err != nil {
		return nil, fmt.Errorf("body %s: %w", body.Name, err)
	}

	switch {
	case out.timeout:
		return &TimeoutResult{Steps: r.steps, Elapsed: time.Since(r.start)}, nil
	case out.value == nil:
		return &AbortedResult{Reason: out.abort, Steps: r.steps}, nil
	case len(out.aborted) == 0 && out.defined == theory.True:
		return &TotalResult{Value: out.value, Store: out.store, Steps: r.steps}, nil
	default:
		return &PartialResult{
			Value:     out.value,
			Store:     out.store,
			Condition: out.defined,
			Aborted:   out.aborted,
			Steps:     r.steps,
		}, nil
	}
}

type run struct {
	sim     *Simulator
	body    *Body
	args    []Value
	start   time.Time
	steps   int
	builder *theory.Builder
	fns     map[string]*theory.Function
}

type state struct {
	block   *Block
	locals  map[string]Value
	store   *Store
	path    []theory.Expr
	defined theory.Expr
}

func (st *state) fork(cond theory.Expr) *state {
	locals := make(map[string]Value, len(st.locals))
	for k, v := range st.locals {
		locals[k] = v
	}
	path := make([]theory.Expr, len(st.path), len(st.path)+1)
	copy(path, st.path)
	return &state{
		block:   st.block,
		locals:  locals,
		store:   st.store.Clone(),
		path:    append(path, cond),
		defined: st.defined,
	}
}

// outcome is what one explored subtree produced. A nil value means every
// path in the subtree aborted.
type outcome struct {
	value   Value
	store   *Store
	defined theory.Expr
	aborted []AbortReason
	abort   AbortReason
	timeout bool
}

func (r *run) tick() bool {
	r.steps++
	if r.sim.maxSteps > 0 && r.steps > r.sim.maxSteps {
		return false
	}
	if r.sim.timeLimit > 0 && time.Since(r.start) > r.sim.timeLimit {
		return false
	}
	return true
}

func (r *run) explore(st *state) (*outcome, error) {
	for {
		blk := st.block
		for _, stmt := range blk.Stmts {
			if !r.tick() {
				return &outcome{timeout: true}, nil
			}
			abort, err := r.exec(st, stmt)
			if err != nil {
				return nil, fmt.Errorf("block %s: %s: %w", blk.Label, stmt, err)
			}
			if abort != "" {
				return &outcome{abort: &AbortedExec{Block: blk.Label, Message: abort}}, nil
			}
		}

		if !r.tick() {
			return &outcome{timeout: true}, nil
		}

		switch t := blk.Term.(type) {
		case *Jump:
			st.block = r.body.block(t.Target)

		case *Return:
			v, err := r.eval(st, t.Value)
			if err != nil {
				return nil, fmt.Errorf("block %s: %s: %w", blk.Label, t, err)
			}
			return &outcome{value: v, store: st.store, defined: st.defined}, nil

		case *Fail:
			return &outcome{abort: &AbortedExec{Block: blk.Label, Message: t.Message}}, nil

		case *Branch:
			cond, err := r.evalBool(st, t.Cond)
			if err != nil {
				return nil, fmt.Errorf("block %s: %s: %w", blk.Label, t, err)
			}
			if lit, ok := cond.(*theory.BoolLit); ok {
				if lit.Value {
					st.block = r.body.block(t.Then)
				} else {
					st.block = r.body.block(t.Else)
				}
				continue
			}
			return r.branch(st, t, cond)
		}
	}
}

func (r *run) branch(st *state, t *Branch, cond theory.Expr) (*outcome, error) {
	notCond, err := theory.Not(cond)
	if err != nil {
		return nil, err
	}

	thenOK, err := r.feasible(st.path, cond)
	if err != nil {
		return nil, err
	}
	elseOK, err := r.feasible(st.path, notCond)
	if err != nil {
		return nil, err
	}

	switch {
	case !thenOK && !elseOK:
		return &outcome{abort: &AbortedExec{Block: st.block.Label, Message: "infeasible path"}}, nil
	case !elseOK:
		r.sim.logger.Debug("pruned infeasible branch side",
			zap.String("block", st.block.Label), zap.String("side", "else"))
		next := st.fork(cond)
		next.block = r.body.block(t.Then)
		return r.explore(next)
	case !thenOK:
		r.sim.logger.Debug("pruned infeasible branch side",
			zap.String("block", st.block.Label), zap.String("side", "then"))
		next := st.fork(notCond)
		next.block = r.body.block(t.Else)
		return r.explore(next)
	}

	thenSt := st.fork(cond)
	thenSt.block = r.body.block(t.Then)
	thenOut, err := r.explore(thenSt)
	if err != nil || thenOut.timeout {
		return thenOut, err
	}

	elseSt := st.fork(notCond)
	elseSt.block = r.body.block(t.Else)
	elseOut, err := r.explore(elseSt)
	if err != nil || elseOut.timeout {
		return elseOut, err
	}

	return merge(cond, notCond, thenOut, elseOut)
}

func merge(cond, notCond theory.Expr, t, e *outcome) (*outcome, error) {
	aborted := append(append([]AbortReason(nil), t.aborted...), e.aborted...)

	switch {
	case t.value == nil && e.value == nil:
		return &outcome{abort: &AbortedBranch{Cond: cond, Then: t.abort, Else: e.abort}}, nil

	case e.value == nil:
		defined, err := theory.And(cond, t.defined)
		if err != nil {
			return nil, err
		}
		return &outcome{value: t.value, store: t.store, defined: defined,
			aborted: append(aborted, e.abort)}, nil

	case t.value == nil:
		defined, err := theory.And(notCond, e.defined)
		if err != nil {
			return nil, err
		}
		return &outcome{value: e.value, store: e.store, defined: defined,
			aborted: append(aborted, t.abort)}, nil
	}

	v, err := mergeValues(cond, t.value, e.value)
	if err != nil {
		return nil, err
	}
	store, err := mergeStores(cond, t.store, e.store)
	if err != nil {
		return nil, err
	}
	defined, err := theory.Ite(cond, t.defined, e.defined)
	if err != nil {
		return nil, err
	}
	return &outcome{value: v, store: store, defined: defined, aborted: aborted}, nil
}

func (r *run) feasible(path []theory.Expr, cond theory.Expr) (bool, error) {
	if !r.sim.PathSatChecking() {
		return true, nil
	}
	query := make([]theory.Expr, 0, len(path)+1)
	query = append(query, path...)
	query = append(query, cond)

	res, err := r.sim.session.Check(query)
	if err != nil {
		return false, fmt.Errorf("path satisfiability check: %w", err)
	}
	return res != solver.Unsat, nil
}

// exec runs one statement. A non-empty message means the path aborted.
func (r *run) exec(st *state, stmt Stmt) (string, error) {
	switch s := stmt.(type) {
	case *Assign:
		v, err := r.eval(st, s.Value)
		if err != nil {
			return "", err
		}
		st.locals[s.Local] = v

	case *WriteGlobal:
		v, err := r.evalBase(st, s.Value)
		if err != nil {
			return "", err
		}
		if err := st.store.Set(s.Global, v); err != nil {
			return "", err
		}

	case *Assert:
		cond, err := r.evalBool(st, s.Cond)
		if err != nil {
			return "", err
		}
		if lit, ok := cond.(*theory.BoolLit); ok {
			if !lit.Value {
				return "assertion failed: " + s.Message, nil
			}
			return "", nil
		}
		st.path = append(st.path, cond)
		defined, err := theory.And(st.defined, cond)
		if err != nil {
			return "", err
		}
		st.defined = defined

	default:
		return "", fmt.Errorf("unknown statement %T", stmt)
	}
	return "", nil
}

func (r *run) eval(st *state, t Term) (Value, error) {
	switch t := t.(type) {
	case *ArgRef:
		if t.Index < 0 || t.Index >= len(r.args) {
			return nil, fmt.Errorf("argument %d out of range", t.Index)
		}
		return r.args[t.Index], nil

	case *LocalRef:
		v, ok := st.locals[t.Name]
		if !ok {
			return nil, fmt.Errorf("read of unassigned local %q", t.Name)
		}
		return v, nil

	case *GlobalRef:
		v, ok := st.store.Get(t.Name)
		if !ok {
			return nil, fmt.Errorf("read of unknown location %q", t.Name)
		}
		return BaseValue{Expr: v}, nil

	case *Lit:
		return BaseValue{Expr: t.Expr}, nil

	case *OpTerm:
		args, err := r.evalBaseAll(st, t.Args)
		if err != nil {
			return nil, err
		}
		e, err := theory.NewApp(t.Op, args, t.Indices...)
		if err != nil {
			return nil, err
		}
		if app, ok := e.(*theory.App); ok {
			if folded, ok := fold(app); ok {
				return BaseValue{Expr: folded}, nil
			}
		}
		return BaseValue{Expr: e}, nil

	case *MakeStruct:
		fields := make([]Value, len(t.Fields))
		for i, f := range t.Fields {
			v, err := r.eval(st, f)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		return StructValue{Fields: fields}, nil

	case *GetField:
		of, err := r.eval(st, t.Of)
		if err != nil {
			return nil, err
		}
		switch of := of.(type) {
		case StructValue:
			if t.Index < 0 || t.Index >= len(of.Fields) {
				return nil, fmt.Errorf("field %d out of range for %s", t.Index, of.Type())
			}
			return of.Fields[t.Index], nil
		case BaseValue:
			e, err := theory.NewApp(theory.OpField, []theory.Expr{of.Expr}, t.Index)
			if err != nil {
				return nil, err
			}
			return BaseValue{Expr: e}, nil
		default:
			return nil, fmt.Errorf("field of %s", of.Type())
		}

	case *CallTerm:
		args, err := r.evalBaseAll(st, t.Args)
		if err != nil {
			return nil, err
		}
		fn, err := r.function(t, args)
		if err != nil {
			return nil, err
		}
		e, err := fn.Apply(args...)
		if err != nil {
			return nil, err
		}
		return BaseValue{Expr: e}, nil

	default:
		return nil, fmt.Errorf("unknown term %T", t)
	}
}

func (r *run) function(t *CallTerm, args []theory.Expr) (*theory.Function, error) {
	argTypes := make([]types.BaseType, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
	}

	if fn, ok := r.fns[t.Name]; ok {
		if !types.EqualAll(fn.ArgTypes(), argTypes) || !types.Equal(fn.Return(), t.Returns) {
			return nil, fmt.Errorf("function %s called at inconsistent types", t.Name)
		}
		return fn, nil
	}

	fn, err := r.builder.UninterpretedFunction(t.Name, argTypes, t.Returns)
	if err != nil {
		return nil, err
	}
	r.fns[t.Name] = fn
	return fn, nil
}

func (r *run) evalBase(st *state, t Term) (theory.Expr, error) {
	v, err := r.eval(st, t)
	if err != nil {
		return nil, err
	}
	b, ok := v.(BaseValue)
	if !ok {
		return nil, fmt.Errorf("%s has type %s, which has no term", t, v.Type())
	}
	return b.Expr, nil
}

func (r *run) evalBaseAll(st *state, ts []Term) ([]theory.Expr, error) {
	out := make([]theory.Expr, len(ts))
	for i, t := range ts {
		e, err := r.evalBase(st, t)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (r *run) evalBool(st *state, t Term) (theory.Expr, error) {
	e, err := r.evalBase(st, t)
	if err != nil {
		return nil, err
	}
	if !types.Equal(e.Type(), types.Bool) {
		return nil, fmt.Errorf("condition %s has type %s", t, e.Type())
	}
	return e, nil
}
