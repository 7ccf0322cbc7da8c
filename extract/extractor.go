// Package extract turns routines of ISA pseudocode into closed formulas by
// running their bodies symbolically on fresh values.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-set/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sarchlab/isasem/cache"
	"github.com/sarchlab/isasem/formula"
	"github.com/sarchlab/isasem/sig"
	"github.com/sarchlab/isasem/sim"
	"github.com/sarchlab/isasem/solver"
	"github.com/sarchlab/isasem/theory"
	"github.com/sarchlab/isasem/types"
)

const tracerName = "isasem/extract"

// Extractor extracts the semantics of routines of one architecture. The
// catalog is shared read-only; every call allocates its own values and
// solver session, so an Extractor may be used from several goroutines.
type Extractor struct {
	catalog           *sig.Catalog
	maxSteps          int
	timeLimit         time.Duration
	pathSatExceptions *set.Set[string]
	newSession        solver.Factory
	solverLog         io.Writer
	newEngine         EngineFactory
	logger            *zap.Logger
	cache             *cache.FormulaCache
}

// New creates an extractor over catalog.
func New(catalog *sig.Catalog, opts ...Option) *Extractor {
	e := &Extractor{
		catalog:           catalog,
		pathSatExceptions: set.New[string](0),
		newSession:        func() (solver.Session, error) { return solver.NewGini(), nil },
		solverLog:         io.Discard,
		newEngine:         SimulatorEngine,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the extractor's location catalog.
func (e *Extractor) Catalog() *sig.Catalog { return e.catalog }

// PathSatEnabled reports whether routine runs with path-satisfiability
// pruning.
func (e *Extractor) PathSatEnabled(routine string) bool {
	return !e.pathSatExceptions.Contains(routine)
}

// Extract dispatches on the signature kind.
func (e *Extractor) Extract(ctx context.Context, s sig.Signature, body *sim.Body) (formula.Formula, error) {
	f, _, err := e.ExtractReport(ctx, s, body)
	return f, err
}

// Report describes how a formula was obtained.
type Report struct {
	// Steps is the number of engine steps of the run.
	Steps int
	// Cached is set when the formula came from the cache and nothing ran.
	Cached bool
}

// ExtractReport is Extract that also describes the run.
func (e *Extractor) ExtractReport(ctx context.Context, s sig.Signature, body *sim.Body) (formula.Formula, Report, error) {
	var (
		f   formula.Formula
		rep Report
		err error
	)
	switch s := s.(type) {
	case *sig.FunctionSignature:
		var ff *formula.FunctionFormula
		ff, rep, err = e.function(ctx, s, body)
		if err == nil {
			f = ff
		}
	case *sig.ProcedureSignature:
		var pf *formula.ProcedureFormula
		pf, rep, err = e.procedure(ctx, s, body)
		if err == nil {
			f = pf
		}
	default:
		err = fmt.Errorf("unknown signature %T", s)
	}
	return f, rep, err
}

// Function extracts the closed definition of a pure routine.
func (e *Extractor) Function(
	ctx context.Context,
	s *sig.FunctionSignature,
	body *sim.Body,
) (*formula.FunctionFormula, error) {
	f, _, err := e.function(ctx, s, body)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (e *Extractor) function(
	ctx context.Context,
	s *sig.FunctionSignature,
	body *sim.Body,
) (*formula.FunctionFormula, Report, error) {
	key := e.cacheKey(s, body)
	if f, ok := e.cached(key); ok {
		if ff, ok := f.(*formula.FunctionFormula); ok {
			return ff, Report{Cached: true}, nil
		}
	}

	var out *formula.FunctionFormula
	steps, err := e.traced(ctx, s, func(c *call) error {
		value, err := c.execute(body)
		if err != nil {
			return err
		}

		expr, err := functionResult(s, value)
		if err != nil {
			return err
		}

		fn, err := c.builder.DefineFunction(s.Name(), c.argVars, expr)
		if err != nil {
			var open *theory.OpenTermError
			if errors.As(err, &open) {
				return &OpenDefinitionError{Signature: s, Free: open.Free}
			}
			return err
		}

		out = &formula.FunctionFormula{
			Name:       s.Name(),
			ArgTypes:   c.argTypes,
			ArgVars:    c.argVars,
			Return:     s.Return(),
			Definition: expr,
			Function:   fn,
			Defined:    formula.EverywhereDefined,
		}
		return out.Validate()
	})
	if err != nil {
		return nil, Report{Steps: steps}, err
	}
	e.store(key, out)
	return out, Report{Steps: steps}, nil
}

// Procedure extracts the effect of a routine on its footprint.
func (e *Extractor) Procedure(
	ctx context.Context,
	s *sig.ProcedureSignature,
	body *sim.Body,
) (*formula.ProcedureFormula, error) {
	f, _, err := e.procedure(ctx, s, body)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (e *Extractor) procedure(
	ctx context.Context,
	s *sig.ProcedureSignature,
	body *sim.Body,
) (*formula.ProcedureFormula, Report, error) {
	key := e.cacheKey(s, body)
	if f, ok := e.cached(key); ok {
		if pf, ok := f.(*formula.ProcedureFormula); ok {
			return pf, Report{Cached: true}, nil
		}
	}

	var out *formula.ProcedureFormula
	steps, err := e.traced(ctx, s, func(c *call) error {
		for _, loc := range s.Footprint() {
			known, ok := e.catalog.Lookup(loc.Name)
			if !ok {
				return &UnknownLocationError{Name: loc.Name}
			}
			if !types.Equal(known.Type, loc.Type) {
				return &LocationTypeError{Name: loc.Name, Declared: loc.Type, Catalog: known.Type}
			}
		}

		value, err := c.execute(body)
		if err != nil {
			return err
		}

		fields, err := procedureResult(s, value)
		if err != nil {
			return err
		}

		pf := formula.ParameterizedFormula{
			OperandVars: c.argVars,
			LiteralVars: c.locVars,
		}
		for i, loc := range s.Footprint() {
			pf.Defs = append(pf.Defs, formula.Def{Param: formula.Location(loc.Name), Expr: fields[i]})
		}
		pf.Uses = pf.ComputeUses()

		out = &formula.ProcedureFormula{Name: s.Name(), ParameterizedFormula: pf}
		return out.Validate()
	})
	if err != nil {
		return nil, Report{Steps: steps}, err
	}
	e.store(key, out)
	return out, Report{Steps: steps}, nil
}

func (e *Extractor) traced(ctx context.Context, s sig.Signature, fn func(*call) error) (int, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "extract."+s.Kind().String(),
		trace.WithAttributes(
			attribute.String("routine", s.Name()),
			attribute.String("arch", e.catalog.Arch()),
		))
	defer span.End()

	logger := e.logger.With(zap.String("routine", s.Name()), zap.String("kind", s.Kind().String()))
	logger.Debug("extracting")

	steps := 0
	c, err := e.newCall(s, logger)
	if err == nil {
		err = fn(c)
		steps = c.steps
	}
	span.SetAttributes(attribute.Int("steps", steps))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(Classify(err)))
		logger.Debug("extraction failed",
			zap.String("category", string(Classify(err))), zap.Error(err))
		return steps, err
	}
	logger.Debug("extracted", zap.Int("steps", steps))
	return steps, nil
}

func (e *Extractor) cacheKey(s sig.Signature, body *sim.Body) cache.Key {
	return cache.Key{
		Arch:        e.catalog.Arch(),
		Catalog:     e.catalog.Fingerprint(),
		Routine:     s.String(),
		Fingerprint: body.Fingerprint(),
	}
}

func (e *Extractor) cached(k cache.Key) (formula.Formula, bool) {
	if e.cache == nil {
		return nil, false
	}
	f, ok := e.cache.Get(k)
	if ok {
		e.logger.Debug("formula cache hit", zap.String("routine", k.Routine))
	}
	return f, ok
}

func (e *Extractor) store(k cache.Key, f formula.Formula) {
	if e.cache == nil {
		return
	}
	if e.cache.Put(k, f) {
		e.logger.Debug("formula cache eviction", zap.String("routine", k.Routine))
	}
}

// call holds the state of one extraction.
type call struct {
	ext      *Extractor
	sig      sig.Signature
	logger   *zap.Logger
	builder  *theory.Builder
	argVars  []*theory.BoundVar
	argTypes []types.BaseType
	args     []sim.Value
	locVars  map[string]*theory.BoundVar
	store    *sim.Store
	steps    int
}

// newCall allocates fresh values for every argument and every catalog
// location. Nothing runs if allocation fails.
func (e *Extractor) newCall(s sig.Signature, logger *zap.Logger) (*call, error) {
	c := &call{
		ext:     e,
		sig:     s,
		logger:  logger,
		builder: theory.NewBuilder(),
		locVars: make(map[string]*theory.BoundVar, e.catalog.Len()),
		store:   sim.NewStore(),
	}

	for _, a := range s.Args() {
		t, err := types.Project(a.Type)
		if err != nil {
			return nil, &CannotAllocateFreshError{Name: a.Name, Type: a.Type, Err: err}
		}
		v, err := c.builder.FreshBoundVar(a.Name, t)
		if err != nil {
			return nil, &CannotAllocateFreshError{Name: a.Name, Type: a.Type, Err: err}
		}
		c.argVars = append(c.argVars, v)
		c.argTypes = append(c.argTypes, t)
		c.args = append(c.args, sim.BaseValue{Expr: theory.Ref(v)})
	}

	for _, loc := range e.catalog.Locations() {
		v, err := c.builder.FreshBoundVar(loc.Name, loc.Type)
		if err != nil {
			return nil, &CannotAllocateFreshError{Name: loc.Name, Type: types.Embed(loc.Type), Err: err}
		}
		if err := c.store.Define(loc.Name, theory.Ref(v)); err != nil {
			return nil, err
		}
		c.locVars[loc.Name] = v
	}
	return c, nil
}

// execute runs body and returns the definite result value.
func (c *call) execute(body *sim.Body) (sim.Value, error) {
	sess, err := c.ext.newSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open solver session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			c.logger.Warn("failed to close solver session", zap.Error(cerr))
		}
	}()
	sess.SetLog(c.ext.solverLog)

	pathSat := c.ext.PathSatEnabled(c.sig.Name())
	if !pathSat {
		c.logger.Debug("path satisfiability checking disabled")
	}

	engine := c.ext.newEngine(EngineConfig{
		MaxSteps:  c.ext.maxSteps,
		TimeLimit: c.ext.timeLimit,
		PathSat:   pathSat,
		Session:   sess,
		Logger:    c.logger,
	})
	res, err := engine.Run(body, c.args, c.store)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", c.sig.Name(), err)
	}

	switch r := res.(type) {
	case *sim.TotalResult:
		c.steps = r.Steps
		return r.Value, nil
	case *sim.PartialResult:
		c.steps = r.Steps
		c.logger.Debug("partial result", zap.Int("aborted_paths", len(r.Aborted)))
		return r.Value, nil
	case *sim.TimeoutResult:
		c.steps = r.Steps
		return nil, &SimulationTimeoutError{Signature: c.sig, Steps: r.Steps}
	case *sim.AbortedResult:
		c.steps = r.Steps
		return nil, &SimulationAbortError{Signature: c.sig, Trace: r.Reason.Explain()}
	default:
		return nil, fmt.Errorf("unknown result %T", res)
	}
}

func functionResult(s *sig.FunctionSignature, v sim.Value) (theory.Expr, error) {
	b, ok := v.(sim.BaseValue)
	if !ok {
		return nil, &NonBaseTypeReturnError{Signature: s, Type: v.Type()}
	}
	if !types.Equal(b.Expr.Type(), s.Return()) {
		return nil, &UnexpectedReturnTypeError{Signature: s, Expected: s.Return(), Actual: b.Expr.Type()}
	}
	return b.Expr, nil
}

// procedureResult splits the returned value into one term per footprint
// location. An engine aggregate and a symbolic struct are both accepted.
func procedureResult(s *sig.ProcedureSignature, v sim.Value) ([]theory.Expr, error) {
	want := s.FootprintStruct()
	shapeErr := &ProcedureShapeError{Signature: s, Expected: want, Actual: v.Type()}

	switch v := v.(type) {
	case sim.StructValue:
		if len(v.Fields) != len(want.Fields) {
			return nil, shapeErr
		}
		out := make([]theory.Expr, len(v.Fields))
		for i, f := range v.Fields {
			b, ok := f.(sim.BaseValue)
			if !ok || !types.Equal(b.Expr.Type(), want.Fields[i]) {
				return nil, shapeErr
			}
			out[i] = b.Expr
		}
		return out, nil

	case sim.BaseValue:
		if !types.Equal(v.Expr.Type(), want) {
			return nil, shapeErr
		}
		out := make([]theory.Expr, len(want.Fields))
		for i := range want.Fields {
			f, err := theory.NewApp(theory.OpField, []theory.Expr{v.Expr}, i)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil

	default:
		return nil, shapeErr
	}
}
