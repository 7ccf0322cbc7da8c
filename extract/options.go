package extract

import (
	"io"
	"time"

	"github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"

	"github.com/sarchlab/isasem/cache"
	"github.com/sarchlab/isasem/sim"
	"github.com/sarchlab/isasem/solver"
)

// Engine executes a body symbolically.
type Engine interface {
	Run(body *sim.Body, args []sim.Value, store *sim.Store) (sim.Result, error)
}

// EngineConfig is the per-call configuration handed to an EngineFactory.
type EngineConfig struct {
	MaxSteps  int
	TimeLimit time.Duration
	PathSat   bool
	Session   solver.Session
	Logger    *zap.Logger
}

// EngineFactory builds the engine for one call.
type EngineFactory func(EngineConfig) Engine

// SimulatorEngine is the default EngineFactory, backed by sim.Simulator.
func SimulatorEngine(c EngineConfig) Engine {
	return sim.NewSimulator(
		sim.WithMaxSteps(c.MaxSteps),
		sim.WithTimeLimit(c.TimeLimit),
		sim.WithPathSatChecking(c.PathSat),
		sim.WithSolver(c.Session),
		sim.WithLogger(c.Logger),
	)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxSteps bounds the engine's step count per call.
func WithMaxSteps(n int) Option {
	return func(e *Extractor) {
		e.maxSteps = n
	}
}

// WithTimeLimit bounds the engine's wall-clock time per call.
func WithTimeLimit(d time.Duration) Option {
	return func(e *Extractor) {
		e.timeLimit = d
	}
}

// WithPathSatExceptions names the routines run without path-satisfiability
// pruning.
func WithPathSatExceptions(names ...string) Option {
	return func(e *Extractor) {
		e.pathSatExceptions = set.From(names)
	}
}

// WithSolverFactory sets how each call opens its solver session.
func WithSolverFactory(f solver.Factory) Option {
	return func(e *Extractor) {
		e.newSession = f
	}
}

// WithSolverLog sets the destination of solver diagnostics.
func WithSolverLog(w io.Writer) Option {
	return func(e *Extractor) {
		e.solverLog = w
	}
}

// WithEngine replaces the execution engine.
func WithEngine(f EngineFactory) Option {
	return func(e *Extractor) {
		e.newEngine = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// WithCache reuses formulas across calls with the same routine and body.
func WithCache(c *cache.FormulaCache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}
