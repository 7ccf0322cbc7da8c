package cmd

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sarchlab/isasem/cache"
	"github.com/sarchlab/isasem/config"
	"github.com/sarchlab/isasem/extract"
	"github.com/sarchlab/isasem/loader"
	"github.com/sarchlab/isasem/solver"
)

// newExtractor builds an extractor for a loaded architecture from the
// configuration. The returned function releases the solver log.
func newExtractor(
	cfg *config.Config,
	a *loader.Architecture,
	errOut io.Writer,
	logger *zap.Logger,
) (*extract.Extractor, func() error, error) {
	factory, err := solver.New(cfg.Solver)
	if err != nil {
		return nil, nil, err
	}
	solverLog, closeLog, err := openSolverLog(cfg.SolverLog, errOut)
	if err != nil {
		return nil, nil, err
	}

	opts := []extract.Option{
		extract.WithMaxSteps(cfg.MaxSteps),
		extract.WithTimeLimit(cfg.TimeLimit()),
		extract.WithPathSatExceptions(cfg.PathSatExceptions...),
		extract.WithSolverFactory(factory),
		extract.WithSolverLog(solver.SharedLog(solverLog)),
		extract.WithLogger(logger.Named("extract")),
	}
	if cfg.CacheEnabled() {
		c, err := cache.New(cache.Config{Sets: cfg.CacheSets, Ways: cfg.CacheWays})
		if err != nil {
			_ = closeLog()
			return nil, nil, fmt.Errorf("failed to create formula cache: %w", err)
		}
		opts = append(opts, extract.WithCache(c))
	}
	return extract.New(a.Catalog, opts...), closeLog, nil
}

// selectRoutines returns the named routines of a, or all of them when
// names is empty.
func selectRoutines(a *loader.Architecture, names []string) ([]loader.Routine, error) {
	if len(names) == 0 {
		return a.Routines, nil
	}
	out := make([]loader.Routine, 0, len(names))
	for _, name := range names {
		r, ok := a.Routine(name)
		if !ok {
			return nil, fmt.Errorf("architecture %s has no routine %s", a.Name, name)
		}
		out = append(out, r)
	}
	return out, nil
}
