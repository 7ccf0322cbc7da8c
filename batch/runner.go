// Package batch extracts every routine of an architecture in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/isasem/extract"
	"github.com/sarchlab/isasem/formula"
	"github.com/sarchlab/isasem/loader"
	"github.com/sarchlab/isasem/report"
)

// Result is the outcome of one routine.
type Result struct {
	// Routine is the routine that was extracted.
	Routine loader.Routine

	// Formula is the extracted formula; nil on failure.
	Formula formula.Formula

	// Report describes the run.
	Report extract.Report

	// Err is the failure, if any.
	Err error

	// Category classifies Err.
	Category extract.Category
}

// Name returns the routine name.
func (r *Result) Name() string { return r.Routine.Signature.Name() }

// Failed reports whether the routine could not be extracted.
func (r *Result) Failed() bool { return r.Err != nil }

// Outcome is the outcome of a batch.
type Outcome struct {
	// Results has one entry per routine, in input order.
	Results []Result

	// Batch is the report record, when a report store is configured.
	Batch *report.Batch

	Succeeded int
	Failed    int
}

// ProgressFunc is called after each routine completes. Calls are
// serialized.
type ProgressFunc func(done, total int, r *Result)

// Runner runs batches. Routine failures are recorded in the outcome and
// never stop the batch.
type Runner struct {
	extractor *extract.Extractor
	workers   int
	store     *report.Store
	host      string
	user      string
	progress  ProgressFunc
	logger    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of routines extracted at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithReport records every outcome in store, attributed to host and user.
func WithReport(store *report.Store, host, user string) Option {
	return func(r *Runner) {
		r.store = store
		r.host = host
		r.user = user
	}
}

// WithProgress sets the progress callback.
func WithProgress(f ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner around an extractor.
func NewRunner(ext *extract.Extractor, opts ...Option) *Runner {
	r := &Runner{
		extractor: ext,
		workers:   runtime.NumCPU(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	return r
}

// Run extracts routines. The error is non-nil only when the batch itself
// could not run: a cancelled context or a failing report store.
func (r *Runner) Run(ctx context.Context, routines []loader.Routine) (*Outcome, error) {
	out := &Outcome{Results: make([]Result, len(routines))}

	if r.store != nil {
		b, err := r.store.BeginBatch(ctx, r.extractor.Catalog().Arch(), r.host, r.user)
		if err != nil {
			return nil, err
		}
		out.Batch = b
		r.logger.Info("batch started", zap.String("batch", b.ID.String()), zap.Int("routines", len(routines)))
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range routines {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := &out.Results[i]
			res.Routine = routines[i]
			r.extractOne(gctx, res)

			if out.Batch != nil {
				if err := r.record(gctx, out.Batch, res); err != nil {
					return err
				}
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if res.Failed() {
				out.Failed++
			} else {
				out.Succeeded++
			}
			if r.progress != nil {
				r.progress(done, len(routines), res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.logger.Info("batch finished", zap.Int("succeeded", out.Succeeded), zap.Int("failed", out.Failed))
	return out, nil
}

func (r *Runner) extractOne(ctx context.Context, res *Result) {
	f, rep, err := r.extractor.ExtractReport(ctx, res.Routine.Signature, res.Routine.Body)
	res.Formula, res.Report, res.Err = f, rep, err
	if err != nil {
		res.Category = extract.Classify(err)
		r.logger.Debug("routine failed",
			zap.String("routine", res.Name()),
			zap.String("category", string(res.Category)),
			zap.Error(err))
	}
}

func (r *Runner) record(ctx context.Context, b *report.Batch, res *Result) error {
	var err error
	if res.Failed() {
		err = r.store.RecordFailure(ctx, b, res.Name(), string(res.Category), res.Err.Error(), trace(res.Err))
	} else {
		err = r.store.RecordSuccess(ctx, b, res.Name(), res.Routine.Signature.Kind().String(), res.Report.Steps)
	}
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", res.Name(), err)
	}
	return nil
}

func trace(err error) []string {
	var abort *extract.SimulationAbortError
	if errors.As(err, &abort) {
		return abort.Trace
	}
	return nil
}
