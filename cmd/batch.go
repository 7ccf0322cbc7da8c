package cmd

import (
	"fmt"
	"io"
	"os"
	"os/user"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/isasem/batch"
	"github.com/sarchlab/isasem/loader"
	"github.com/sarchlab/isasem/report"
)

type batchFlags struct {
	reportDB   string
	workers    int
	noProgress bool
}

func newBatchCmd(g *globals) *cobra.Command {
	f := &batchFlags{}
	c := &cobra.Command{
		Use:   "batch <arch.yaml> [routine...]",
		Short: "Extract every routine of an architecture in parallel",
		Long: `Extracts the routines of an architecture file with a pool of workers,
each with its own solver session, and prints one status line per routine.
Outcomes are recorded in the report database when one is configured.
Example) isasem batch --report results.db aarch64.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g, f, args[0], args[1:])
		},
	}
	c.Flags().StringVar(&f.reportDB, "report", "", "SQLite file recording the outcomes (overrides report_db)")
	c.Flags().IntVarP(&f.workers, "workers", "j", 0, "Number of parallel extractions (overrides workers)")
	c.Flags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
	return c
}

func runBatch(cmd *cobra.Command, g *globals, f *batchFlags, path string, names []string) error {
	a, err := loader.Load(path)
	if err != nil {
		return err
	}
	routines, err := selectRoutines(a, names)
	if err != nil {
		return err
	}

	ext, closeLog, err := newExtractor(g.cfg, a, cmd.ErrOrStderr(), g.logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	workers := g.cfg.Workers
	if f.workers > 0 {
		workers = f.workers
	}
	opts := []batch.Option{
		batch.WithWorkers(workers),
		batch.WithLogger(g.logger.Named("batch")),
	}

	dbPath := g.cfg.ReportDB
	if f.reportDB != "" {
		dbPath = f.reportDB
	}
	if dbPath != "" {
		store, err := report.Open(dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		host, who := identity()
		opts = append(opts, batch.WithReport(store, host, who))
	}

	errOut := cmd.ErrOrStderr()
	if !f.noProgress && isTerminal(errOut) {
		bar := newProgressBar(errOut, a.Name, len(routines))
		opts = append(opts, batch.WithProgress(func(_, _ int, _ *batch.Result) {
			_ = bar.Add(1)
		}))
		defer func() { _ = bar.Finish() }()
	}

	ctx, cancel := g.context()
	defer cancel()

	g.logger.Debug("running batch",
		zap.String("arch", a.Name),
		zap.Int("routines", len(routines)),
		zap.Int("workers", workers))
	out, err := batch.NewRunner(ext, opts...).Run(ctx, routines)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	newPrinter(cmd.OutOrStdout()).outcome(out)
	if out.Failed > 0 {
		return fmt.Errorf("%d of %d routines failed", out.Failed, len(routines))
	}
	return nil
}

func newProgressBar(w io.Writer, description string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// identity returns the host and user a batch is attributed to.
func identity() (string, string) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	who := "unknown"
	if u, err := user.Current(); err == nil {
		who = u.Username
	}
	return host, who
}
