// Package cmd implements the isasem command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/isasem/config"
)

const defaultTimeout = 30 * time.Minute

// globals holds the state shared by every subcommand.
type globals struct {
	cfgFile string
	verbose bool
	timeout time.Duration

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the isasem command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "isasem",
		Short:         "isasem - extract formulas from ISA pseudocode routines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&g.cfgFile, "config", "", "Path to JSON configuration file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", defaultTimeout, "Timeout for the whole command")

	root.AddCommand(newExtractCmd(g))
	root.AddCommand(newBatchCmd(g))
	root.AddCommand(newCatalogCmd(g))
	root.AddCommand(newReportCmd(g))
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		newPrinter(os.Stderr).errorf("%v", err)
		return 1
	}
	return 0
}

func (g *globals) setup() error {
	var err error
	if g.verbose {
		g.logger, err = zap.NewDevelopment()
	} else {
		g.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if g.cfgFile == "" {
		g.cfg = config.DefaultConfig()
	} else if g.cfg, err = config.LoadConfig(g.cfgFile); err != nil {
		return err
	}
	if err := g.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	g.logger.Debug("configuration loaded", zap.String("path", g.cfgFile))
	return nil
}

func (g *globals) context() (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), g.timeout)
}

// openSolverLog returns the solver log destination and a function closing
// it. Empty discards the log, "-" writes to errOut.
func openSolverLog(path string, errOut io.Writer) (io.Writer, func() error, error) {
	switch path {
	case "":
		return io.Discard, func() error { return nil }, nil
	case "-":
		return errOut, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create solver log file: %w", err)
	}
	return f, f.Close, nil
}
