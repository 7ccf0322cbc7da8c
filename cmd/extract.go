package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/isasem/extract"
	"github.com/sarchlab/isasem/loader"
)

func newExtractCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <arch.yaml> [routine...]",
		Short: "Extract and print the formulas of routines",
		Long: `Extracts the named routines of an architecture file, or all of them,
one after another, and prints each formula.
Example) isasem extract aarch64.yaml LSL64 ADD_X0_X1_imm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, g, args[0], args[1:])
		},
	}
}

func runExtract(cmd *cobra.Command, g *globals, path string, names []string) error {
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

	ctx, cancel := g.context()
	defer cancel()

	out := newPrinter(cmd.OutOrStdout())
	failed := 0
	for _, r := range routines {
		f, err := ext.Extract(ctx, r.Signature, r.Body)
		if err != nil {
			failed++
			category := extract.Classify(err)
			g.logger.Debug("extraction failed",
				zap.String("routine", r.Signature.Name()),
				zap.String("category", string(category)),
				zap.Error(err))
			out.failure(r.Signature.Name(), string(category), err.Error(), abortTrace(err))
			continue
		}
		out.formula(r.Signature, f)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d routines failed", failed, len(routines))
	}
	return nil
}

func abortTrace(err error) []string {
	var abort *extract.SimulationAbortError
	if errors.As(err, &abort) {
		return abort.Trace
	}
	return nil
}
