package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/isasem/report"
)

func newReportCmd(g *globals) *cobra.Command {
	var dbPath string
	c := &cobra.Command{
		Use:   "report",
		Short: "Query recorded batch outcomes",
	}
	c.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite report file (overrides report_db)")

	open := func() (*report.Store, error) {
		path := g.cfg.ReportDB
		if dbPath != "" {
			path = dbPath
		}
		if path == "" {
			return nil, fmt.Errorf("no report database: pass --db or set report_db")
		}
		return report.Open(path)
	}

	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bs, err := store.Batches(cmd.Context())
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).batches(bs)
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "summary <batch-id>",
		Short: "Count the outcomes of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBatchID(args[0])
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sum, err := store.Summary(cmd.Context(), id)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).summary(sum)
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "failures <batch-id>",
		Short: "List the failed routines of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBatchID(args[0])
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fs, err := store.Failures(cmd.Context(), id)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			for _, f := range fs {
				p.failure(f.Routine, f.Category, f.Message, f.Trace)
			}
			return nil
		},
	})
	return c
}

func parseBatchID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid batch id %q: %w", s, err)
	}
	return id, nil
}
