package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/isasem/arch"
	"github.com/sarchlab/isasem/loader"
	"github.com/sarchlab/isasem/sig"
)

func newCatalogCmd(_ *globals) *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "catalog [arch]",
		Short: "List the global locations of an architecture",
		Long: `Lists the global locations of a built-in architecture, or of the
catalog declared in an architecture file.
Example) isasem catalog aarch64
Example) isasem catalog --file toy.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				catalog *sig.Catalog
				err     error
			)
			switch {
			case file != "" && len(args) > 0:
				return fmt.Errorf("give either an architecture name or --file, not both")
			case file != "":
				var a *loader.Architecture
				if a, err = loader.Load(file); err != nil {
					return err
				}
				catalog = a.Catalog
			case len(args) > 0:
				if catalog, err = arch.Lookup(args[0]); err != nil {
					return err
				}
			default:
				catalog = arch.AArch64()
			}
			newPrinter(cmd.OutOrStdout()).catalog(catalog)
			return nil
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", "Architecture file declaring the catalog")
	return c
}
