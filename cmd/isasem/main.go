// Package main provides the entry point for isasem.
// isasem extracts closed formulas from ISA pseudocode routines.
package main

import (
	"os"

	"github.com/sarchlab/isasem/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
