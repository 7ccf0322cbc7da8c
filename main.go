// Package main provides the entry point for isasem.
//
// The same command line is built as ./cmd/isasem.
package main

import (
	"os"

	"github.com/sarchlab/isasem/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
