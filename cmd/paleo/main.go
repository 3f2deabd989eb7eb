// Package main provides the paleo CLI.
package main

import (
	"os"

	"github.com/paleoml/paleo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
