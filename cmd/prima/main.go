// Package main is the entry point for the prima CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/prima/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
