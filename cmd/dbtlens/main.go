// Package main provides the dbtlens CLI entrypoint.
package main

import (
	"os"

	"github.com/leapstack-labs/dbtlens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
