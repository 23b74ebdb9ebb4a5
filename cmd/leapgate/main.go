// Package main provides the CLI for the leapgate SQL analytics gateway.
package main

import (
	"os"

	"github.com/leapstack-labs/leapgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
