// Package main provides the report CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/clearviewfp/report-engine/cmd/report-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
