// Package main is the entry point for the jiraq CLI.
package main

import (
	"fmt"
	"os"

	"github.com/victorlin/jiraq/cmd"
	"github.com/victorlin/jiraq/internal/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
