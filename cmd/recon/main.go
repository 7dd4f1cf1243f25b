// Package main is the entry point for the recon CLI.
//
// Usage:
//
//	recon [flags] <command> [subcommand] [args]
//
// Commands:
//
//	config   - Configuration management (contexts, services)
//	voice    - Live voice session from the terminal
//	leads    - Search for companies via a recon API server
//	pitch    - Generate outreach pitches via a recon API server
//	serve    - Run the recon intelligence API server
//	saved    - Manage locally saved companies and jobs
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/reconhq/recon/cmd/recon/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
