package main

import (
	"os"

	"github.com/joefrost01/batch-report/cmd/batchreport/commands"
)

// main is the entry point for the batch report CLI
// ⭐ single CLI entry point: go run ./cmd/batchreport [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
