// =============================================================================
// WeChat Order Ledger - Main Entry Point
// =============================================================================
//
// This is the main entry point for the order ledger CLI. It initializes the
// Cobra CLI framework and delegates command execution to the cmd package.
//
// USAGE:
//   orderledger process --file message.txt   - Format, parse and check a message
//   orderledger submit --history <id>        - Append a reviewed batch to the ledger
//   orderledger history                      - List recent processing runs
//   orderledger export --path "to csv/5月.csv" --out 5.xlsx
//                                            - Export a month ledger to XLSX
//   orderledger version                      - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : core pipeline and collaborators (not for external import)
//   - pkg/           : shared utilities
//
// =============================================================================

package main

import (
	"orderledger/cmd"
)

func main() {
	cmd.Execute()
}
