// =============================================================================
// WeChat Order Ledger - Export Command
// =============================================================================
//
// Converts a month ledger CSV into an XLSX workbook for people who review
// the ledger in Excel. The source is either a file in the GitHub ledger
// (--path) or a local CSV (--input).
//
// COMMAND USAGE:
//   orderledger export --path "to csv/5月.csv" --out may.xlsx
//   orderledger export --input ./5月.csv --out may.xlsx
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orderledger/internal/ledger"
)

// exportPath names a ledger file in the GitHub repository.
var exportPath string

// exportInput names a local CSV file as the source instead.
var exportInput string

// exportOut is the XLSX output path.
var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month ledger CSV to an XLSX workbook",

	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(
		&exportPath,
		"path",
		"",
		`Ledger file path in the GitHub repository (e.g. "to csv/5月.csv")`,
	)
	exportCmd.Flags().StringVar(
		&exportInput,
		"input",
		"",
		"Local CSV file to export instead of fetching from GitHub",
	)
	exportCmd.Flags().StringVarP(
		&exportOut,
		"out",
		"o",
		"",
		"Output XLSX path (required)",
	)
	exportCmd.MarkFlagRequired("out")
}

func runExport(ctx context.Context) error {
	if (exportPath == "") == (exportInput == "") {
		return errors.New("exactly one of --path or --input is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var content string
	if exportInput != "" {
		data, err := os.ReadFile(exportInput)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", exportInput, err)
		}
		content = string(data)
	} else {
		store, err := ledger.NewGitHubStore(cfg.GitHub, cfg.Ledger.Dir)
		if err != nil {
			return err
		}
		content, _, err = store.Get(ctx, exportPath)
		if err != nil {
			return err
		}
	}

	if err := ledger.ExportXLSX(content, exportOut); err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", exportOut)
	return nil
}
