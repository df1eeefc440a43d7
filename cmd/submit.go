// =============================================================================
// WeChat Order Ledger - Submit Command
// =============================================================================
//
// This file defines the 'submit' command: the ledger append step that runs
// after a human has reviewed the process report.
//
// COMMAND USAGE:
//   orderledger submit --history <id>            # records from a processed run
//   orderledger submit --csv rows.csv --path "to csv/5月.csv"
//
// The command fetches the month file, appends the serialized rows (creating
// the file with its header row when it does not exist yet), and commits
// against the fetched revision token. A revision conflict means someone
// else appended in between: re-run 'process' so the duplicate check sees
// the new rows, then submit again.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"orderledger/internal/history"
	"orderledger/internal/ledger"
	"orderledger/internal/processor"
	"orderledger/internal/rowcsv"
	"orderledger/pkg/utils"
)

// submitHistoryID selects a processed run to submit.
var submitHistoryID string

// submitCSVFile is an alternative source: a local CSV file of rows.
var submitCSVFile string

// submitPath overrides the ledger path (required with --csv).
var submitPath string

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Append reviewed rows to the month ledger on GitHub",
	Long: `The submit command appends rows to the month ledger file. Rows come
either from a completed processing run (--history) or from a local CSV file
(--csv, with --path naming the target ledger file).

Rows are validated once more before the commit; hard errors abort. The
commit uses the revision token fetched just before the append, so a
concurrent submission surfaces as a conflict instead of silently clobbering
the file.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(
		&submitHistoryID,
		"history",
		"",
		"History id of the processed run to submit",
	)
	submitCmd.Flags().StringVar(
		&submitCSVFile,
		"csv",
		"",
		"Path to a local CSV file of rows to submit",
	)
	submitCmd.Flags().StringVar(
		&submitPath,
		"path",
		"",
		`Ledger file path (e.g. "to csv/5月.csv"); computed from the rows when omitted`,
	)
}

func runSubmit(ctx context.Context) error {
	if (submitHistoryID == "") == (submitCSVFile == "") {
		return errors.New("exactly one of --history or --csv is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := ledger.NewGitHubStore(cfg.GitHub, cfg.Ledger.Dir)
	if err != nil {
		return err
	}

	hist, err := history.New(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer hist.Close()

	proc := processor.New(nil, store, hist, cfg.Ledger.Dir)

	var result *processor.SubmitResult
	if submitHistoryID != "" {
		result, err = proc.SubmitHistory(ctx, submitHistoryID)
	} else {
		result, err = submitCSV(ctx, proc, cfg.Ledger.Dir)
	}
	if err != nil {
		if errors.Is(err, ledger.ErrRevisionConflict) {
			return fmt.Errorf("%w\nthe ledger changed since it was fetched; re-run 'process' and submit again", err)
		}
		return err
	}

	if result.Created {
		fmt.Printf("Created %s with %d row(s)\n", result.LedgerPath, result.RowCount)
	} else {
		fmt.Printf("Appended %d row(s) to %s\n", result.RowCount, result.LedgerPath)
	}
	fmt.Printf("Commit: %s\n", result.Commit.SHA)
	if result.Commit.URL != "" {
		fmt.Printf("URL:    %s\n", result.Commit.URL)
	}
	return nil
}

// submitCSV reads rows from a local file, parses them through the normal
// repair/parse path, and submits the resulting records.
func submitCSV(ctx context.Context, proc *processor.Processor, ledgerDir string) (*processor.SubmitResult, error) {
	content, err := utils.ReadMessage(submitCSVFile)
	if err != nil {
		return nil, err
	}

	parsed, err := rowcsv.Parse(content)
	if err != nil {
		return nil, err
	}
	if len(parsed.Records) == 0 {
		return nil, errors.New("no parseable rows in " + submitCSVFile)
	}

	path := submitPath
	if path == "" {
		path = ledger.MonthFile(ledgerDir, parsed.Records, time.Now())
	}

	return proc.SubmitRecords(ctx, path, parsed.Records)
}
