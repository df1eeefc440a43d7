// =============================================================================
// WeChat Order Ledger - Process Command
// =============================================================================
//
// This file defines the 'process' command, the entry point of the pipeline.
// It takes one WeChat message, runs it through formatting, repair, parsing,
// validation and duplicate detection, records the run in the history store,
// and prints a review report. Nothing is committed to the ledger here; that
// is what 'submit' is for, after a human has looked at the report.
//
// COMMAND USAGE:
//   orderledger process --file message.txt
//   cat message.txt | orderledger process
//
// FLAGS:
//   --file     : Path to the message text ("-" or omitted reads stdin)
//   --dry-run  : Skip the history store and the ledger fetch (no duplicate
//                check); useful for trying prompts without credentials
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"orderledger/internal/gemini"
	"orderledger/internal/history"
	"orderledger/internal/ledger"
	"orderledger/internal/processor"
	"orderledger/internal/types"
	"orderledger/pkg/utils"
)

// messageFile is the path to the message text.
var messageFile string

// dryRun skips persistence and the ledger fetch.
var dryRun bool

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Format, parse, validate and duplicate-check a WeChat message",
	Long: `The process command sends the message through Gemini to obtain a CSV
row, repairs brace fields, parses and validates the result, and checks it
against the month ledger for likely duplicates (exact phone match, fuzzy
name+address match).

The run is recorded in the local history store; use the printed history id
with 'orderledger submit' once the report looks right.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(
		&messageFile,
		"file",
		"f",
		"-",
		`Path to the message text ("-" reads stdin)`,
	)
	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Skip the history store and the ledger fetch",
	)
}

func runProcess(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	message, err := utils.ReadMessage(messageFile)
	if err != nil {
		return err
	}

	formatter, err := gemini.New(cfg.Gemini)
	if err != nil {
		return err
	}

	var store ledger.FileStore
	var hist *history.Store
	if !dryRun {
		ghStore, err := ledger.NewGitHubStore(cfg.GitHub, cfg.Ledger.Dir)
		if err != nil {
			return err
		}
		store = ghStore

		hist, err = history.New(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer hist.Close()
	}

	log.Printf("processing message (%d bytes)", len(message))

	proc := processor.New(formatter, store, hist, cfg.Ledger.Dir)
	result, err := proc.Process(ctx, message)
	if err != nil {
		return err
	}

	printProcessResult(result)
	return nil
}

// printProcessResult renders the review report.
func printProcessResult(r *processor.ProcessResult) {
	fmt.Println("Formatted CSV:")
	fmt.Println("  " + r.FormattedCSV)
	fmt.Println()

	if len(r.Repairs) > 0 {
		fmt.Printf("Repairs applied (%d):\n", len(r.Repairs))
		for _, repair := range r.Repairs {
			fmt.Printf("  line %d: %s\n", repair.Line, repair.Message)
		}
		fmt.Println()
	}

	fmt.Printf("Parsed %d record(s):\n", len(r.Records))
	for _, record := range r.Records {
		fmt.Printf("  [%d] %s | %s | %s | %s | %s元",
			record.Index, record.CustomerName, record.CustomerPhone,
			utils.Truncate(record.CustomerAddress, 30), record.ProductType,
			record.TransactionAmount)
		if record.GiftNotes != "" {
			fmt.Printf(" | gifts %s", record.GiftNotes)
		}
		fmt.Println()
	}
	fmt.Println()

	printIssues("Validation errors", r.Validation.Errors)
	printIssues("Validation warnings", r.Validation.Warnings)

	if len(r.Duplicates.Indexes) > 0 {
		fmt.Printf("Potential duplicates (%d row(s)):\n", len(r.Duplicates.Indexes))
		for _, detail := range r.Duplicates.Details {
			fmt.Printf("  row %d: %s\n", detail.NewIndex, detail.NewContent)
			for _, matched := range detail.MatchedRows {
				fmt.Printf("    matches ledger row %d [%s]: %s\n",
					matched.ExistingIndex, matched.MatchType,
					utils.Truncate(matched.ExistingContent, 60))
			}
		}
		fmt.Println()
	}

	if r.Validation.Valid {
		fmt.Println("Result: VALID - rows can be submitted")
	} else {
		fmt.Println("Result: INVALID - fix the errors above before submitting")
	}
	fmt.Printf("Ledger file: %s\n", r.LedgerPath)
	if r.HistoryID != "" {
		fmt.Printf("History id:  %s\n", r.HistoryID)
		fmt.Printf("Submit with: orderledger submit --history %s\n", r.HistoryID)
	}
}

func printIssues(title string, issues []types.RowIssues) {
	if len(issues) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, issue := range issues {
		for _, msg := range issue.Messages {
			fmt.Printf("  row %d: %s\n", issue.Row, msg)
		}
	}
	fmt.Println()
}
