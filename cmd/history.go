// =============================================================================
// WeChat Order Ledger - History Command
// =============================================================================
//
// Lists recent processing runs from the local history store, or shows one
// run in full when given its id.
//
// COMMAND USAGE:
//   orderledger history
//   orderledger history --limit 50
//   orderledger history --id <history-id>
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"orderledger/internal/history"
	"orderledger/pkg/utils"
)

// historyLimit caps the number of runs listed.
var historyLimit int

// historyID selects a single run to show in full.
var historyID string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent processing runs",
	Long: `The history command lists recent processing runs from the local
store, newest first: id, status, a snippet of the original message, and the
ledger commit if the run was submitted. With --id it shows one run in full,
including the formatted CSV.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(
		&historyLimit,
		"limit",
		20,
		"Maximum number of runs to list",
	)
	historyCmd.Flags().StringVar(
		&historyID,
		"id",
		"",
		"Show a single run in full",
	)
}

func runHistory() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	hist, err := history.New(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer hist.Close()

	if historyID != "" {
		entry, err := hist.GetEntry(historyID)
		if err != nil {
			return err
		}
		printEntry(entry)
		return nil
	}

	entries, err := hist.ListEntries(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No processing runs recorded yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %-10s  %s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Status, e.ID, utils.Truncate(e.OriginalMessage, 40))
		if e.Status == history.StatusSubmitted {
			fmt.Printf("%34s-> %s (%s)\n", "", e.LedgerPath, utils.Truncate(e.CommitSHA, 8))
		}
	}
	return nil
}

func printEntry(e *history.Entry) {
	fmt.Printf("Id:          %s\n", e.ID)
	fmt.Printf("Status:      %s\n", e.Status)
	fmt.Printf("Created:     %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Message:     %s\n", e.OriginalMessage)
	if e.FormattedCSV != "" {
		fmt.Printf("CSV:         %s\n", e.FormattedCSV)
	}
	if e.LedgerPath != "" {
		fmt.Printf("Ledger file: %s\n", e.LedgerPath)
	}
	if e.CommitSHA != "" {
		fmt.Printf("Commit:      %s\n", e.CommitSHA)
	}
	if e.CommitURL != "" {
		fmt.Printf("URL:         %s\n", e.CommitURL)
	}
	if e.ErrorMessage != "" {
		fmt.Printf("Error:       %s\n", e.ErrorMessage)
	}
}
