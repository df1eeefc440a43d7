// =============================================================================
// WeChat Order Ledger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command all other commands (process, submit, history, export,
// version) are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (orderledger)
//   ├── processCmd (orderledger process)
//   ├── submitCmd  (orderledger submit)
//   ├── historyCmd (orderledger history)
//   ├── exportCmd  (orderledger export)
//   └── versionCmd (orderledger version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"orderledger/internal/config"
)

// cfgFile holds the path to the configuration file, overridable with
// --config.
var cfgFile string

// verbose enables debug logging to stderr when set.
var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "orderledger",
	Short: "WeChat Order Ledger - turn chat messages into validated ledger rows",
	Long: `WeChat Order Ledger ingests a free-form WeChat message describing a
service order, formats it into a fixed 9-column CSV row via Gemini, repairs
and parses the row, validates it against the business rules, flags likely
duplicates against the month ledger hosted on GitHub, and appends accepted
rows to the ledger.

Typical flow:
  orderledger process --file message.txt   # review the parse/validation report
  orderledger submit --history <id>        # append the reviewed batch

The duplicate and validation reports are advisory where the rules say so:
warnings and duplicate flags never block on their own, hard validation
errors do.`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it. Called
// by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadConfig reads the configuration and wires up logging. Every command
// goes through this.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	var sinks []io.Writer
	if verbose {
		sinks = append(sinks, os.Stderr)
	}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		sinks = append(sinks, f)
	}

	if len(sinks) == 0 {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(io.MultiWriter(sinks...))
	}
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("orderledger: ")

	return cfg, nil
}
