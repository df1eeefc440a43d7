// =============================================================================
// WeChat Order Ledger - Processor Module
// =============================================================================
//
// This module orchestrates the pipeline for a single message, from raw chat
// text to a reviewed batch appended to the ledger.
//
// PROCESSING PIPELINE:
//   1. Format the message into a CSV line via the text-generation collaborator
//   2. Repair and parse the line(s) into records
//   3. Route the batch to its month ledger file and fetch the current content
//   4. Check the new rows for duplicates against that content
//   5. Validate the records against the business rules
//   6. Record everything in the processing history
//
// SUBMISSION:
//   Serialization and the ledger commit are a separate step, because a
//   human reviews the parse/validation/duplicate report first. Submit
//   re-fetches the file, appends (creating with the header row when the
//   file does not exist yet), and commits against the fetched revision. A
//   stale revision comes back as ledger.ErrRevisionConflict; the processor
//   never retries on its own.
//
// ERROR POLICY:
//   Collaborator failures (text generation, ledger fetch/commit) abort the
//   run and are recorded on the history entry. They are never folded into
//   "no duplicates" or "empty ledger": only a positive ErrNotFound from the
//   store is treated as a missing month file.
//
// =============================================================================

package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderledger/internal/dedup"
	"orderledger/internal/history"
	"orderledger/internal/ledger"
	"orderledger/internal/rowcsv"
	"orderledger/internal/types"
	"orderledger/internal/validation"
)

// Formatter is the text-generation collaborator: it turns a free-form chat
// message into one line of 9 comma-separated values. The processor treats
// the result as an untrusted CSV-like string.
type Formatter interface {
	Format(ctx context.Context, message string) (string, error)
}

// Processor wires the pipeline to its collaborators.
type Processor struct {
	formatter Formatter
	store     ledger.FileStore
	history   *history.Store
	ledgerDir string
	now       func() time.Time
}

// New builds a Processor.
//
// store may be nil, in which case the duplicate check is skipped (the
// report stays empty) and submission is unavailable. hist may be nil to
// disable history bookkeeping; both are used by dry runs and tests.
func New(formatter Formatter, store ledger.FileStore, hist *history.Store, ledgerDir string) *Processor {
	return &Processor{
		formatter: formatter,
		store:     store,
		history:   hist,
		ledgerDir: ledgerDir,
		now:       time.Now,
	}
}

// ProcessResult is the full report for one processed message.
type ProcessResult struct {
	// HistoryID is the processing-history entry id, empty without a store.
	HistoryID string

	// OriginalCSV is the raw formatter output, before dialect repair.
	OriginalCSV string

	// FormattedCSV is the content after dialect repair; this is what the
	// records were parsed from.
	FormattedCSV string

	// Records are the parsed rows.
	Records []types.Record

	// Repairs lists the brace-quoting fixes that were applied.
	Repairs []types.Repair

	// Validation is the business-rule report.
	Validation *types.ValidationReport

	// Duplicates is the collision report against the month ledger.
	Duplicates *types.DuplicateReport

	// LedgerPath is the month file the batch is routed to.
	LedgerPath string

	// ExistingContent is the fetched ledger content ("" when the file does
	// not exist yet).
	ExistingContent string
}

// Process runs the pipeline on one message. Validation problems and
// duplicate flags are reported in the result, not as errors; only
// collaborator failures return an error.
func (p *Processor) Process(ctx context.Context, message string) (*ProcessResult, error) {
	historyID := ""
	if p.history != nil {
		id, err := p.history.CreateEntry(message)
		if err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
		historyID = id
	}

	result, err := p.process(ctx, message, historyID)
	if err != nil && historyID != "" {
		// Best effort; the pipeline failure is the interesting error.
		_ = p.history.Fail(historyID, err.Error())
	}
	return result, err
}

func (p *Processor) process(ctx context.Context, message, historyID string) (*ProcessResult, error) {
	raw, err := p.formatter.Format(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("format message: %w", err)
	}

	parsed, err := rowcsv.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse formatted message: %w", err)
	}

	result := &ProcessResult{
		HistoryID:    historyID,
		OriginalCSV:  raw,
		FormattedCSV: parsed.FixedContent,
		Records:      parsed.Records,
		Repairs:      parsed.Repairs,
		LedgerPath:   ledger.MonthFile(p.ledgerDir, parsed.Records, p.now()),
		Duplicates:   &types.DuplicateReport{},
	}

	if p.store != nil {
		existing, _, err := p.store.Get(ctx, result.LedgerPath)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			// First submission of the month; nothing to compare against.
		case err != nil:
			return nil, fmt.Errorf("fetch ledger %s: %w", result.LedgerPath, err)
		default:
			result.ExistingContent = existing
		}

		result.Duplicates = dedup.FindDuplicates(serializedLines(parsed.Records), result.ExistingContent)
	}

	result.Validation = validation.Validate(parsed.Records)

	if p.history != nil {
		if err := p.history.Complete(historyID, result.FormattedCSV, result.LedgerPath); err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
		if err := p.history.SaveValidation(historyID, result.Validation, result.Duplicates, result.Repairs); err != nil {
			return nil, fmt.Errorf("record validation: %w", err)
		}
		if err := p.history.SaveRecords(historyID, result.Records); err != nil {
			return nil, fmt.Errorf("record rows: %w", err)
		}
	}

	return result, nil
}

// serializedLines feeds the duplicate detector lines that already survived
// the parse/serialize round trip, so braces are properly quoted.
func serializedLines(records []types.Record) []string {
	blob := strings.TrimRight(rowcsv.Write(records), "\n")
	if blob == "" {
		return nil
	}
	return strings.Split(blob, "\n")
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitResult describes a completed ledger append.
type SubmitResult struct {
	// LedgerPath is the file the rows were appended to.
	LedgerPath string

	// RowCount is the number of rows appended.
	RowCount int

	// Created reports whether the month file was created by this commit.
	Created bool

	// Commit describes the resulting commit.
	Commit types.CommitInfo
}

// SubmitRecords serializes records and appends them to the ledger file at
// path. Rows that fail validation are rejected here as a final guard; the
// operator-facing review happens before this call.
func (p *Processor) SubmitRecords(ctx context.Context, path string, records []types.Record) (*SubmitResult, error) {
	if p.store == nil {
		return nil, errors.New("no ledger store configured")
	}
	if len(records) == 0 {
		return nil, errors.New("no records to submit")
	}

	if report := validation.Validate(records); !report.Valid {
		return nil, fmt.Errorf("records failed validation: %d row(s) with errors", len(report.Errors))
	}

	return p.submit(ctx, path, rowcsv.Write(records), len(records))
}

// SubmitHistory appends the stored records of a completed run to its
// ledger file and marks the run submitted.
func (p *Processor) SubmitHistory(ctx context.Context, historyID string) (*SubmitResult, error) {
	if p.history == nil {
		return nil, errors.New("no history store configured")
	}

	entry, err := p.history.GetEntry(historyID)
	if err != nil {
		return nil, err
	}
	if entry.Status != history.StatusCompleted {
		return nil, fmt.Errorf("history entry %s is %s, expected %s", historyID, entry.Status, history.StatusCompleted)
	}

	records, err := p.history.RecordsFor(historyID)
	if err != nil {
		return nil, err
	}

	path := entry.LedgerPath
	if path == "" {
		path = ledger.MonthFile(p.ledgerDir, records, p.now())
	}

	result, err := p.SubmitRecords(ctx, path, records)
	if err != nil {
		return nil, err
	}

	if err := p.history.MarkSubmitted(historyID, result.Commit.SHA, result.Commit.URL); err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}
	return result, nil
}

func (p *Processor) submit(ctx context.Context, path, rows string, rowCount int) (*SubmitResult, error) {
	existing, revision, err := p.store.Get(ctx, path)
	created := false
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		existing, revision = "", ""
		created = true
	case err != nil:
		return nil, fmt.Errorf("fetch ledger %s: %w", path, err)
	}

	info, err := p.store.Commit(ctx, path, ledger.Append(existing, rows), revision)
	if err != nil {
		// ErrRevisionConflict passes through wrapped; the caller decides
		// whether to re-run the duplicate check and retry.
		return nil, fmt.Errorf("commit ledger %s: %w", path, err)
	}

	return &SubmitResult{
		LedgerPath: path,
		RowCount:   rowCount,
		Created:    created,
		Commit:     info,
	}, nil
}
