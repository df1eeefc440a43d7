// =============================================================================
// WeChat Order Ledger - Processing History Store
// =============================================================================
//
// Local SQLite store recording every processing run: the original message,
// the formatted CSV, the validation and duplicate reports, the parsed
// records, and the eventual ledger commit. The store is bookkeeping around
// the pipeline, not part of it; the pipeline itself performs no I/O.
//
// STATUS LIFECYCLE:
//   processing -> completed -> submitted
//              -> failed
//
// =============================================================================

package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"orderledger/internal/types"
)

// Processing run statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusSubmitted  = "submitted"
)

// Entry is one processing-history row.
type Entry struct {
	ID              string
	OriginalMessage string
	FormattedCSV    string
	Status          string
	ErrorMessage    string
	LedgerPath      string
	CommitSHA       string
	CommitURL       string
	CreatedAt       time.Time
}

// Store wraps the SQLite connection.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the history database at dbPath.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create history db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS processing_history (
			id TEXT PRIMARY KEY,
			original_message TEXT NOT NULL,
			formatted_csv TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'processing',
			error_message TEXT NOT NULL DEFAULT '',
			ledger_path TEXT NOT NULL DEFAULT '',
			commit_sha TEXT NOT NULL DEFAULT '',
			commit_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_records (
			id TEXT PRIMARY KEY,
			history_id TEXT NOT NULL REFERENCES processing_history(id),
			row_index INTEGER NOT NULL,
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL DEFAULT '',
			customer_address TEXT NOT NULL,
			product_type TEXT NOT NULL DEFAULT '',
			transaction_amount TEXT NOT NULL DEFAULT '',
			area TEXT NOT NULL DEFAULT '',
			fulfillment_date TEXT NOT NULL DEFAULT '',
			point_count TEXT NOT NULL DEFAULT '',
			gift_notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS validation_results (
			history_id TEXT PRIMARY KEY REFERENCES processing_history(id),
			is_valid INTEGER NOT NULL DEFAULT 0,
			errors TEXT NOT NULL DEFAULT '[]',
			warnings TEXT NOT NULL DEFAULT '[]',
			duplicate_indexes TEXT NOT NULL DEFAULT '[]',
			match_details TEXT NOT NULL DEFAULT '[]',
			repairs TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_history ON order_records(history_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_phone ON order_records(customer_phone)`,
		`CREATE INDEX IF NOT EXISTS idx_history_status ON processing_history(status)`,
	}

	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// ── Processing history ────────────────────────────────────────────────────

// CreateEntry inserts a new run in the processing state and returns its id.
func (s *Store) CreateEntry(originalMessage string) (string, error) {
	id := uuid.New().String()
	_, err := s.conn.Exec(
		`INSERT INTO processing_history (id, original_message, status, created_at) VALUES (?, ?, ?, ?)`,
		id, originalMessage, StatusProcessing, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("create history entry: %w", err)
	}
	return id, nil
}

// Complete marks a run completed with its formatted CSV and ledger path.
func (s *Store) Complete(id, formattedCSV, ledgerPath string) error {
	_, err := s.conn.Exec(
		`UPDATE processing_history SET status = ?, formatted_csv = ?, ledger_path = ? WHERE id = ?`,
		StatusCompleted, formattedCSV, ledgerPath, id,
	)
	return err
}

// Fail marks a run failed with the failure message.
func (s *Store) Fail(id, errorMessage string) error {
	_, err := s.conn.Exec(
		`UPDATE processing_history SET status = ?, error_message = ? WHERE id = ?`,
		StatusFailed, errorMessage, id,
	)
	return err
}

// MarkSubmitted records the ledger commit for a completed run.
func (s *Store) MarkSubmitted(id, commitSHA, commitURL string) error {
	_, err := s.conn.Exec(
		`UPDATE processing_history SET status = ?, commit_sha = ?, commit_url = ? WHERE id = ?`,
		StatusSubmitted, commitSHA, commitURL, id,
	)
	return err
}

// GetEntry loads one run by id.
func (s *Store) GetEntry(id string) (*Entry, error) {
	e := &Entry{}
	err := s.conn.QueryRow(
		`SELECT id, original_message, formatted_csv, status, error_message,
		 ledger_path, commit_sha, commit_url, created_at
		 FROM processing_history WHERE id = ?`, id,
	).Scan(&e.ID, &e.OriginalMessage, &e.FormattedCSV, &e.Status, &e.ErrorMessage,
		&e.LedgerPath, &e.CommitSHA, &e.CommitURL, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get history entry %s: %w", id, err)
	}
	return e, nil
}

// ListEntries returns the most recent runs, newest first.
func (s *Store) ListEntries(limit int) ([]Entry, error) {
	rows, err := s.conn.Query(
		`SELECT id, original_message, formatted_csv, status, error_message,
		 ledger_path, commit_sha, commit_url, created_at
		 FROM processing_history ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OriginalMessage, &e.FormattedCSV, &e.Status, &e.ErrorMessage,
			&e.LedgerPath, &e.CommitSHA, &e.CommitURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ── Records ───────────────────────────────────────────────────────────────

// SaveRecords stores the parsed records of a run.
func (s *Store) SaveRecords(historyID string, records []types.Record) error {
	for _, r := range records {
		_, err := s.conn.Exec(
			`INSERT INTO order_records (id, history_id, row_index, customer_name, customer_phone,
			 customer_address, product_type, transaction_amount, area, fulfillment_date,
			 point_count, gift_notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), historyID, r.Index, r.CustomerName, r.CustomerPhone,
			r.CustomerAddress, r.ProductType, r.TransactionAmount, r.Area, r.FulfillmentDate,
			r.PointCount, r.GiftNotes, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("save record %d: %w", r.Index, err)
		}
	}
	return nil
}

// RecordsFor loads the records of a run in row order.
func (s *Store) RecordsFor(historyID string) ([]types.Record, error) {
	rows, err := s.conn.Query(
		`SELECT row_index, customer_name, customer_phone, customer_address, product_type,
		 transaction_amount, area, fulfillment_date, point_count, gift_notes
		 FROM order_records WHERE history_id = ? ORDER BY row_index`, historyID,
	)
	if err != nil {
		return nil, fmt.Errorf("load records for %s: %w", historyID, err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var r types.Record
		if err := rows.Scan(&r.Index, &r.CustomerName, &r.CustomerPhone, &r.CustomerAddress,
			&r.ProductType, &r.TransactionAmount, &r.Area, &r.FulfillmentDate,
			&r.PointCount, &r.GiftNotes); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ── Validation results ────────────────────────────────────────────────────

// SaveValidation stores the validation, duplicate and repair reports of a
// run as JSON documents.
func (s *Store) SaveValidation(historyID string, validation *types.ValidationReport, duplicates *types.DuplicateReport, repairs []types.Repair) error {
	errsJSON, err := json.Marshal(validation.Errors)
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}
	warnsJSON, err := json.Marshal(validation.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	dupIdxJSON, err := json.Marshal(duplicates.Indexes)
	if err != nil {
		return fmt.Errorf("encode duplicate indexes: %w", err)
	}
	detailsJSON, err := json.Marshal(duplicates.Details)
	if err != nil {
		return fmt.Errorf("encode match details: %w", err)
	}
	repairsJSON, err := json.Marshal(repairs)
	if err != nil {
		return fmt.Errorf("encode repairs: %w", err)
	}

	valid := 0
	if validation.Valid {
		valid = 1
	}

	_, err = s.conn.Exec(
		`INSERT INTO validation_results (history_id, is_valid, errors, warnings,
		 duplicate_indexes, match_details, repairs, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(history_id) DO UPDATE SET
		 is_valid = excluded.is_valid, errors = excluded.errors, warnings = excluded.warnings,
		 duplicate_indexes = excluded.duplicate_indexes, match_details = excluded.match_details,
		 repairs = excluded.repairs`,
		historyID, valid, string(errsJSON), string(warnsJSON),
		string(dupIdxJSON), string(detailsJSON), string(repairsJSON), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save validation result: %w", err)
	}
	return nil
}
