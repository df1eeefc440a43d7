package history

import (
	"path/filepath"
	"strings"
	"testing"

	"orderledger/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewAppliesConnectionPragmas(t *testing.T) {
	s := newTestStore(t)

	var mode string
	if err := s.conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int
	if err := s.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestEntryLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateEntry("客户张三，成交5000元")
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	entry, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if entry.Status != StatusProcessing {
		t.Errorf("Status = %q, want %q", entry.Status, StatusProcessing)
	}
	if entry.OriginalMessage != "客户张三，成交5000元" {
		t.Errorf("OriginalMessage = %q", entry.OriginalMessage)
	}

	if err := s.Complete(id, "张三,13800138000,地址,国标,5000,100,2024-01-15,5,", "to csv/1月.csv"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	entry, err = s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if entry.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", entry.Status, StatusCompleted)
	}
	if entry.LedgerPath != "to csv/1月.csv" {
		t.Errorf("LedgerPath = %q", entry.LedgerPath)
	}

	if err := s.MarkSubmitted(id, "abc123", "https://example.com/c"); err != nil {
		t.Fatalf("MarkSubmitted() error = %v", err)
	}
	entry, err = s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if entry.Status != StatusSubmitted || entry.CommitSHA != "abc123" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestFailRecordsErrorMessage(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateEntry("message")
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if err := s.Fail(id, "gemini: rate limited"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	entry, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if entry.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", entry.Status, StatusFailed)
	}
	if entry.ErrorMessage != "gemini: rate limited" {
		t.Errorf("ErrorMessage = %q", entry.ErrorMessage)
	}
}

func TestGetEntryUnknownID(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetEntry("no-such-id"); err == nil {
		t.Fatal("GetEntry() expected an error for an unknown id")
	}
}

func TestSaveAndLoadRecords(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateEntry("message")
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	records := []types.Record{
		{
			Index: 0, CustomerName: "张三", CustomerPhone: "13800138000",
			CustomerAddress: "北京市朝阳区某小区", ProductType: "国标",
			TransactionAmount: "5000", Area: "100", FulfillmentDate: "2024-01-15",
			PointCount: "5", GiftNotes: "{除醛宝:2}",
		},
		{
			Index: 1, CustomerName: "李四", CustomerAddress: "上海市浦东新区",
			ProductType: "母婴", TransactionAmount: "3000",
		},
	}
	if err := s.SaveRecords(id, records); err != nil {
		t.Fatalf("SaveRecords() error = %v", err)
	}

	loaded, err := s.RecordsFor(id)
	if err != nil {
		t.Fatalf("RecordsFor() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("RecordsFor() = %d records, want 2", len(loaded))
	}
	for i := range records {
		if loaded[i] != records[i] {
			t.Errorf("record %d:\n got  %+v\n want %+v", i, loaded[i], records[i])
		}
	}
}

func TestListEntries(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.CreateEntry("first")
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	id2, err := s.CreateEntry("second")
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	entries, err := s.ListEntries(10)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListEntries() = %d entries, want 2", len(entries))
	}

	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.ID] = true
	}
	if !seen[id1] || !seen[id2] {
		t.Errorf("entries missing ids: %+v", entries)
	}

	limited, err := s.ListEntries(1)
	if err != nil {
		t.Fatalf("ListEntries(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListEntries(1) = %d entries, want 1", len(limited))
	}
}

func TestSaveValidationUpserts(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateEntry("message")
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	validation := &types.ValidationReport{
		Valid:  false,
		Errors: []types.RowIssues{{Row: 0, Messages: []string{"customer name must not be empty"}}},
	}
	duplicates := &types.DuplicateReport{Indexes: []int{0}}
	repairs := []types.Repair{{Original: "{x:1}", Fixed: `"{x:1}"`, Message: "wrapped"}}

	if err := s.SaveValidation(id, validation, duplicates, repairs); err != nil {
		t.Fatalf("SaveValidation() error = %v", err)
	}

	// Saving again for the same run must overwrite, not fail.
	validation.Valid = true
	validation.Errors = nil
	if err := s.SaveValidation(id, validation, &types.DuplicateReport{}, nil); err != nil {
		t.Fatalf("second SaveValidation() error = %v", err)
	}
}
