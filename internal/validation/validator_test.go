package validation

import (
	"strings"
	"testing"

	"orderledger/internal/types"
)

// validRecord returns a record that passes every rule.
func validRecord() types.Record {
	return types.Record{
		Index:             0,
		CustomerName:      "张三",
		CustomerPhone:     "13800138000",
		CustomerAddress:   "北京市朝阳区某小区",
		ProductType:       "国标",
		TransactionAmount: "5000",
		Area:              "100",
		FulfillmentDate:   "2024-01-15",
		PointCount:        "5",
		GiftNotes:         "{除醛宝:2}",
	}
}

func TestValidateAcceptsValidRecord(t *testing.T) {
	report := Validate([]types.Record{validRecord()})

	if !report.Valid {
		t.Errorf("Valid = false, errors: %+v", report.Errors)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Errors = %+v, want none", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Warnings = %+v, want none", report.Warnings)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Record)
		message string
	}{
		{"empty name", func(r *types.Record) { r.CustomerName = "" }, "customer name"},
		{"short phone", func(r *types.Record) { r.CustomerPhone = "123" }, "11-digit"},
		{"landline phone", func(r *types.Record) { r.CustomerPhone = "01012345678" }, "11-digit"},
		{"empty address", func(r *types.Record) { r.CustomerAddress = "" }, "customer address"},
		{"empty amount", func(r *types.Record) { r.TransactionAmount = "" }, "transaction amount"},
		{"non numeric amount", func(r *types.Record) { r.TransactionAmount = "五千" }, "must be a number"},
		{"non numeric area", func(r *types.Record) { r.Area = "abc" }, "area"},
		{"wrong date format", func(r *types.Record) { r.FulfillmentDate = "2024/01/15" }, "YYYY-MM-DD"},
		{"impossible date", func(r *types.Record) { r.FulfillmentDate = "2024-13-45" }, "YYYY-MM-DD"},
		{"bad gift notes", func(r *types.Record) { r.GiftNotes = "除醛宝:2" }, "gift notes"},
		{"unknown gift category", func(r *types.Record) { r.GiftNotes = "{小红罐:1}" }, "gift notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)

			report := Validate([]types.Record{record})
			if report.Valid {
				t.Fatal("Valid = true, want false")
			}
			if len(report.Errors) != 1 {
				t.Fatalf("Errors = %+v, want one row", report.Errors)
			}
			found := false
			for _, msg := range report.Errors[0].Messages {
				if strings.Contains(msg, tt.message) {
					found = true
				}
			}
			if !found {
				t.Errorf("no message containing %q in %v", tt.message, report.Errors[0].Messages)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Record)
		message string
	}{
		{"empty phone", func(r *types.Record) { r.CustomerPhone = "" }, "phone number is empty"},
		{"empty date", func(r *types.Record) { r.FulfillmentDate = "" }, "fulfillment date is empty"},
		{"unknown product type", func(r *types.Record) { r.ProductType = "精装" }, "not recognized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)

			report := Validate([]types.Record{record})
			if !report.Valid {
				t.Fatalf("warnings must not invalidate; errors: %+v", report.Errors)
			}
			if len(report.Warnings) != 1 {
				t.Fatalf("Warnings = %+v, want one row", report.Warnings)
			}
			found := false
			for _, msg := range report.Warnings[0].Messages {
				if strings.Contains(msg, tt.message) {
					found = true
				}
			}
			if !found {
				t.Errorf("no warning containing %q in %v", tt.message, report.Warnings[0].Messages)
			}
		})
	}
}

func TestValidateOptionalFieldsMayBeEmpty(t *testing.T) {
	record := validRecord()
	record.Area = ""
	record.PointCount = ""
	record.GiftNotes = ""
	record.ProductType = ""

	report := Validate([]types.Record{record})
	if !report.Valid {
		t.Errorf("Valid = false, errors: %+v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Warnings = %+v, want none", report.Warnings)
	}
}

func TestValidateCollectsAcrossRows(t *testing.T) {
	bad := validRecord()
	bad.Index = 1
	bad.CustomerName = ""
	bad.TransactionAmount = ""

	report := Validate([]types.Record{validRecord(), bad})
	if report.Valid {
		t.Fatal("Valid = true, want false")
	}
	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %+v, want one row", report.Errors)
	}
	if report.Errors[0].Row != 1 {
		t.Errorf("error row = %d, want 1", report.Errors[0].Row)
	}
	if len(report.Errors[0].Messages) != 2 {
		t.Errorf("messages = %v, want 2", report.Errors[0].Messages)
	}
}

func TestValidateEmptyBatch(t *testing.T) {
	report := Validate(nil)
	if !report.Valid {
		t.Error("empty batch must be valid")
	}
}
