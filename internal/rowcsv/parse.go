// =============================================================================
// WeChat Order Ledger - Row Parser
// =============================================================================
//
// This module turns the (possibly multi-line) delimited blob returned by the
// text-generation step into ordered Record values with the fixed 9-column
// schema.
//
// PARSING PROCESS:
//   1. Split the blob into physical lines and run the dialect repairer on
//      each non-empty line (delimiter splitting is not brace-aware, so the
//      repair must happen first).
//   2. Parse the repaired blob with encoding/csv, honoring quote escaping
//      and embedded delimiters inside quotes.
//   3. Retain rows with at least 7 columns; shorter rows are skipped
//      silently. This tolerates legacy rows by treating the point-count and
//      gift-notes columns as optional, defaulting to "".
//   4. Trim every field and assign Index by position among retained rows.
//
// =============================================================================

package rowcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"orderledger/internal/types"
)

// minColumns is the retention threshold: rows with fewer columns are
// dropped, not errored.
const minColumns = 7

// ParseResult is the outcome of parsing one blob.
type ParseResult struct {
	// Records are the retained rows, indexed 0..n-1 in retention order.
	Records []types.Record

	// Repairs lists every brace-quoting fix applied before parsing, with
	// the 0-based line index each fix occurred on.
	Repairs []types.Repair

	// FixedContent is the blob after line repairs, i.e. the content the
	// records were actually parsed from.
	FixedContent string
}

// NewReader returns a csv.Reader configured for the ledger dialect:
// tolerant of ragged rows, lazy about quoting, and trimming leading space.
// The duplicate detector and the ledger exporter read with the same dialect.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

// Parse repairs and parses a delimited blob into records.
//
// An empty or whitespace-only blob yields an empty result. A blob that
// still fails CSV parsing after repair returns an error; individual short
// rows never do.
func Parse(blob string) (*ParseResult, error) {
	result := &ParseResult{FixedContent: blob}
	if strings.TrimSpace(blob) == "" {
		result.FixedContent = ""
		return result, nil
	}

	// Per-line dialect repair before any delimiter splitting.
	lines := strings.Split(strings.TrimSpace(blob), "\n")
	fixedLines := make([]string, 0, len(lines))

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			fixedLines = append(fixedLines, line)
			continue
		}

		fixedLine, repairs := RepairLine(line)
		fixedLines = append(fixedLines, fixedLine)

		for _, repair := range repairs {
			repair.Line = i
			result.Repairs = append(result.Repairs, repair)
		}
	}

	result.FixedContent = strings.Join(fixedLines, "\n")

	rows, err := NewReader(strings.NewReader(result.FixedContent)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse repaired CSV: %w", err)
	}

	for _, row := range rows {
		if len(row) < minColumns {
			// Documented leniency: structurally short rows are dropped.
			continue
		}
		result.Records = append(result.Records, recordFromRow(row, len(result.Records)))
	}

	return result, nil
}

// recordFromRow maps one raw CSV row onto the fixed schema. Columns 8 and 9
// (point count, gift notes) are optional and default to the empty string.
func recordFromRow(row []string, index int) types.Record {
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	return types.Record{
		Index:             index,
		CustomerName:      field(0),
		CustomerPhone:     field(1),
		CustomerAddress:   field(2),
		ProductType:       field(3),
		TransactionAmount: field(4),
		Area:              field(5),
		FulfillmentDate:   field(6),
		PointCount:        field(7),
		GiftNotes:         field(8),
	}
}
