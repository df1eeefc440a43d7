// =============================================================================
// WeChat Order Ledger - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - rowcsv
//   - validation
//   - dedup
//   - processor
//   - history
//
// =============================================================================

package types

import "time"

// =============================================================================
// ORDER RECORD
// =============================================================================

// Record is one normalized service-order entry with the fixed 9-column
// schema produced by the text-generation step.
//
// All fields are kept as trimmed strings. The empty string is the explicit
// "unset" representation: it is what the parser produces for absent optional
// columns and what the serializer writes back. Numeric fields are validated,
// not computed, so they stay textual end to end.
type Record struct {
	// Index is the 0-based position of this record among the retained rows
	// of the batch it was parsed from. It is assigned at parse time and used
	// to correlate validation and duplicate results back to rows.
	Index int

	// CustomerName is the customer's name. Required.
	CustomerName string

	// CustomerPhone is an 11-digit mainland mobile number, or empty.
	CustomerPhone string

	// CustomerAddress is the customer's address. Required.
	CustomerAddress string

	// ProductType is one of the known product types (国标 / 母婴), or empty.
	// Unknown values survive parsing and only draw a validation warning.
	ProductType string

	// TransactionAmount is the deal amount. Required, must parse as a number.
	TransactionAmount string

	// Area is the measured area. Optional, must parse as a number if present.
	Area string

	// FulfillmentDate is the agreed fulfillment date in YYYY-MM-DD form.
	// Optional, but its absence draws a validation warning.
	FulfillmentDate string

	// PointCount is the CMA detection point count. Free-form numeric-ish
	// text; it is echoed downstream, never computed with.
	PointCount string

	// GiftNotes holds the gift annotation in the brace mini-language,
	// e.g. "{除醛宝:2,炭包:1}". Empty means no gifts.
	GiftNotes string
}

// Fields returns the record's values in the fixed 9-column serialization
// order. The order is identical on read and write.
func (r Record) Fields() []string {
	return []string{
		r.CustomerName,
		r.CustomerPhone,
		r.CustomerAddress,
		r.ProductType,
		r.TransactionAmount,
		r.Area,
		r.FulfillmentDate,
		r.PointCount,
		r.GiftNotes,
	}
}

// =============================================================================
// REPAIR RECORD
// =============================================================================

// Repair describes one brace-field auto-quoting action taken by the CSV
// dialect repairer before delimiter parsing.
type Repair struct {
	// Original is the substring as it appeared in the input line.
	Original string

	// Fixed is the substring after quote wrapping.
	Fixed string

	// Message is a human-readable description of the repair.
	Message string

	// Line is the 0-based physical line index the repair occurred on.
	Line int
}

// =============================================================================
// VALIDATION TYPES
// =============================================================================

// RowIssues collects the messages reported for a single row.
type RowIssues struct {
	// Row is the record index the messages belong to.
	Row int

	// Messages are the field-specific error or warning texts.
	Messages []string
}

// ValidationReport is the outcome of validating a batch of records.
type ValidationReport struct {
	// Valid is true iff no row produced an error. Warnings never block.
	Valid bool

	// Errors holds per-row hard errors. A row with errors must not be
	// appended to the ledger.
	Errors []RowIssues

	// Warnings holds per-row informational notices.
	Warnings []RowIssues
}

// =============================================================================
// DUPLICATE DETECTION TYPES
// =============================================================================

// Match reason tags attached to duplicate matches.
const (
	// MatchPhoneExact marks a verbatim phone-field match.
	MatchPhoneExact = "PHONE_EXACT"

	// MatchNameAddressFuzzy marks a normalized name+address containment match.
	MatchNameAddressFuzzy = "NAME_ADDRESS_FUZZY"
)

// MatchedRow is one historical ledger row a new row collided with.
type MatchedRow struct {
	// ExistingIndex is the 1-based position of the row in the ledger file.
	ExistingIndex int

	// ExistingContent is the matched row's content, comma-joined.
	ExistingContent string

	// MatchType is the reason tag, MatchPhoneExact or MatchNameAddressFuzzy.
	MatchType string
}

// MatchDetail carries everything the caller needs to explain why a new row
// was flagged, not just that it was.
type MatchDetail struct {
	// NewIndex is the flagged row's index within the new batch.
	NewIndex int

	// NewContent is the flagged row's raw line.
	NewContent string

	// MatchedRows lists every historical row the new row matched.
	MatchedRows []MatchedRow
}

// DuplicateReport is the outcome of checking a batch against the ledger.
// It is computed fresh on every call and never cached.
type DuplicateReport struct {
	// Indexes is the de-duplicated set of new-row indexes that matched
	// anything, in first-seen order.
	Indexes []int

	// Details holds one entry per flagged new row.
	Details []MatchDetail
}

// =============================================================================
// LEDGER COMMIT TYPES
// =============================================================================

// CommitInfo describes a successful commit to the remote ledger store.
type CommitInfo struct {
	// SHA is the commit id.
	SHA string

	// Message is the commit message.
	Message string

	// Author is the commit author name.
	Author string

	// Date is the commit timestamp.
	Date time.Time

	// URL is the browsable commit URL.
	URL string
}
