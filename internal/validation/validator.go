// =============================================================================
// WeChat Order Ledger - Row Validator
// =============================================================================
//
// This module applies the per-field business rules to parsed records and
// classifies every problem as either a hard error (the row must not reach
// the ledger) or a warning (the row is accepted with a notice).
//
// VALIDATION STRATEGY:
//   - Problems are collected, never thrown: one bad row does not abort the
//     rest of the batch.
//   - Every message names the field and the rule that failed, so the caller
//     can point the operator at the offending value.
//   - Validation is a pure function of the record values. No I/O, no side
//     effects, safe to call concurrently.
//
// RULE TABLE (error unless marked warning):
//   customer_name       non-empty
//   customer_phone      11-digit mobile pattern if present; warning if empty
//   customer_address    non-empty
//   product_type        warning when present but unknown
//   transaction_amount  required, numeric
//   area                numeric if present; absence is fine
//   fulfillment_date    YYYY-MM-DD and a real calendar date if present;
//                       warning if empty
//   gift_notes          brace mini-language with allow-listed categories and
//                       non-negative integer quantities if present
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"orderledger/internal/extract"
	"orderledger/internal/types"
)

// phonePattern is the mainland mobile-number shape: 11 digits, leading 1,
// second digit 3-9.
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// productTypes is the known product-type vocabulary. Anything else is a
// warning, not an error, because operators occasionally invent variants.
var productTypes = []string{"国标", "母婴"}

// dateLayout is the only accepted fulfillment-date format.
const dateLayout = "2006-01-02"

// Validate applies the rule table to every record and returns the collected
// result. Valid is true iff no record produced an error; warnings never
// block acceptance.
func Validate(records []types.Record) *types.ValidationReport {
	report := &types.ValidationReport{Valid: true}

	for _, record := range records {
		errs, warns := validateRecord(record)

		if len(errs) > 0 {
			report.Valid = false
			report.Errors = append(report.Errors, types.RowIssues{Row: record.Index, Messages: errs})
		}
		if len(warns) > 0 {
			report.Warnings = append(report.Warnings, types.RowIssues{Row: record.Index, Messages: warns})
		}
	}

	return report
}

// validateRecord checks a single record against the rule table.
func validateRecord(r types.Record) (errs, warns []string) {
	if r.CustomerName == "" {
		errs = append(errs, "customer name must not be empty")
	}

	if r.CustomerPhone != "" {
		if !phonePattern.MatchString(r.CustomerPhone) {
			errs = append(errs, "phone number must be an 11-digit mobile number")
		}
	} else {
		warns = append(warns, "phone number is empty")
	}

	if r.CustomerAddress == "" {
		errs = append(errs, "customer address must not be empty")
	}

	if r.ProductType != "" && !isKnownProductType(r.ProductType) {
		warns = append(warns, fmt.Sprintf("product type %q is not recognized, expected 国标 or 母婴", r.ProductType))
	}

	if r.TransactionAmount == "" {
		errs = append(errs, "transaction amount must not be empty")
	} else if !isNumber(r.TransactionAmount) {
		errs = append(errs, "transaction amount must be a number")
	}

	if r.Area != "" && !isNumber(r.Area) {
		errs = append(errs, "area must be a number")
	}

	if r.FulfillmentDate != "" {
		if _, err := time.Parse(dateLayout, r.FulfillmentDate); err != nil {
			errs = append(errs, "fulfillment date must be a valid date in YYYY-MM-DD format")
		}
	} else {
		warns = append(warns, "fulfillment date is empty")
	}

	if r.GiftNotes != "" {
		if _, err := extract.ParseGiftNotes(r.GiftNotes); err != nil {
			errs = append(errs, fmt.Sprintf("gift notes must use the {category:quantity} format: %v", err))
		}
	}

	return errs, warns
}

func isKnownProductType(value string) bool {
	for _, t := range productTypes {
		if t == value {
			return true
		}
	}
	return false
}

func isNumber(value string) bool {
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}
