// =============================================================================
// WeChat Order Ledger - Row Serializer
// =============================================================================
//
// Inverse of the parser: records go back out as delimited lines in the fixed
// 9-column order, so that parse -> edit -> serialize round-trips cleanly.
//
// The gift-notes column is always written quote-wrapped when it carries a
// brace value, even when the value contains no delimiter. That keeps the
// ledger file stable under the dialect repairer: a quoted brace group is
// left alone on the next read, an unquoted one would be repaired and
// reported again.
//
// =============================================================================

package rowcsv

import (
	"strings"

	"orderledger/internal/types"
)

// Write serializes records into a delimited blob, one line per record, each
// line newline-terminated. Standard CSV escaping is applied to any field
// containing the delimiter, a double quote, or a newline.
func Write(records []types.Record) string {
	var b strings.Builder

	for _, record := range records {
		fields := record.Fields()
		out := make([]string, len(fields))

		for i, value := range fields {
			// Gift notes is the last column in Fields() order.
			if i == len(fields)-1 {
				out[i] = quoteGiftNotes(value)
			} else {
				out[i] = escapeField(value)
			}
		}

		b.WriteString(strings.Join(out, ","))
		b.WriteByte('\n')
	}

	return b.String()
}

// quoteGiftNotes applies brace-field quoting idempotently: values already
// wrapped in double quotes are left untouched, values without braces get
// only the standard escaping, and brace values are force-quoted.
func quoteGiftNotes(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}

	if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) > 1 {
		return value
	}

	if !strings.Contains(value, "{") || !strings.Contains(value, "}") {
		return escapeField(value)
	}

	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// escapeField applies minimal CSV quoting: a field is wrapped in double
// quotes, with inner quotes doubled, only when it contains the delimiter, a
// double quote, or a line break.
func escapeField(value string) string {
	if !strings.ContainsAny(value, ",\"\n\r") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
