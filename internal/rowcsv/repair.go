// =============================================================================
// WeChat Order Ledger - CSV Dialect Repairer
// =============================================================================
//
// The gift-notes column carries brace values such as {除醛宝:2,炭包:1}. The
// text-generation step does not always quote them, and the brace body may
// contain the comma delimiter, so a plain CSV split would fragment the row.
// RepairLine therefore runs per physical line, before any delimiter parsing,
// and wraps every unquoted brace substring in double quotes.
//
// The check for "already quoted" is an adjacency test around each brace
// match, not a stateful CSV parse. That mirrors the lookaround heuristic the
// repair rule is defined by: a brace group directly preceded or followed by
// a double quote is assumed to be quoted already and is left alone. Nested
// braces are not supported; a nested group never matches and passes through
// unchanged.
//
// =============================================================================

package rowcsv

import (
	"fmt"
	"regexp"
	"strings"

	"orderledger/internal/types"
)

// bracePattern matches a maximal non-nested {...} group.
var bracePattern = regexp.MustCompile(`\{[^{}]*\}`)

// RepairLine wraps unquoted brace substrings in double quotes and reports
// one Repair per wrap. Empty and whitespace-only lines pass through
// unchanged with no repairs. Repairing an already repaired line is a no-op.
//
// The Line index on the returned repairs is left at zero; callers that
// process multi-line blobs fill it in.
func RepairLine(line string) (string, []types.Repair) {
	if strings.TrimSpace(line) == "" {
		return line, nil
	}

	locs := bracePattern.FindAllStringIndex(line, -1)
	if locs == nil {
		return line, nil
	}

	var fixed strings.Builder
	var repairs []types.Repair
	last := 0

	for _, loc := range locs {
		start, end := loc[0], loc[1]

		// Adjacent-quote check: skip brace groups that are already wrapped.
		if (start > 0 && line[start-1] == '"') || (end < len(line) && line[end] == '"') {
			continue
		}

		original := line[start:end]
		quoted := `"` + original + `"`

		fixed.WriteString(line[last:start])
		fixed.WriteString(quoted)
		last = end

		repairs = append(repairs, types.Repair{
			Original: original,
			Fixed:    quoted,
			Message:  fmt.Sprintf("brace field wrapped in double quotes: %s -> %s", original, quoted),
		})
	}

	if len(repairs) == 0 {
		return line, nil
	}

	fixed.WriteString(line[last:])
	return fixed.String(), repairs
}
