// =============================================================================
// WeChat Order Ledger - Duplicate Detector
// =============================================================================
//
// Compares newly produced rows against the historical ledger and reports,
// per new row, which historical rows it collides with and why. Two rules
// run in priority order, independently for each new row:
//
//   1. PHONE_EXACT - the new row has a non-empty phone field and some
//      historical row's phone field equals it verbatim. When this rule
//      fires, rule 2 is not evaluated for that row.
//
//   2. NAME_ADDRESS_FUZZY - both name and address are non-empty. The name
//      is normalized by stripping honorific suffixes; the address is
//      reduced to its core (trailing unit/building/floor/house numbers
//      stripped, then administrative-unit and named-complex substrings
//      extracted). A historical row matches when the normalized names are
//      substrings of each other in either direction AND the core addresses
//      are substrings of each other in either direction. Cores shorter
//      than 3 characters are too weak a signal and skip the rule entirely.
//
// Failure semantics: historical rows with fewer than 3 columns are skipped,
// never raised on. Duplicate flags are informational; the decision to
// proceed anyway belongs to the operator.
//
// =============================================================================

package dedup

import (
	"io"
	"regexp"
	"strings"

	"orderledger/internal/rowcsv"
	"orderledger/internal/types"
)

// minCoreAddressLen is the threshold below which a core address is too
// weak to fuzzy-match on.
const minCoreAddressLen = 3

// honorifics are the suffix words stripped from names before comparison.
var honorifics = regexp.MustCompile(`先生|女士|小姐|总|经理|老师|同学|大爷|阿姨`)

// houseNumberStrippers remove trailing unit/building/floor/house-number
// detail from an address, applied in order.
var houseNumberStrippers = []*regexp.Regexp{
	regexp.MustCompile(`\d+[栋幢座号楼]-?\d*-?\d*\s*$`),
	regexp.MustCompile(`\d+[单元门]-?\d*\s*$`),
	regexp.MustCompile(`\d+[层楼]-?\d*\s*$`),
	regexp.MustCompile(`[0-9-]+号\s*$`),
}

// coreAddressPattern captures the meaningful parts of an address: an
// administrative-unit marker, or a 2+ character name directly followed by a
// complex/building/community keyword.
var coreAddressPattern = regexp.MustCompile(
	`[省市区县]|[\x{4e00}-\x{9fa5}]{2,}(?:小区|公寓|花园|广场|大厦|社区|天地|世家|苑|台|湾|岛|城|府|园|里)`)

// FindDuplicates checks each new entry (a raw delimited line) against the
// historical ledger content and returns the flagged indexes plus full match
// details. Entries that fail single-line CSV parsing are skipped; the
// caller feeds lines that already survived a parse/serialize round trip.
func FindDuplicates(newEntries []string, existingContent string) *types.DuplicateReport {
	report := &types.DuplicateReport{}
	existingRows := parseExisting(existingContent)

	flagged := make(map[int]bool)

	for i, entry := range newEntries {
		row, ok := parseLine(entry)
		if !ok {
			continue
		}

		detail := types.MatchDetail{NewIndex: i, NewContent: entry}

		// Rule 1: exact phone match short-circuits rule 2.
		if len(row) >= 2 && strings.TrimSpace(row[1]) != "" {
			phone := strings.TrimSpace(row[1])
			matched := false

			for rowIdx, existing := range existingRows {
				if len(existing) >= 2 && strings.TrimSpace(existing[1]) == phone {
					detail.MatchedRows = append(detail.MatchedRows, types.MatchedRow{
						ExistingIndex:   rowIdx + 1,
						ExistingContent: strings.Join(existing, ","),
						MatchType:       types.MatchPhoneExact,
					})
					matched = true
					break
				}
			}

			if matched {
				if !flagged[i] {
					flagged[i] = true
					report.Indexes = append(report.Indexes, i)
				}
				report.Details = append(report.Details, detail)
				continue
			}
		}

		// Rule 2: fuzzy name+address match.
		if len(row) < 3 {
			continue
		}
		name := strings.TrimSpace(row[0])
		address := strings.TrimSpace(row[2])
		if name == "" || address == "" {
			continue
		}

		cleanedName := cleanName(name)
		coreAddress := extractCoreAddress(address)
		if len([]rune(coreAddress)) < minCoreAddressLen {
			continue
		}

		matched := false
		for rowIdx, existing := range existingRows {
			if len(existing) < 3 {
				continue
			}

			existingName := cleanName(strings.TrimSpace(existing[0]))
			existingCore := extractCoreAddress(strings.TrimSpace(existing[2]))

			if cleanedName == "" || existingName == "" || coreAddress == "" || existingCore == "" {
				continue
			}
			if containsEitherWay(cleanedName, existingName) && containsEitherWay(coreAddress, existingCore) {
				detail.MatchedRows = append(detail.MatchedRows, types.MatchedRow{
					ExistingIndex:   rowIdx + 1,
					ExistingContent: strings.Join(existing, ","),
					MatchType:       types.MatchNameAddressFuzzy,
				})
				matched = true
				break
			}
		}

		if matched {
			if !flagged[i] {
				flagged[i] = true
				report.Indexes = append(report.Indexes, i)
			}
			report.Details = append(report.Details, detail)
		}
	}

	return report
}

// parseExisting reads the historical ledger content row by row, skipping
// records the CSV reader cannot make sense of. Malformed history never
// aborts a duplicate check.
func parseExisting(content string) [][]string {
	if content == "" {
		return nil
	}

	var rows [][]string
	reader := rowcsv.NewReader(strings.NewReader(content))
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// parseLine parses a single delimited line, honoring quoted fields.
func parseLine(line string) ([]string, bool) {
	row, err := rowcsv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, false
	}
	return row, true
}

// cleanName strips honorific suffixes (先生, 女士, 经理, ...) so that
// "张三先生" and "张三" compare equal.
func cleanName(name string) string {
	return strings.TrimSpace(honorifics.ReplaceAllString(name, ""))
}

// extractCoreAddress reduces an address to its administrative/named-complex
// core. When nothing matches the core pattern, the cleaned address itself
// is used as the core.
func extractCoreAddress(address string) string {
	for _, re := range houseNumberStrippers {
		address = re.ReplaceAllString(address, "")
	}

	matches := coreAddressPattern.FindAllString(address, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(address)
	}
	return strings.TrimSpace(strings.Join(matches, ""))
}

// containsEitherWay reports substring containment in either direction.
// Only one direction needs to hold.
func containsEitherWay(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
