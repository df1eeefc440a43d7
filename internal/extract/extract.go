// =============================================================================
// WeChat Order Ledger - Field Extractor
// =============================================================================
//
// This module pulls structured quantities out of free-form chat text:
//   - The CMA detection point count ("CMA检测5个点位" -> "5")
//   - Gift annotations in the brace mini-language ("送2个除醛宝" -> "{除醛宝:2}")
//
// EXTRACTION DESIGN:
//   Extraction is driven by explicit ordered pattern tables. Pattern order is
//   a priority order: the first pattern that matches wins, regardless of
//   match length or position. Keyword/number pairs are tried in both orders
//   (keyword-then-number and number-then-keyword) because chat phrasing goes
//   both ways.
//
//   For gift extraction every category is attempted independently, so one
//   message can yield several categories, but within a category the first
//   successful pattern fixes the quantity and the remaining patterns are
//   skipped. The category order and each category's pattern order are fixed,
//   which makes the output reproducible for identical input.
//
// =============================================================================

package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// POINT COUNT EXTRACTION
// =============================================================================

// pointCountPatterns pairs the CMA/detection keywords with an adjacent
// integer, in both orders. First match wins.
var pointCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)CMA.*?(\d+).*?个`),
	regexp.MustCompile(`(?i)(\d+).*?个.*?CMA`),
	regexp.MustCompile(`(?i)CMA.*?(\d+)`),
	regexp.MustCompile(`(?i)(\d+).*?CMA`),
	regexp.MustCompile(`检测.*?(\d+).*?个.*?点`),
	regexp.MustCompile(`(\d+).*?个.*?检测.*?点`),
	regexp.MustCompile(`点位.*?(\d+).*?个`),
	regexp.MustCompile(`(\d+).*?个.*?点位`),
}

// PointCount extracts the CMA detection point count from free-form text.
// It returns the first digit-only capture found across the ordered pattern
// list, or the empty string when no pattern matches.
func PointCount(text string) string {
	for _, re := range pointCountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, group := range m[1:] {
			if group != "" && isDigits(group) {
				return group
			}
		}
	}
	return ""
}

// =============================================================================
// GIFT EXTRACTION
// =============================================================================

// GiftCategories is the fixed allow-list of gift categories, in the order
// they are attempted during extraction and emitted in the output.
var GiftCategories = []string{"除醛宝", "炭包", "除醛机", "除醛喷雾"}

// giftPattern is one regex in a category's priority list.
type giftPattern struct {
	category string
	patterns []*regexp.Regexp
}

// giftPatterns maps each category to its ordered pattern list. The 除醛机
// (deformaldehyde machine) category also recognizes the count word 一台
// ("one unit") for a literal quantity of 1 when no digit is present.
var giftPatterns = []giftPattern{
	{
		category: "除醛宝",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`除醛宝.*?(\d+).*?个`),
			regexp.MustCompile(`(\d+).*?个.*?除醛宝`),
			regexp.MustCompile(`小绿罐.*?(\d+).*?个`),
			regexp.MustCompile(`(\d+).*?个.*?小绿罐`),
			regexp.MustCompile(`总共.*?(\d+).*?个.*?小绿罐`),
			regexp.MustCompile(`总共.*?(\d+).*?小绿罐`),
			regexp.MustCompile(`除醛宝.*?(\d+)`),
			regexp.MustCompile(`(\d+).*?除醛宝`),
		},
	},
	{
		category: "炭包",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`炭包.*?(\d+).*?包`),
			regexp.MustCompile(`(\d+).*?包.*?炭包`),
			regexp.MustCompile(`炭包.*?(\d+)`),
			regexp.MustCompile(`(\d+).*?炭包`),
			regexp.MustCompile(`1000g.*?炭包.*?(\d+)`),
			regexp.MustCompile(`(\d+).*?1000g.*?炭包`),
		},
	},
	{
		category: "除醛机",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`除醛机一台`),
			regexp.MustCompile(`除醛仪一台`),
			regexp.MustCompile(`一台.*?除醛机`),
			regexp.MustCompile(`一台.*?除醛仪`),
			regexp.MustCompile(`除醛机.*?(\d+).*?台`),
			regexp.MustCompile(`(\d+)台.*?除醛机`),
			regexp.MustCompile(`除醛仪.*?(\d+).*?台`),
			regexp.MustCompile(`(\d+)台.*?除醛仪`),
			regexp.MustCompile(`除醛机.*?(\d+)`),
			regexp.MustCompile(`(\d+).*?除醛机`),
			regexp.MustCompile(`除醛仪.*?(\d+)`),
			regexp.MustCompile(`(\d+).*?除醛仪`),
		},
	},
	{
		category: "除醛喷雾",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`除醛喷雾.*?(\d+).*?瓶`),
			regexp.MustCompile(`(\d+).*?瓶.*?除醛喷雾`),
			regexp.MustCompile(`除醛喷雾.*?(\d+).*?个`),
			regexp.MustCompile(`(\d+).*?个.*?除醛喷雾`),
			regexp.MustCompile(`除醛喷雾.*?(\d+)`),
			regexp.MustCompile(`(\d+).*?除醛喷雾`),
		},
	},
}

// GiftNotes extracts gift annotations from free-form text and returns them
// in the brace mini-language, categories joined with commas in the fixed
// category order. It returns the empty string when nothing matched.
//
// Quantities of zero or less are discarded; a pattern match without a
// usable quantity does not claim the category.
func GiftNotes(text string) string {
	var parts []string

	for _, gp := range giftPatterns {
		for _, re := range gp.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}

			quantity := 0
			captured := false
			for _, group := range m[1:] {
				if group != "" && isDigits(group) {
					quantity, _ = strconv.Atoi(group)
					captured = true
					break
				}
			}

			// Count-word fallback: "一台" in the matched text means one unit,
			// but only when no digit was captured. A captured literal 0 is a
			// real quantity and moves on to the next pattern.
			if !captured && strings.Contains(m[0], "一台") {
				quantity = 1
			}

			if quantity > 0 {
				parts = append(parts, fmt.Sprintf("%s:%d", gp.category, quantity))
				break
			}
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// =============================================================================
// GIFT NOTES MINI-LANGUAGE
// =============================================================================

// giftNotesShape is the outer shape of the mini-language: a single brace
// pair around a non-empty body. Nested braces are not supported.
var giftNotesShape = regexp.MustCompile(`^\{[^{}]+\}$`)

// ParseGiftNotes parses a brace mini-language value into its category ->
// quantity mapping. The body is one or more category:quantity pairs
// separated by "," or ";". An empty input parses to an empty map.
//
// It returns an error when the outer shape is wrong, a category is not in
// the allow-list, or a quantity is not a non-negative base-10 integer.
func ParseGiftNotes(value string) (map[string]int, error) {
	gifts := make(map[string]int)
	if value == "" {
		return gifts, nil
	}

	if !giftNotesShape.MatchString(value) {
		return nil, fmt.Errorf("gift notes %q do not match the {category:quantity} format", value)
	}

	body := value[1 : len(value)-1]
	for _, item := range strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == ';' }) {
		category, quantity, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("gift item %q is missing the ':' separator", item)
		}
		category = strings.TrimSpace(category)
		quantity = strings.TrimSpace(quantity)

		if !isAllowedCategory(category) {
			return nil, fmt.Errorf("gift category %q is not one of %s", category, strings.Join(GiftCategories, "/"))
		}
		if quantity == "" || !isDigits(quantity) {
			return nil, fmt.Errorf("gift quantity %q is not a non-negative integer", quantity)
		}

		n, err := strconv.Atoi(quantity)
		if err != nil {
			return nil, fmt.Errorf("gift quantity %q is not a non-negative integer", quantity)
		}
		gifts[category] = n
	}

	return gifts, nil
}

func isAllowedCategory(category string) bool {
	for _, c := range GiftCategories {
		if c == category {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
