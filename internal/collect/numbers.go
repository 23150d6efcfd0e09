package collect

import (
	"regexp"
	"strconv"
	"strings"
)

// countPattern matches the first number-like token in labelled page text,
// including grouped digits and the 만/M/K unit suffixes.
var countPattern = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?\s*(?:만|[MmKk])?`)

// ParseCount reads a human-formatted count the way source pages render
// them: grouped digits ("1,234,567"), Korean 만 units ("12.3만" is 123,000),
// and western abbreviations ("1.2M", "830.4K"). Returns false when the text
// holds no parsable count.
func ParseCount(text string) (float64, bool) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return 0, false
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(cleaned, "만"):
		multiplier = 10_000
		cleaned = strings.TrimSuffix(cleaned, "만")
	case strings.HasSuffix(cleaned, "M"), strings.HasSuffix(cleaned, "m"):
		multiplier = 1_000_000
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(cleaned, "K"), strings.HasSuffix(cleaned, "k"):
		multiplier = 1_000
		cleaned = cleaned[:len(cleaned)-1]
	}

	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value * multiplier, true
}

// extractCount finds the first count-like token inside free-form text and
// parses it. Labelled rows on source pages mix the label and the value in
// one node, so the label text is tolerated.
func extractCount(text string) (float64, bool) {
	match := countPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	return ParseCount(match)
}
