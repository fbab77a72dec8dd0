package filter

import (
	"regexp"
	"strconv"
	"strings"
)

// Score adds up the signal groups found in a title.
func Score(title string) int {
	score := 0
	for _, r := range scoreRules {
		switch {
		case r.pattern.MatchString(title):
			score += r.points
		case r.fallback != nil && r.fallback.MatchString(title):
			score += r.fallbackPoints
		}
	}
	return score
}

// SeverityFor maps a score to a severity. Titles matching the spike set are
// always high.
func SeverityFor(score int, title string) Severity {
	if score >= 6 || spikePattern.MatchString(title) {
		return SeverityHigh
	}
	return SeverityModerate
}

// HotKeyword returns the label of the first keyword rule matching text.
func HotKeyword(text string) string {
	for _, r := range hotKeywordRules {
		if r.pattern.MatchString(text) {
			return r.label
		}
	}
	return FallbackKeyword
}

// The body lists the figure as "매출액 대비(%) 35.2", sometimes with a
// colon or a single line break between label and number. A number followed
// by ". " is the next list item, not a figure.
var ratioPattern = regexp.MustCompile(`(매출액[ \t]*대비[ \t]*(?:비율)?[ \t]*(?:\([ \t]*%[ \t]*\))?[ \t]*[:：]?)[ \t]*(?:\r?\n[ \t]*)?(\d[\d,]*(?:\.\d+)?)(\.\s)?`)

// ExtractRatio pulls the contract-value-to-revenue percentage out of a
// supply contract body. ok is false when no figure is present, which callers
// must treat as unknown rather than zero.
func ExtractRatio(text string) (ratio float64, ok bool) {
	ratio, _, ok = matchRatio(text)
	return ratio, ok
}

// matchRatio also returns the label as written in the body.
func matchRatio(text string) (float64, string, bool) {
	for _, m := range ratioPattern.FindAllStringSubmatch(text, -1) {
		if m[3] != "" && !strings.Contains(m[2], ".") {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}
		return v, strings.TrimSpace(m[1]), true
	}
	return 0, "", false
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
