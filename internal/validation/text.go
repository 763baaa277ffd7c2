// Package validation provides input validation and text measurement helpers.
package validation

import (
	"strings"
	"unicode/utf8"
)

// NearLimitPercent is the usage at which a field counts as close to its limit.
const NearLimitPercent = 80

// Field length limits shared by the API and the client counters.
const (
	MaxDisplayNameLength = 50
	MaxCommentLength     = 500
	MaxRecipeNameLength  = 80
	MaxDescriptionLength = 1000
	MaxReasonLength      = 300
	MaxIngredientLength  = 200
	MaxStepLength        = 1000
	MaxListItems         = 60
	MaxCategoryLength    = 40
	MaxCountryLength     = 60
	MaxPasswordLength    = 128
	MinPasswordLength    = 6
	MaxEmailLength       = 254
	MaxPrepTimeMinutes   = 24 * 60
	MaxServings          = 100
)

// UsagePercentage returns how much of maxLen the text uses, from 0 to 100.
func UsagePercentage(text string, maxLen int) int {
	if maxLen <= 0 || text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text)
	if n >= maxLen {
		return 100
	}
	return n * 100 / maxLen
}

// IsNearLimit reports whether text uses at least NearLimitPercent of maxLen.
func IsNearLimit(text string, maxLen int) bool {
	if maxLen <= 0 {
		return false
	}
	return UsagePercentage(text, maxLen) >= NearLimitPercent
}

// CountNonBlankLines counts lines that contain at least one visible character.
func CountNonBlankLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// NonBlankLines splits text into trimmed, non-blank lines.
func NonBlankLines(text string) []string {
	lines := make([]string, 0, CountNonBlankLines(text))
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
