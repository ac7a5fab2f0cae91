package transcript

import (
	"regexp"
	"strings"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Clean strips filler words from text and normalizes whitespace. Fillers are
// matched as whole words, case-insensitively, with any trailing comma.
func Clean(text string, fillers []string) string {
	cleaned := text
	for _, filler := range fillers {
		trimmed := strings.TrimSpace(filler)
		if trimmed == "" {
			continue
		}
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(trimmed) + `\b,?`)
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// IsFiller reports whether a spoken word matches one of the configured filler
// words after trimming punctuation.
func IsFiller(word string, fillers []string) bool {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(word), ".,!?;:"))
	if normalized == "" {
		return false
	}
	for _, filler := range fillers {
		if normalized == strings.ToLower(strings.TrimSpace(filler)) {
			return true
		}
	}
	return false
}
