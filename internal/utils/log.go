package utils

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// TruncateForLog trims s and cuts it to at most limit runes for log previews,
// marking a cut with an ellipsis. A non-positive limit yields "".
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	cut := 0
	for i := range s {
		if limit == 0 {
			cut = i
			break
		}
		limit--
	}
	return s[:cut] + ellipsis
}
