package textutil

import (
	"strings"
)

func ContainsAny(text string, markers []string) bool {
	text = strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Truncate cuts s down to max runes, appending an ellipsis when anything
// was dropped. Retailer descriptions routinely run for kilobytes.
func Truncate(s string, max int) string {
	if max <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
