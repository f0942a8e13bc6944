package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the result at
// maxLen bytes. A maxLen of zero disables the cap.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
