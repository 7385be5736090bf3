package util

import (
	"os"
	"regexp"
)

var winEnvRe = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// ExpandEnvUniversal expands both Unix-style ($VAR, ${VAR}) and Windows-style
// (%VAR%) environment variables. Unknown Windows-style variables expand to the
// empty string, matching os.ExpandEnv behavior for unknown Unix-style ones.
func ExpandEnvUniversal(s string) string {
	unixExpanded := os.ExpandEnv(s)
	return winEnvRe.ReplaceAllStringFunc(unixExpanded, func(match string) string {
		if value, ok := os.LookupEnv(match[1 : len(match)-1]); ok {
			return value
		}
		return ""
	})
}

// Snippet returns a short prefix of a byte slice, useful for logging.
func Snippet(b []byte) string {
	const maxLen = 200
	s := string(b)
	if len(s) > maxLen {
		runes := []rune(s)
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
	}
	return s
}
