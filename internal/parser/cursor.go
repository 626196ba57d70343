package parser

import "strings"

// isLive reports whether text is still being generated: its last occurrence
// in latest either runs to the end of the input or is not followed by a tag.
func isLive(latest, text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || latest == "" {
		return false
	}
	i := strings.LastIndex(latest, t)
	if i < 0 {
		return false
	}
	end := i + len(t)
	if end == len(latest) {
		return true
	}
	return !strings.HasPrefix(strings.TrimSpace(latest[end:]), "<")
}
