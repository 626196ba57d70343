package replay

import (
	"strings"
	"unicode"
)

// EstimateTokens gives a rough token count using the ~1.33 tokens/word
// heuristic. Tags count as words of their own.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '<' || r == '>'
	}))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// splitTokens cuts text into token-like units: each unit is a word or tag
// fragment with its trailing whitespace, and '<' always starts a new unit.
// Concatenating the units yields text again.
func splitTokens(text string) []string {
	var units []string
	start := 0
	inSpace := false
	for i, r := range text {
		switch {
		case r == '<' && i > start:
			units = append(units, text[start:i])
			start = i
			inSpace = false
		case unicode.IsSpace(r):
			inSpace = true
		case inSpace:
			units = append(units, text[start:i])
			start = i
			inSpace = false
		}
	}
	if start < len(text) {
		units = append(units, text[start:])
	}
	return units
}
