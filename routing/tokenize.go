package routing

import (
	"strings"
	"unicode"
)

// tokenize splits text into terms for the TF-IDF model. Latin-script words
// are lowercased and must be at least two characters; Han characters carry
// meaning individually and are emitted as single-rune terms since CJK text
// has no word boundaries to split on.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() >= 2 {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// termCounts tokenizes text and counts term occurrences, dropping stopwords.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		if isStopword(tok) {
			continue
		}
		counts[tok]++
	}
	return counts
}

// hasHan reports whether s contains at least one Han character.
func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
