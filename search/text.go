package search

import (
	"strings"
	"unicode/utf8"
)

// minTermLength is the shortest query token treated as meaningful.
const minTermLength = 3

// queryTerms splits a lowercased query on whitespace and keeps the unique
// tokens of at least minTermLength runes, in first-seen order.
func queryTerms(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool, len(words))
	terms := make([]string, 0, len(words))

	for _, word := range words {
		if utf8.RuneCountInString(word) < minTermLength || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}
	return terms
}

// keywordScore returns the fraction of terms contained in text, compared
// case-insensitively as substrings.
func keywordScore(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// semanticScore maps an L2 distance between unit vectors to [0, 1].
func semanticScore(distance float64) float64 {
	return clamp01(1 - distance*distance/2)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
