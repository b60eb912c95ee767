package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default PDF quality gate thresholds.
const (
	DefaultMinTextLength = 200
	DefaultMinDensity    = 0.5
)

// Quality summarizes how usable a native PDF text layer looks.
type Quality struct {
	// Length is the rune count after trimming surrounding whitespace.
	Length int
	// Density is the share of letters and digits among all runes.
	Density float64
}

// Assess measures text for the PDF quality gates.
func Assess(text string) Quality {
	q := Quality{Length: utf8.RuneCountInString(strings.TrimSpace(text))}

	total := 0
	alnum := 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total > 0 {
		q.Density = float64(alnum) / float64(total)
	}
	return q
}

// gateFailure returns a non-empty reason when q fails either gate.
func gateFailure(q Quality, minLength int, minDensity float64) string {
	if q.Length < minLength {
		return "length"
	}
	if q.Density < minDensity {
		return "density"
	}
	return ""
}
