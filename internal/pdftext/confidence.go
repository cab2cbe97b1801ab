package pdftext

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reDateish   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reCurrency  = regexp.MustCompile(`\b(usd|eur|gbp|chf|jpy|cad|aud|sek|nok|dkk)\b|[$£€]`)
	reAmountish = regexp.MustCompile(`\b\d{1,3}([,.']\d{3})+([.,]\d+)?\b|\b\d+[.,]\d{2}\b`)
	reIsinish   = regexp.MustCompile(`\b[A-Z]{2}[A-Z0-9]{9}\d\b`)
)

// scoreTextQuality is a naive heuristic over the decoded text: statements
// carry dates, currencies, amounts and usually at least one identifier, so
// each artifact found nudges the score up from a low base.
func scoreTextQuality(txt string) float32 {
	trimmed := strings.TrimSpace(txt)
	if trimmed == "" {
		return 0
	}

	lower := strings.ToLower(trimmed)
	score := float32(0.2)
	if reDateish.MatchString(lower) {
		score += 0.2
	}
	if reCurrency.MatchString(lower) {
		score += 0.15
	}
	if reAmountish.MatchString(lower) {
		score += 0.15
	}
	if reIsinish.MatchString(trimmed) {
		score += 0.1
	}
	if len(trimmed) > 200 {
		score += 0.1
	}

	// garbled extractions show up as a low printable ratio
	if printableRatio(trimmed) < 0.85 {
		score -= 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

func printableRatio(s string) float64 {
	total, ok := 0, 0
	for _, r := range s {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			ok++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}
