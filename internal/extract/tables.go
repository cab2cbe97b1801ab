package extract

import "strings"

// tableScore is the result of scoring one table candidate against a keyword
// profile. Higher is better; a score of zero means the table is not a
// candidate at all.
type tableScore struct {
	index int
	score int
}

// scoreProfile describes what a resolver is looking for: keywords that may
// appear in the table title, and keywords expected among the headers.
// Title hits are worth more than header hits because captions are usually
// unambiguous ("Asset Allocation") while single headers ("Value") are not.
type scoreProfile struct {
	titleKeywords  []string
	headerKeywords []string
	// minHeaderHits is the number of distinct header keywords that must match
	// before header evidence alone qualifies a table.
	minHeaderHits int
}

const (
	titleHitWeight  = 5
	headerHitWeight = 2
	rowCountWeight  = 1 // small nudge so a 20-row table beats a 2-row one
)

// scoreTable scores a single table against the profile.
func scoreTable(t Table, p scoreProfile) int {
	score := 0
	title := strings.ToLower(t.Title)
	for _, kw := range p.titleKeywords {
		if strings.Contains(title, kw) {
			score += titleHitWeight
		}
	}

	headerHits := 0
	for _, kw := range p.headerKeywords {
		if headerIndex(t.Headers, kw) >= 0 {
			headerHits++
		}
	}
	if headerHits >= p.minHeaderHits {
		score += headerHits * headerHitWeight
	}

	if score > 0 && len(t.Rows) > 1 {
		n := len(t.Rows)
		if n > 10 {
			n = 10
		}
		score += n / 5 * rowCountWeight
	}
	return score
}

// bestTable picks the highest-scoring candidate, or -1 when nothing
// qualifies. Ties break toward the earlier table: statements put the
// authoritative table before repeats in appendices.
func bestTable(tables []Table, p scoreProfile) int {
	best := tableScore{index: -1}
	for i, t := range tables {
		if s := scoreTable(t, p); s > best.score {
			best = tableScore{index: i, score: s}
		}
	}
	return best.index
}
