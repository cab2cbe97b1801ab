package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

// Metadata regexes. Each field is a cascade: patterns are tried in order and
// the first hit wins, so the more explicit label forms come first.
var (
	reTitleLabel = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*(?:portfolio|statement|report)\s*(?:title|name)\s*[:\-]\s*(.{3,80})$`),
		regexp.MustCompile(`(?im)^\s*(.{3,60}?(?:portfolio|valuation|statement of assets|investment report).{0,30})\s*$`),
	}

	reValuationDate = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:valuation\s+date|as\s+(?:of|at)|per|statement\s+date|date\s+of\s+valuation)\s*[:\-]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`),
		regexp.MustCompile(`(?i)(?:valuation\s+date|as\s+(?:of|at)|statement\s+date)\s*[:\-]?\s*(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(?i)(?:valuation\s+date|as\s+(?:of|at)|statement\s+date)\s*[:\-]?\s*(\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]+\s+\d{4})`),
		regexp.MustCompile(`(?i)(?:valuation\s+date|as\s+(?:of|at)|statement\s+date)\s*[:\-]?\s*([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
	}

	reTotalValue = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:total\s+(?:portfolio\s+)?(?:value|assets|net\s+assets|wealth)|net\s+asset\s+value|portfolio\s+total)\s*[:\-]?\s*([A-Z]{3}\s*)?([-+(]?[\d.,'’\s]*\d(?:[.,]\d+)?\)?)`),
		regexp.MustCompile(`(?i)(?:total)\s*[:\-]\s*([A-Z]{3}\s*)?([$€£¥]?\s*[\d.,'’]*\d(?:[.,]\d+)?)`),
	}

	reOwner = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*(?:client|account\s+holder|beneficial\s+owner|owner|prepared\s+for)\s*(?:name)?\s*[:\-]\s*(.{2,60})$`),
	}

	reManager = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*(?:portfolio\s+manager|asset\s+manager|relationship\s+manager|manager|advisor|managed\s+by)\s*[:\-]\s*(.{2,60})$`),
	}
)

// dateLayouts tried when normalizing a matched date fragment. Day-first
// layouts come before month-first because European statements dominate the
// corpus; unambiguous layouts are ordered first.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
	"2.1.2006",
	"2/1/2006",
	"01/02/2006",
	"2 January 2006",
	"2nd January 2006",
	"January 2, 2006",
	"January 2 2006",
	"02.01.06",
	"02/01/06",
}

// parseFlexibleDate normalizes a raw date fragment into a time.Time.
func parseFlexibleDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	s = regexp.MustCompile(`(\d)(st|nd|rd|th)`).ReplaceAllString(s, "$1")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Two-digit years land in the right century via time.Parse;
			// reject clearly bogus parses.
			if t.Year() > 1970 && t.Year() < 2100 {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ExtractMetadata runs the regex cascade over free text and fills the
// portfolio header fields. It never fails; absent fields stay zero.
func ExtractMetadata(text string, p *entity.Portfolio) float32 {
	found := 0
	const fields = 6

	if m := firstMatch(reTitleLabel, text); m != "" {
		p.Title = tidyLine(m)
		found++
	}

	for _, re := range reValuationDate {
		if g := re.FindStringSubmatch(text); g != nil {
			if t, ok := parseFlexibleDate(g[1]); ok {
				p.ValuationDate = &t
				found++
				break
			}
		}
	}

	for _, re := range reTotalValue {
		if g := re.FindStringSubmatch(text); g != nil {
			amountRaw := g[len(g)-1]
			if v, err := ParseAmount(amountRaw); err == nil && !v.IsZero() {
				p.TotalValue = &v
				found++
				if cur := strings.TrimSpace(g[1]); cur != "" && p.Currency == "" {
					p.Currency = strings.ToUpper(cur)
				}
				break
			}
		}
	}

	if p.Currency == "" {
		if cur := DetectCurrency(text); cur != "" {
			p.Currency = cur
			found++
		}
	} else {
		found++
	}

	if m := firstMatch(reOwner, text); m != "" {
		p.Owner = tidyLine(m)
		found++
	}
	if m := firstMatch(reManager, text); m != "" {
		p.Manager = tidyLine(m)
		found++
	}

	return float32(found) / float32(fields)
}

func firstMatch(cascade []*regexp.Regexp, text string) string {
	for _, re := range cascade {
		if g := re.FindStringSubmatch(text); g != nil {
			return g[1]
		}
	}
	return ""
}

// tidyLine trims trailing punctuation and collapses whitespace in a captured
// free-text fragment.
func tidyLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " .,;:-")
}
