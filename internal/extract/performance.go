package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

var performanceProfile = scoreProfile{
	titleKeywords:  []string{"performance", "returns", "track record", "rendement"},
	headerKeywords: []string{"ytd", "year to date", "1y", "1 year", "3y", "3 year", "5y", "5 year", "10y", "inception", "period", "return"},
	minHeaderHits:  2,
}

// periodAliases maps normalized header/label spellings to a setter on the
// Performance struct.
var periodAliases = map[string]func(*entity.Performance, decimal.Decimal){
	"ytd":             func(p *entity.Performance, v decimal.Decimal) { p.YTD = &v },
	"year to date":    func(p *entity.Performance, v decimal.Decimal) { p.YTD = &v },
	"1m":              func(p *entity.Performance, v decimal.Decimal) { p.OneMonth = &v },
	"1 month":         func(p *entity.Performance, v decimal.Decimal) { p.OneMonth = &v },
	"3m":              func(p *entity.Performance, v decimal.Decimal) { p.ThreeMonth = &v },
	"3 month":         func(p *entity.Performance, v decimal.Decimal) { p.ThreeMonth = &v },
	"6m":              func(p *entity.Performance, v decimal.Decimal) { p.SixMonth = &v },
	"6 month":         func(p *entity.Performance, v decimal.Decimal) { p.SixMonth = &v },
	"1y":              func(p *entity.Performance, v decimal.Decimal) { p.OneYear = &v },
	"1 year":          func(p *entity.Performance, v decimal.Decimal) { p.OneYear = &v },
	"12 month":        func(p *entity.Performance, v decimal.Decimal) { p.OneYear = &v },
	"3y":              func(p *entity.Performance, v decimal.Decimal) { p.ThreeYear = &v },
	"3 year":          func(p *entity.Performance, v decimal.Decimal) { p.ThreeYear = &v },
	"5y":              func(p *entity.Performance, v decimal.Decimal) { p.FiveYear = &v },
	"5 year":          func(p *entity.Performance, v decimal.Decimal) { p.FiveYear = &v },
	"10y":             func(p *entity.Performance, v decimal.Decimal) { p.TenYear = &v },
	"10 year":         func(p *entity.Performance, v decimal.Decimal) { p.TenYear = &v },
	"since inception": func(p *entity.Performance, v decimal.Decimal) { p.SinceInception = &v },
	"inception":       func(p *entity.Performance, v decimal.Decimal) { p.SinceInception = &v },
	"itd":             func(p *entity.Performance, v decimal.Decimal) { p.SinceInception = &v },
}

// normPeriod canonicalizes a period label for alias lookup ("1-Year" ->
// "1 year", "YTD %" -> "ytd").
func normPeriod(s string) string {
	s = normHeader(s)
	s = strings.TrimSuffix(s, " %")
	s = strings.TrimSuffix(s, " return")
	s = strings.ReplaceAll(s, " years", " year")
	s = strings.ReplaceAll(s, " months", " month")
	s = strings.ReplaceAll(s, "yr", "y")
	return strings.TrimSpace(s)
}

// ResolvePerformance finds the returns table and maps its columns (wide
// layout) or rows (tall layout) onto canonical periods. When no table
// qualifies it falls back to "YTD: +4.5%" free-text lines.
func ResolvePerformance(doc Document) (*entity.Performance, float32) {
	if idx := bestTable(doc.Tables, performanceProfile); idx >= 0 {
		if perf := parsePerformanceTable(doc.Tables[idx]); !perf.IsEmpty() {
			return perf, 0.85
		}
	}
	perf := scanPerformanceFromText(doc.Text)
	if perf.IsEmpty() {
		return nil, 0
	}
	return perf, 0.5
}

func parsePerformanceTable(t Table) *entity.Performance {
	perf := &entity.Performance{}

	// Wide layout: periods are headers, the first data row carries values.
	wideHits := 0
	for i, h := range t.Headers {
		set, ok := periodAliases[normPeriod(h)]
		if !ok {
			continue
		}
		for _, row := range t.Rows {
			if v, err := ParsePercent(cell(row, i)); err == nil {
				set(perf, v)
				wideHits++
				break
			}
		}
	}
	if wideHits >= 2 {
		return perf
	}

	// Tall layout: first column is the period label, a later column the value.
	*perf = entity.Performance{}
	for _, row := range t.Rows {
		if len(row) < 2 {
			continue
		}
		set, ok := periodAliases[normPeriod(row[0])]
		if !ok {
			continue
		}
		for _, c := range row[1:] {
			if v, err := ParsePercent(c); err == nil {
				set(perf, v)
				break
			}
		}
	}
	return perf
}

var compactPeriod = regexp.MustCompile(`^(\d{1,2})\s+([my])$`)

// performanceLine matches "YTD: +4.5%" / "3 Years -1,2 %" free-text lines.
var performanceLine = regexp.MustCompile(`(?im)^\s*((?:ytd|year to date|since inception|inception|\d{1,2}\s*(?:m|y|month|months|year|years|yr)))\s*(?:return)?\s*[:\-]?\s*([+-]?\(?[\d.,]+\)?)\s*%`)

func scanPerformanceFromText(text string) *entity.Performance {
	perf := &entity.Performance{}
	for _, g := range performanceLine.FindAllStringSubmatch(text, -1) {
		label := normPeriod(g[1])
		// collapse "3 m" -> "3m", "1 y" -> "1y" so the compact aliases hit
		label = compactPeriod.ReplaceAllString(label, "$1$2")
		set, ok := periodAliases[label]
		if !ok {
			continue
		}
		if v, err := ParsePercent(g[2]); err == nil {
			set(perf, v)
		}
	}
	return perf
}
