package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
	"github.com/findoc-io/findoc-analyzer/internal/llm"
)

// llmSectionConfidence is what an LLM-only section is worth. Model output is
// useful but unverifiable, so it never outranks a resolved table.
const llmSectionConfidence float32 = 0.50

// MissingSections reports which portfolio sections the heuristics left
// empty, in the vocabulary the LLM prompt uses.
func MissingSections(p *entity.Portfolio) []string {
	var out []string
	if p.Title == "" || p.ValuationDate == nil || p.TotalValue == nil || p.Currency == "" {
		out = append(out, "metadata")
	}
	if len(p.Securities) == 0 {
		out = append(out, "securities")
	}
	if len(p.Allocations) == 0 {
		out = append(out, "allocations")
	}
	if p.Performance.IsEmpty() {
		out = append(out, "performance")
	}
	return out
}

// MergeFields folds LLM output into the heuristically extracted portfolio.
// Heuristic values always win: the model only fills blanks. Identifiers the
// model reports are kept only when their check digit verifies, since models
// happily hallucinate plausible-looking ISINs.
func MergeFields(p *entity.Portfolio, f llm.PortfolioFields, logger *slog.Logger) *entity.Portfolio {
	if logger == nil {
		logger = slog.Default()
	}

	metadataFilled := mergeMetadata(p, f)
	securitiesFilled := mergeSecurities(p, f.Securities, logger)
	allocationsFilled := mergeAllocations(p, f.Allocations)
	performanceFilled := mergePerformance(p, f.Performance)

	if metadataFilled && p.Confidence.Metadata < llmSectionConfidence {
		p.Confidence.Metadata = llmSectionConfidence
	}
	if securitiesFilled && p.Confidence.Securities < llmSectionConfidence {
		p.Confidence.Securities = llmSectionConfidence
	}
	if allocationsFilled && p.Confidence.Allocations < llmSectionConfidence {
		p.Confidence.Allocations = llmSectionConfidence
	}
	if performanceFilled && p.Confidence.Performance < llmSectionConfidence {
		p.Confidence.Performance = llmSectionConfidence
	}
	p.Confidence.Overall = extract.OverallConfidence(p.Confidence)
	return p
}

func mergeMetadata(p *entity.Portfolio, f llm.PortfolioFields) bool {
	filled := false
	if p.Title == "" && f.Title != "" {
		p.Title = f.Title
		filled = true
	}
	if p.Owner == "" && f.Owner != "" {
		p.Owner = f.Owner
		filled = true
	}
	if p.Manager == "" && f.Manager != "" {
		p.Manager = f.Manager
		filled = true
	}
	if p.ValuationDate == nil && f.ValuationDate != "" {
		if t, err := time.Parse("2006-01-02", f.ValuationDate); err == nil {
			p.ValuationDate = &t
			filled = true
		}
	}
	if p.TotalValue == nil && f.TotalValue != "" {
		if d, err := decimal.NewFromString(f.TotalValue); err == nil {
			p.TotalValue = &d
			filled = true
		}
	}
	if p.Currency == "" && len(f.CurrencyCode) == 3 {
		p.Currency = strings.ToUpper(f.CurrencyCode)
		filled = true
	}
	return filled
}

func mergeSecurities(p *entity.Portfolio, secs []llm.SecurityFields, logger *slog.Logger) bool {
	seenISIN := map[string]struct{}{}
	seenName := map[string]struct{}{}
	for _, s := range p.Securities {
		if s.ISIN != "" {
			seenISIN[s.ISIN] = struct{}{}
		}
		seenName[normName(s.Name)] = struct{}{}
	}

	filled := false
	for _, f := range secs {
		sec := entity.Security{
			Name:     strings.TrimSpace(f.Name),
			Currency: strings.ToUpper(f.Currency),
		}
		if sec.Name == "" {
			continue
		}

		if f.ISIN != "" {
			if extract.ValidateISIN(f.ISIN) {
				sec.ISIN = f.ISIN
			} else {
				logger.Warn("dropping invalid isin from model output", "isin", f.ISIN, "name", f.Name)
			}
		}
		if f.CUSIP != "" && extract.ValidateCUSIP(f.CUSIP) {
			sec.CUSIP = f.CUSIP
		}
		if f.SEDOL != "" && extract.ValidateSEDOL(f.SEDOL) {
			sec.SEDOL = f.SEDOL
		}

		if sec.ISIN != "" {
			if _, dup := seenISIN[sec.ISIN]; dup {
				continue
			}
		} else if _, dup := seenName[normName(sec.Name)]; dup {
			continue
		}

		sec.InstrumentType = string(extract.ClassifyInstrument(sec.Name, f.Type))
		sec.Quantity = parseDec(f.Quantity)
		sec.Price = parseDec(f.Price)
		sec.Value = parseDec(f.Value)
		sec.WeightPct = parseDec(f.Weight)
		if sec.Currency == "" {
			sec.Currency = p.Currency
		}

		p.Securities = append(p.Securities, sec)
		if sec.ISIN != "" {
			seenISIN[sec.ISIN] = struct{}{}
		}
		seenName[normName(sec.Name)] = struct{}{}
		filled = true
	}
	return filled
}

func mergeAllocations(p *entity.Portfolio, allocs []llm.AllocationFields) bool {
	if len(p.Allocations) > 0 || len(allocs) == 0 {
		return false
	}

	seen := map[string]struct{}{}
	for _, f := range allocs {
		label := strings.TrimSpace(f.AssetClass)
		if label == "" {
			continue
		}
		class, ok := constants.CanonicalizeAssetClass(label)
		if !ok {
			class = constants.AssetOther
		}
		if _, dup := seen[string(class)]; dup {
			continue
		}
		seen[string(class)] = struct{}{}

		p.Allocations = append(p.Allocations, entity.Allocation{
			AssetClass: string(class),
			Label:      label,
			Value:      parseDec(f.Value),
			Percent:    parseDec(f.Percent),
		})
	}
	return len(p.Allocations) > 0
}

func mergePerformance(p *entity.Portfolio, perf map[string]string) bool {
	if len(perf) == 0 {
		return false
	}
	if p.Performance == nil {
		p.Performance = &entity.Performance{}
	}

	slots := map[string]**decimal.Decimal{
		"ytd":       &p.Performance.YTD,
		"1m":        &p.Performance.OneMonth,
		"3m":        &p.Performance.ThreeMonth,
		"6m":        &p.Performance.SixMonth,
		"1y":        &p.Performance.OneYear,
		"3y":        &p.Performance.ThreeYear,
		"5y":        &p.Performance.FiveYear,
		"10y":       &p.Performance.TenYear,
		"inception": &p.Performance.SinceInception,
	}

	filled := false
	for key, raw := range perf {
		slot, ok := slots[strings.ToLower(strings.TrimSpace(key))]
		if !ok || *slot != nil {
			continue
		}
		if d := parseDec(raw); d != nil {
			*slot = d
			filled = true
		}
	}
	if p.Performance.IsEmpty() {
		p.Performance = nil
	}
	return filled
}

func parseDec(s string) *decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &d
}

func normName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
