package extract

import (
	"regexp"
	"strings"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

var allocationProfile = scoreProfile{
	titleKeywords:  []string{"asset allocation", "allocation", "asset class", "breakdown", "repartition", "asset mix"},
	headerKeywords: []string{"asset class", "class", "category", "allocation", "weight", "value", "%", "percent"},
	minHeaderHits:  2,
}

// ResolveAllocation finds the asset-allocation table and parses it. When no
// table qualifies it falls back to scanning free text for
// "<class> <value> <pct>%" lines.
func ResolveAllocation(doc Document) ([]entity.Allocation, float32) {
	if idx := bestTable(doc.Tables, allocationProfile); idx >= 0 {
		allocs := parseAllocationTable(doc.Tables[idx])
		if len(allocs) > 0 {
			return allocs, tableConfidence(len(allocs), len(doc.Tables[idx].Rows))
		}
	}
	allocs := scanAllocationFromText(doc.Text)
	if len(allocs) == 0 {
		return nil, 0
	}
	return allocs, 0.5
}

func parseAllocationTable(t Table) []entity.Allocation {
	labelIdx := headerIndex(t.Headers, "asset class", "class", "category", "allocation", "description", "name")
	valueIdx := headerIndex(t.Headers, "market value", "value", "amount", "valuation")
	pctIdx := headerIndex(t.Headers, "%", "percent", "weight", "share")

	var out []entity.Allocation
	for _, row := range t.Rows {
		label := cell(row, labelIdx)
		if label == "" && labelIdx < 0 {
			label = longestTextCell(row, "")
		}
		if label == "" || isSubtotalRow(label) {
			continue
		}

		alloc := entity.Allocation{Label: tidyLine(label)}
		cls, _ := constants.CanonicalizeAssetClass(label)
		alloc.AssetClass = string(cls)

		if valueIdx >= 0 {
			if v, err := ParseAmount(cell(row, valueIdx)); err == nil {
				alloc.Value = &v
			}
		}
		if pctIdx >= 0 {
			if v, err := ParsePercent(cell(row, pctIdx)); err == nil {
				alloc.Percent = &v
			}
		}
		// Positional fallback: no labelled columns, try every numeric cell;
		// a trailing % marks the percentage.
		if alloc.Value == nil && alloc.Percent == nil {
			for _, c := range row {
				c = strings.TrimSpace(c)
				if strings.HasSuffix(c, "%") {
					if v, err := ParsePercent(c); err == nil && alloc.Percent == nil {
						alloc.Percent = &v
					}
				} else if v, err := ParseAmount(c); err == nil && alloc.Value == nil && !mostlyNumeric(label) {
					alloc.Value = &v
				}
			}
		}

		if alloc.Value == nil && alloc.Percent == nil {
			continue
		}
		out = append(out, alloc)
	}
	return out
}

// allocationLine matches "<class label> <value>? <pct>%" free-text lines,
// e.g. "Equities 1'250'000 45.2%" or "Fixed Income: 30 %".
var allocationLine = regexp.MustCompile(`(?im)^\s*([A-Za-z][A-Za-z&\- ]{2,40}?)\s*[:\-]?\s+([\d.,'’]+)?\s*([+-]?[\d.,]+)\s*%\s*$`)

func scanAllocationFromText(text string) []entity.Allocation {
	var out []entity.Allocation
	seen := make(map[string]struct{})

	for _, g := range allocationLine.FindAllStringSubmatch(text, -1) {
		label := tidyLine(g[1])
		cls, known := constants.CanonicalizeAssetClass(label)
		if !known {
			// Free-text scanning only trusts labels that canonicalize; an
			// arbitrary "Something 42%" line is more likely a performance or
			// weight remark.
			continue
		}
		if _, dup := seen[string(cls)]; dup {
			continue
		}
		seen[string(cls)] = struct{}{}

		alloc := entity.Allocation{Label: label, AssetClass: string(cls)}
		if g[2] != "" {
			if v, err := ParseAmount(g[2]); err == nil {
				alloc.Value = &v
			}
		}
		if v, err := ParsePercent(g[3]); err == nil {
			alloc.Percent = &v
		}
		out = append(out, alloc)
	}
	return out
}
