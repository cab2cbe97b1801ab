package extract

import (
	"regexp"
	"strings"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

var securitiesProfile = scoreProfile{
	titleKeywords:  []string{"holding", "securities", "positions", "portfolio detail", "investments", "asset detail"},
	headerKeywords: []string{"isin", "cusip", "sedol", "security", "instrument", "description", "name", "quantity", "nominal", "units", "price", "value", "market value", "weight"},
	minHeaderHits:  2,
}

// ResolveSecurities finds the holdings table and parses it into securities.
// When no table qualifies, it falls back to scanning the raw text for ISINs
// with proximity-based name extraction. Returns the holdings and a section
// confidence.
func ResolveSecurities(doc Document) ([]entity.Security, float32) {
	if idx := bestTable(doc.Tables, securitiesProfile); idx >= 0 {
		secs := parseSecuritiesTable(doc.Tables[idx])
		if len(secs) > 0 {
			return secs, tableConfidence(len(secs), len(doc.Tables[idx].Rows))
		}
	}
	secs := scanSecuritiesFromText(doc.Text)
	if len(secs) == 0 {
		return nil, 0
	}
	// Text-scan results carry less certainty than a resolved table.
	return secs, 0.5
}

// tableConfidence rates how much of the chosen table actually yielded rows.
func tableConfidence(parsed, total int) float32 {
	if total == 0 {
		return 0
	}
	ratio := float32(parsed) / float32(total)
	if ratio > 1 {
		ratio = 1
	}
	return 0.6 + 0.4*ratio
}

func parseSecuritiesTable(t Table) []entity.Security {
	idIdx := headerIndex(t.Headers, "isin", "cusip", "sedol", "identifier", "id")
	nameIdx := headerIndex(t.Headers, "security", "instrument", "description", "name", "designation")
	typeIdx := headerIndex(t.Headers, "type", "asset class", "category", "class")
	qtyIdx := headerIndex(t.Headers, "quantity", "nominal", "units", "qty", "shares", "amount held")
	priceIdx := headerIndex(t.Headers, "price", "quote", "rate", "cours")
	valueIdx := headerIndex(t.Headers, "market value", "value", "valuation", "total")
	curIdx := headerIndex(t.Headers, "currency", "ccy", "cur")
	weightIdx := headerIndex(t.Headers, "weight", "%", "allocation", "share of")

	var out []entity.Security
	for _, row := range t.Rows {
		sec := entity.Security{}

		// Identifier: prefer the labelled column; otherwise sniff every cell.
		candidate := cell(row, idIdx)
		if candidate == "" {
			for _, c := range row {
				if DetectIdentifier(c) != KindUnknown {
					candidate = strings.TrimSpace(c)
					break
				}
			}
		}
		switch DetectIdentifier(candidate) {
		case KindISIN:
			sec.ISIN = strings.ToUpper(candidate)
		case KindCUSIP:
			sec.CUSIP = strings.ToUpper(candidate)
		case KindSEDOL:
			sec.SEDOL = strings.ToUpper(candidate)
		}

		sec.Name = cell(row, nameIdx)
		if sec.Name == "" && nameIdx < 0 {
			sec.Name = longestTextCell(row, candidate)
		}

		if v, err := ParseAmount(cell(row, qtyIdx)); err == nil && qtyIdx >= 0 {
			sec.Quantity = &v
		}
		if v, err := ParseAmount(cell(row, priceIdx)); err == nil && priceIdx >= 0 {
			sec.Price = &v
		}
		if v, err := ParseAmount(cell(row, valueIdx)); err == nil && valueIdx >= 0 {
			sec.Value = &v
		}
		if v, err := ParsePercent(cell(row, weightIdx)); err == nil && weightIdx >= 0 {
			sec.WeightPct = &v
		}
		if cur := cell(row, curIdx); cur != "" {
			sec.Currency = strings.ToUpper(cur)
		} else if cur := DetectCurrency(strings.Join(row, " ")); cur != "" {
			sec.Currency = cur
		}

		sec.InstrumentType = string(ClassifyInstrument(sec.Name, cell(row, typeIdx)))

		// A row with neither an identifier nor a plausible name is header
		// noise or a subtotal line.
		if sec.ISIN == "" && sec.CUSIP == "" && sec.SEDOL == "" && len(sec.Name) < 3 {
			continue
		}
		if isSubtotalRow(sec.Name) {
			continue
		}
		out = append(out, sec)
	}
	return out
}

var subtotalWords = []string{"total", "subtotal", "sub-total", "sum", "grand total"}

func isSubtotalRow(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, w := range subtotalWords {
		if strings.HasPrefix(n, w) {
			return true
		}
	}
	return false
}

// longestTextCell picks the most name-like cell of a row: the longest cell
// that is not the identifier and not predominantly numeric.
func longestTextCell(row []string, exclude string) string {
	best := ""
	for _, c := range row {
		c = strings.TrimSpace(c)
		if c == exclude || len(c) <= len(best) {
			continue
		}
		if mostlyNumeric(c) {
			continue
		}
		best = c
	}
	return best
}

func mostlyNumeric(s string) bool {
	if s == "" {
		return true
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == ',' || r == '%' || r == '-' || r == '\'' {
			digits++
		}
	}
	return digits*2 > len(s)
}

// nameBeforeISIN captures a capitalized run on the same line, ahead of the
// identifier, to serve as the security name in the text fallback.
var nameBeforeISIN = regexp.MustCompile(`([A-Z][A-Za-z0-9&.,'()\- ]{2,60}?)\s*[,:\-(]?\s*$`)

// scanSecuritiesFromText is the fallback when no holdings table resolves:
// find valid ISINs in the raw text and pull a name from the text immediately
// around each hit.
func scanSecuritiesFromText(text string) []entity.Security {
	var out []entity.Security
	seen := make(map[string]struct{})

	for _, loc := range isinPattern.FindAllStringIndex(text, -1) {
		isin := text[loc[0]:loc[1]]
		if !ValidateISIN(isin) {
			continue
		}
		if _, dup := seen[isin]; dup {
			continue
		}
		seen[isin] = struct{}{}

		sec := entity.Security{ISIN: isin}

		// Name: nearest preceding capitalized run on the same line, else the
		// tail of the previous line.
		lineStart := strings.LastIndexByte(text[:loc[0]], '\n') + 1
		before := strings.TrimSpace(text[lineStart:loc[0]])
		if before == "" && lineStart >= 2 {
			prevStart := strings.LastIndexByte(text[:lineStart-1], '\n') + 1
			before = strings.TrimSpace(text[prevStart : lineStart-1])
		}
		if g := nameBeforeISIN.FindStringSubmatch(before); g != nil {
			sec.Name = tidyLine(g[1])
		}

		// Value/currency: look at the rest of the line after the ISIN.
		lineEnd := strings.IndexByte(text[loc[1]:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text) - loc[1]
		}
		after := text[loc[1] : loc[1]+lineEnd]
		if cur := DetectCurrency(after); cur != "" {
			sec.Currency = cur
		}
		if amounts := findAmounts(after); len(amounts) > 0 {
			v := amounts[len(amounts)-1]
			sec.Value = &v
		}

		sec.InstrumentType = string(ClassifyInstrument(sec.Name, ""))
		out = append(out, sec)
	}
	return out
}
