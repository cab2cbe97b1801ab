package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/findoc-io/findoc-analyzer/internal/extract"
)

// RepairJSON recovers a JSON document from model output that is almost JSON:
// markdown fences, trailing commas, single quotes, chatty prefixes.
func RepairJSON(raw []byte) ([]byte, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return nil, fmt.Errorf("repair: empty content")
	}
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	fixed, err := jsonrepair.RepairJSON(s)
	if err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	}
	return []byte(fixed), nil
}

// NormalizeAndSanitizeJSON
// - Renames known synonyms (holdings -> securities, currency -> currency_code)
// - Drops null/empty optionals
// - Coerces numeric -> string for money-ish fields, normalizing the decimal
// - Uppercases identifiers and currency codes
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	rename("holdings", "securities")
	rename("positions", "securities")
	rename("asset_allocation", "allocations")
	rename("currency", "currency_code")
	rename("total", "total_value")
	rename("date", "valuation_date")
	rename("portfolio_title", "title")
	rename("client", "owner")
	rename("bank", "manager")

	for _, k := range []string{"total_value"} {
		coerceDecimal(m, k, &dropped)
	}
	for _, k := range []string{"title", "valuation_date", "owner", "manager"} {
		trimOrDrop(m, k, &dropped)
	}
	if v, ok := m["currency_code"].(string); ok {
		m["currency_code"] = strings.ToUpper(strings.TrimSpace(v))
	}

	if arr, ok := m["securities"].([]any); ok {
		m["securities"] = sanitizeSecurities(arr, &dropped)
	}
	if arr, ok := m["allocations"].([]any); ok {
		m["allocations"] = sanitizeAllocations(arr, &dropped)
	}
	if perf, ok := m["performance"].(map[string]any); ok {
		for k := range perf {
			coerceDecimal(perf, k, &dropped)
		}
		if len(perf) == 0 {
			delete(m, "performance")
		}
	}

	allowed := map[string]struct{}{
		"title": {}, "valuation_date": {}, "total_value": {}, "currency_code": {},
		"owner": {}, "manager": {}, "securities": {}, "allocations": {},
		"performance": {}, "confidence": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeSecurities(arr []any, dropped *[]string) []any {
	allowed := map[string]struct{}{
		"isin": {}, "cusip": {}, "sedol": {}, "name": {}, "type": {},
		"quantity": {}, "price": {}, "value": {}, "weight": {}, "currency": {},
	}
	out := make([]any, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(map[string]any)
		if !ok {
			*dropped = append(*dropped, "securities(item-type)")
			continue
		}
		for _, k := range []string{"isin", "cusip", "sedol", "currency"} {
			if v, ok := s[k].(string); ok {
				up := strings.ToUpper(strings.TrimSpace(v))
				if up == "" {
					delete(s, k)
					*dropped = append(*dropped, "securities."+k+"(empty)")
				} else {
					s[k] = up
				}
			}
		}
		for _, k := range []string{"quantity", "price", "value", "weight"} {
			coerceDecimal(s, k, dropped)
		}
		trimOrDrop(s, "name", dropped)
		trimOrDrop(s, "type", dropped)
		for k := range s {
			if _, ok := allowed[k]; !ok {
				delete(s, k)
				*dropped = append(*dropped, "securities."+k+"(unknown)")
			}
		}
		if _, ok := s["name"]; !ok {
			*dropped = append(*dropped, "securities(item-unnamed)")
			continue
		}
		out = append(out, s)
	}
	return out
}

func sanitizeAllocations(arr []any, dropped *[]string) []any {
	out := make([]any, 0, len(arr))
	for _, item := range arr {
		a, ok := item.(map[string]any)
		if !ok {
			*dropped = append(*dropped, "allocations(item-type)")
			continue
		}
		trimOrDrop(a, "asset_class", dropped)
		coerceDecimal(a, "value", dropped)
		coerceDecimal(a, "percent", dropped)
		for k := range a {
			switch k {
			case "asset_class", "value", "percent":
			default:
				delete(a, k)
				*dropped = append(*dropped, "allocations."+k+"(unknown)")
			}
		}
		if _, ok := a["asset_class"]; !ok {
			*dropped = append(*dropped, "allocations(item-unlabeled)")
			continue
		}
		if _, ok := a["percent"]; !ok {
			*dropped = append(*dropped, "allocations(item-no-percent)")
			continue
		}
		out = append(out, a)
	}
	return out
}

// coerceDecimal turns a numeric or numeric-string value into the normalized
// dot-decimal string the schema expects, dropping anything unparseable.
// Strings go through the locale-aware amount parser, so "1.234,50" and
// "8'500.00" normalize correctly.
func coerceDecimal(m map[string]any, k string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	switch t := v.(type) {
	case float64:
		m[k] = strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			*dropped = append(*dropped, k+"(empty)")
			return
		}
		d, err := extract.ParseAmount(s)
		if err != nil {
			delete(m, k)
			*dropped = append(*dropped, k+"(unparseable)")
			return
		}
		m[k] = d.String()
	case nil:
		delete(m, k)
		*dropped = append(*dropped, k+"(null)")
	default:
		delete(m, k)
		*dropped = append(*dropped, k+"(type)")
	}
}

func trimOrDrop(m map[string]any, k string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	s, isStr := v.(string)
	if !isStr {
		delete(m, k)
		*dropped = append(*dropped, k+"(type)")
		return
	}
	s = strings.TrimSpace(s)
	if s == "" {
		delete(m, k)
		*dropped = append(*dropped, k+"(empty)")
		return
	}
	m[k] = s
}
