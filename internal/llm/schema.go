package llm

// BuildPortfolioJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the provider as a structured-output constraint
// and also use it locally to validate what comes back.
func BuildPortfolioJSONSchema() map[string]any {
	securityProps := map[string]any{
		"isin":     map[string]any{"type": "string", "pattern": `^[A-Z]{2}[A-Z0-9]{9}\d$`},
		"cusip":    map[string]any{"type": "string", "pattern": `^[0-9A-Z*@#]{9}$`},
		"sedol":    map[string]any{"type": "string", "pattern": `^[0-9BCDFGHJKLMNPQRSTVWXYZ]{6}\d$`},
		"name":     map[string]any{"type": "string", "minLength": 1},
		"type":     map[string]any{"type": "string"},
		"quantity": decimalProp(),
		"price":    decimalProp(),
		"value":    decimalProp(),
		"weight":   decimalProp(),
		"currency": currencyProp(),
	}

	allocationProps := map[string]any{
		"asset_class": map[string]any{"type": "string", "minLength": 1},
		"value":       decimalProp(),
		"percent":     decimalProp(),
	}

	props := map[string]any{
		"title":          map[string]any{"type": "string"},
		"valuation_date": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"total_value":    decimalProp(),
		"currency_code":  currencyProp(),
		"owner":          map[string]any{"type": "string"},
		"manager":        map[string]any{"type": "string"},
		"securities": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           securityProps,
				"required":             []string{"name"},
			},
		},
		"allocations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           allocationProps,
				"required":             []string{"asset_class", "percent"},
			},
		},
		"performance": map[string]any{
			"type":                 "object",
			"additionalProperties": decimalProp(),
		},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d+)?$`, // normalized, dot decimal, no grouping
	}
}

func currencyProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^[A-Z]{3}$`,
	}
}
