package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAndSanitizeJSON(t *testing.T) {
	raw := []byte(`{
		"currency": "usd",
		"total": 1250000.5,
		"date": "2024-12-31",
		"holdings": [
			{"isin": "us0378331005", "name": " Apple Inc ", "value": 12000.5, "weight": "4.2%", "note": "x"},
			{"isin": "US5949181045", "name": "", "value": "8'500.00"},
			{"isin": "CH0012032048", "name": "Roche Holding AG", "value": "1.234,50", "currency": "chf"}
		],
		"asset_allocation": [
			{"asset_class": "Equities", "percent": 60},
			{"asset_class": "Bonds", "percent": null}
		],
		"performance": {"ytd": "8.4%", "1y": 12.1},
		"chatter": "ignore me"
	}`)

	out, dropped, err := NormalizeAndSanitizeJSON(raw, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, dropped)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))

	assert.Equal(t, "USD", m["currency_code"])
	assert.Equal(t, "1250000.5", m["total_value"])
	assert.Equal(t, "2024-12-31", m["valuation_date"])
	assert.NotContains(t, m, "chatter")

	secs := m["securities"].([]any)
	require.Len(t, secs, 2) // the unnamed holding is dropped

	first := secs[0].(map[string]any)
	assert.Equal(t, "US0378331005", first["isin"])
	assert.Equal(t, "Apple Inc", first["name"])
	assert.Equal(t, "12000.5", first["value"])
	assert.Equal(t, "4.2", first["weight"])
	assert.NotContains(t, first, "note")

	swiss := secs[1].(map[string]any)
	assert.Equal(t, "1234.5", swiss["value"])
	assert.Equal(t, "CHF", swiss["currency"])

	allocs := m["allocations"].([]any)
	require.Len(t, allocs, 1) // the percent-less line is dropped
	assert.Equal(t, "60", allocs[0].(map[string]any)["percent"])

	perf := m["performance"].(map[string]any)
	assert.Equal(t, "8.4", perf["ytd"])
	assert.Equal(t, "12.1", perf["1y"])
}

func TestNormalizeAndSanitizeJSONBadInput(t *testing.T) {
	_, _, err := NormalizeAndSanitizeJSON([]byte("not json"), nil)
	assert.Error(t, err)
}

func TestRepairJSON(t *testing.T) {
	fenced := []byte("```json\n{\"title\": \"Q4 Statement\",}\n```")
	out, err := RepairJSON(fenced)
	require.NoError(t, err)
	assert.True(t, json.Valid(out))

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "Q4 Statement", m["title"])

	valid := []byte(`{"title":"ok"}`)
	out, err = RepairJSON(valid)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"ok"}`, string(out))

	_, err = RepairJSON([]byte("   "))
	assert.Error(t, err)
}

func TestDecodeFields(t *testing.T) {
	content := []byte(`{
		"valuation_date": "2024-12-31",
		"currency_code": "chf",
		"securities": [{"isin": "ch0012032048", "name": "Roche Holding AG", "value": "310000"}],
		"performance": {"ytd": "8.4"}
	}`)

	fields, sanitized, err := DecodeFields(content, nil)
	require.NoError(t, err)
	assert.True(t, json.Valid(sanitized))
	assert.Equal(t, "CHF", fields.CurrencyCode)
	require.Len(t, fields.Securities, 1)
	assert.Equal(t, "CH0012032048", fields.Securities[0].ISIN)
	assert.Equal(t, "8.4", fields.Performance["ytd"])
}

func TestDecodeFieldsRejectsBadIdentifier(t *testing.T) {
	content := []byte(`{"securities": [{"isin": "NOT-AN-ISIN", "name": "Mystery Corp"}]}`)
	_, _, err := DecodeFields(content, nil)
	assert.Error(t, err)
}

func TestBuildPrompts(t *testing.T) {
	req := ExtractRequest{
		DocumentText:     "Portfolio Statement ...",
		FilenameHint:     "q4.pdf",
		DefaultCurrency:  "CHF",
		WantSections:     []string{"allocations", "performance"},
		KnownIdentifiers: []string{"US0378331005"},
	}

	sys := BuildSystemPrompt(req)
	assert.Contains(t, sys, "CHF")
	assert.Contains(t, sys, "allocations, performance")
	assert.Contains(t, sys, "US0378331005")

	user := BuildUserPrompt(req)
	assert.Contains(t, user, "q4.pdf")
	assert.Contains(t, user, "Portfolio Statement")
}
