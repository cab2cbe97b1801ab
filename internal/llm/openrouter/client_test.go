package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findoc-io/findoc-analyzer/internal/llm"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestExtractFields(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		content := `{"valuation_date":"2024-12-31","currency_code":"chf","securities":[{"isin":"ch0012032048","name":"Roche Holding AG","value":"310'000"}]}`
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse(content))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test/model"}, nil)

	fields, raw, err := c.ExtractFields(context.Background(), llm.ExtractRequest{
		DocumentText:    "Portfolio Statement",
		DefaultCurrency: "CHF",
	})
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test/model", gotBody["model"])

	assert.Equal(t, "CHF", fields.CurrencyCode)
	assert.Equal(t, "2024-12-31", fields.ValuationDate)
	require.Len(t, fields.Securities, 1)
	assert.Equal(t, "CH0012032048", fields.Securities[0].ISIN)
	assert.Equal(t, "310000", fields.Securities[0].Value)
	assert.True(t, json.Valid(raw))
}

func TestExtractFieldsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{DocumentText: "x"})
	assert.Error(t, err)
}

func TestExtractFieldsInvalidContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionResponse(`{"securities":[{"isin":"BAD","name":"X"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{DocumentText: "x"})
	assert.Error(t, err)
}
