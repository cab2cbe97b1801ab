package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/findoc-io/findoc-analyzer/internal/llm"
)

// ExtractFields implements llm.FieldExtractor over the OpenAI-compatible
// chat/completions API.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.PortfolioFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.DocumentText),
		"want_sections", req.WantSections,
		"known_identifiers", len(req.KnownIdentifiers),
		"prep_confidence", req.PrepConfidence,
	)

	schema := llm.BuildPortfolioJSONSchema()
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, httpErr := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if httpErr != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PortfolioFields{}, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PortfolioFields{}, raw, fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PortfolioFields{}, raw, fmt.Errorf("no choices in openrouter response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	out, sanitized, err := llm.DecodeFields([]byte(content), c.logger)
	if err != nil {
		c.logger.Error("llm.extract.invalid_output",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PortfolioFields{}, sanitized, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"securities", len(out.Securities),
		"allocations", len(out.Allocations),
		"performance_periods", len(out.Performance),
		"currency", out.CurrencyCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, sanitized, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
