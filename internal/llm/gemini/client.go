// Package gemini implements llm.FieldExtractor on the official GenAI SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/findoc-io/findoc-analyzer/internal/llm"
)

type Config struct {
	APIKey      string // if empty, falls back to env GEMINI_API_KEY
	Model       string // e.g. "gemini-2.0-flash"
	Temperature float32
}

type Client struct {
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.PortfolioFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(req.DocumentText),
		"want_sections", req.WantSections,
	)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return llm.PortfolioFields{}, nil, fmt.Errorf("create genai client: %w", err)
	}

	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.cfg.Temperature),
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: sys}},
		},
	}

	result, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(user), cfg)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PortfolioFields{}, nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	content := result.Text()
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
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, sanitized, nil
}
