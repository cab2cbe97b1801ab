// Package extract is the heuristic financial-data extraction engine: it
// takes the raw text and loosely-structured tables recovered from a financial
// document and rebuilds a structured portfolio model. Extraction is
// best-effort: fields the document does not support stay empty, and the
// per-section confidence tells callers how much to trust each part.
package extract

import (
	"log/slog"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

// Engine runs the full heuristic cascade. It is stateless and safe for
// concurrent use.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Extract recovers a portfolio model from a document. It never returns an
// error: a document with nothing recognizable yields an empty portfolio with
// zero confidence, and the caller decides whether that needs review or an
// LLM pass.
func (e *Engine) Extract(doc Document) *entity.Portfolio {
	p := &entity.Portfolio{}

	p.Confidence.Metadata = ExtractMetadata(doc.Text, p)

	secs, secConf := ResolveSecurities(doc)
	p.Securities = secs
	p.Confidence.Securities = secConf

	allocs, allocConf := ResolveAllocation(doc)
	p.Allocations = allocs
	p.Confidence.Allocations = allocConf

	perf, perfConf := ResolvePerformance(doc)
	p.Performance = perf
	p.Confidence.Performance = perfConf

	// Securities currency backfill from the portfolio currency.
	for i := range p.Securities {
		if p.Securities[i].Currency == "" {
			p.Securities[i].Currency = p.Currency
		}
	}

	p.Confidence.Overall = OverallConfidence(p.Confidence)

	e.logger.Debug("extraction complete",
		"securities", len(p.Securities),
		"allocations", len(p.Allocations),
		"has_performance", p.Performance != nil,
		"confidence", p.Confidence.Overall,
	)
	return p
}

// OverallConfidence weights the sections by how much they matter to the
// product: holdings dominate, metadata and allocation matter, performance is
// a bonus section many statements simply do not carry.
func OverallConfidence(c entity.SectionConfidence) float32 {
	const (
		wSecurities  = 0.45
		wMetadata    = 0.25
		wAllocations = 0.20
		wPerformance = 0.10
	)
	return wSecurities*c.Securities +
		wMetadata*c.Metadata +
		wAllocations*c.Allocations +
		wPerformance*c.Performance
}
