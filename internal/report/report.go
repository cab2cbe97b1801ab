// Package report renders extracted portfolios as human-readable HTML reports.
package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

// Service loads a stored portfolio and renders it as an HTML document.
type Service struct {
	portfolios repository.PortfolioRepository
	files      repository.DocumentFileRepository
	logger     *slog.Logger
	md         goldmark.Markdown
}

func NewService(portfolios repository.PortfolioRepository, files repository.DocumentFileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		portfolios: portfolios,
		files:      files,
		logger:     logger,
		md:         goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// RenderPortfolioHTML renders the portfolio extracted from the given file.
func (s *Service) RenderPortfolioHTML(ctx context.Context, fileID uuid.UUID) ([]byte, error) {
	p, err := s.portfolios.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	sourceName := ""
	if file, err := s.files.GetByID(ctx, fileID); err == nil {
		sourceName = file.Filename
	}

	markdown := BuildMarkdown(p, sourceName)

	var body bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", htmlTitle(p))
	out.WriteString("<style>body{font-family:sans-serif;max-width:60em;margin:2em auto;padding:0 1em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px;text-align:left}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")

	s.logger.Info("portfolio report rendered", "file_id", fileID, "portfolio_id", p.ID, "bytes", out.Len())
	return out.Bytes(), nil
}

// BuildMarkdown produces the GFM source of the report. Kept separate from
// rendering so it can be tested without going through goldmark.
func BuildMarkdown(p *entity.Portfolio, sourceName string) string {
	var b strings.Builder

	title := p.Title
	if title == "" {
		title = "Portfolio Statement"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	writeMetadata(&b, p, sourceName)
	writeHoldings(&b, p)
	writeAllocations(&b, p)
	writePerformance(&b, p)
	writeConfidence(&b, p)

	return b.String()
}

func writeMetadata(b *strings.Builder, p *entity.Portfolio, sourceName string) {
	rows := [][2]string{}
	if p.Owner != "" {
		rows = append(rows, [2]string{"Owner", p.Owner})
	}
	if p.Manager != "" {
		rows = append(rows, [2]string{"Manager", p.Manager})
	}
	if p.ValuationDate != nil {
		rows = append(rows, [2]string{"Valuation date", p.ValuationDate.Format("2006-01-02")})
	}
	if p.TotalValue != nil {
		rows = append(rows, [2]string{"Total value", displayMoney(p.TotalValue, p.Currency)})
	}
	if p.Currency != "" {
		rows = append(rows, [2]string{"Currency", p.Currency})
	}
	if sourceName != "" {
		rows = append(rows, [2]string{"Source document", sourceName})
	}
	if len(rows) == 0 {
		return
	}

	b.WriteString("| | |\n|---|---|\n")
	for _, kv := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", kv[0], kv[1])
	}
	b.WriteString("\n")
}

func writeHoldings(b *strings.Builder, p *entity.Portfolio) {
	if len(p.Securities) == 0 {
		return
	}
	b.WriteString("## Holdings\n\n")
	b.WriteString("| Identifier | Name | Type | Quantity | Value | Weight % |\n")
	b.WriteString("|---|---|---|---:|---:|---:|\n")
	for _, sec := range p.Securities {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			identifier(sec), sec.Name, sec.InstrumentType,
			dec(sec.Quantity), dec(sec.Value), dec(sec.WeightPct))
	}
	b.WriteString("\n")
}

func writeAllocations(b *strings.Builder, p *entity.Portfolio) {
	if len(p.Allocations) == 0 {
		return
	}
	b.WriteString("## Asset Allocation\n\n")
	b.WriteString("| Asset Class | Value | Percent |\n|---|---:|---:|\n")
	for _, a := range p.Allocations {
		label := a.Label
		if label == "" {
			label = a.AssetClass
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", label, dec(a.Value), dec(a.Percent))
	}
	b.WriteString("\n")
}

func writePerformance(b *strings.Builder, p *entity.Portfolio) {
	if p.Performance.IsEmpty() {
		return
	}
	b.WriteString("## Performance\n\n")
	b.WriteString("| Period | Return % |\n|---|---:|\n")
	periods := []struct {
		label string
		value *decimal.Decimal
	}{
		{"1 month", p.Performance.OneMonth},
		{"3 months", p.Performance.ThreeMonth},
		{"6 months", p.Performance.SixMonth},
		{"YTD", p.Performance.YTD},
		{"1 year", p.Performance.OneYear},
		{"3 years", p.Performance.ThreeYear},
		{"5 years", p.Performance.FiveYear},
		{"10 years", p.Performance.TenYear},
		{"Since inception", p.Performance.SinceInception},
	}
	for _, period := range periods {
		if period.value == nil {
			continue
		}
		fmt.Fprintf(b, "| %s | %s |\n", period.label, period.value.String())
	}
	b.WriteString("\n")
}

func writeConfidence(b *strings.Builder, p *entity.Portfolio) {
	fmt.Fprintf(b, "---\n\nExtraction confidence: **%.2f** (metadata %.2f, securities %.2f, allocations %.2f, performance %.2f)\n",
		p.Confidence.Overall, p.Confidence.Metadata, p.Confidence.Securities,
		p.Confidence.Allocations, p.Confidence.Performance)
}

func identifier(sec entity.Security) string {
	switch {
	case sec.ISIN != "":
		return sec.ISIN
	case sec.CUSIP != "":
		return sec.CUSIP
	case sec.SEDOL != "":
		return sec.SEDOL
	default:
		return ""
	}
}

func dec(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func displayMoney(d *decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return d.String()
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

func htmlTitle(p *entity.Portfolio) string {
	if p.Title != "" {
		return p.Title
	}
	return "Portfolio Statement"
}
