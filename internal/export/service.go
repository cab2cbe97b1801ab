// Package export turns stored portfolios into XLSX workbooks for download.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	portfolios repository.PortfolioRepository
	files      repository.DocumentFileRepository
	logger     *slog.Logger
}

func NewService(portfolios repository.PortfolioRepository, files repository.DocumentFileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{portfolios: portfolios, files: files, logger: logger}
}

// Sheet names in the exported workbook.
const (
	sheetSummary     = "Summary"
	sheetHoldings    = "Holdings"
	sheetAllocation  = "Allocation"
	sheetPerformance = "Performance"
)

// ExportPortfolioXLSX returns an XLSX workbook (as bytes) for the portfolio
// extracted from the given file.
func (s *Service) ExportPortfolioXLSX(ctx context.Context, fileID uuid.UUID) ([]byte, error) {
	start := time.Now()

	p, err := s.portfolios.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	sourceName := ""
	if file, err := s.files.GetByID(ctx, fileID); err == nil {
		sourceName = file.Filename
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}

	writeSummarySheet(f, p, sourceName)
	if err := writeHoldingsSheet(f, p); err != nil {
		return nil, err
	}
	if err := writeAllocationSheet(f, p); err != nil {
		return nil, err
	}
	if err := writePerformanceSheet(f, p); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("portfolio exported",
		"file_id", fileID,
		"portfolio_id", p.ID,
		"securities", len(p.Securities),
		"bytes", buf.Len(),
		"duration", time.Since(start),
	)
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, p *entity.Portfolio, sourceName string) {
	rows := [][2]any{
		{"Portfolio", p.Title},
		{"Owner", p.Owner},
		{"Manager", p.Manager},
		{"Currency", p.Currency},
		{"Valuation Date", formatDate(p.ValuationDate)},
		{"Total Value", formatMoney(p.TotalValue, p.Currency)},
		{"Source Document", sourceName},
		{"Holdings", len(p.Securities)},
		{"Extraction Confidence", fmt.Sprintf("%.2f", p.Confidence.Overall)},
	}
	for i, kv := range rows {
		setCell(f, sheetSummary, 1, i+1, kv[0])
		setCell(f, sheetSummary, 2, i+1, kv[1])
	}
}

func writeHoldingsSheet(f *excelize.File, p *entity.Portfolio) error {
	if _, err := f.NewSheet(sheetHoldings); err != nil {
		return err
	}

	headers := []string{"ISIN", "CUSIP", "SEDOL", "Name", "Type", "Quantity", "Price", "Value", "Currency", "Weight %"}
	for i, h := range headers {
		setCell(f, sheetHoldings, i+1, 1, h)
	}

	row := 2
	for _, sec := range p.Securities {
		setCell(f, sheetHoldings, 1, row, sec.ISIN)
		setCell(f, sheetHoldings, 2, row, sec.CUSIP)
		setCell(f, sheetHoldings, 3, row, sec.SEDOL)
		setCell(f, sheetHoldings, 4, row, sec.Name)
		setCell(f, sheetHoldings, 5, row, sec.InstrumentType)
		setCell(f, sheetHoldings, 6, row, decCell(sec.Quantity))
		setCell(f, sheetHoldings, 7, row, decCell(sec.Price))
		setCell(f, sheetHoldings, 8, row, decCell(sec.Value))
		setCell(f, sheetHoldings, 9, row, sec.Currency)
		setCell(f, sheetHoldings, 10, row, decCell(sec.WeightPct))
		row++
	}
	return nil
}

func writeAllocationSheet(f *excelize.File, p *entity.Portfolio) error {
	if _, err := f.NewSheet(sheetAllocation); err != nil {
		return err
	}

	headers := []string{"Asset Class", "Label", "Value", "Percent"}
	for i, h := range headers {
		setCell(f, sheetAllocation, i+1, 1, h)
	}

	row := 2
	for _, a := range p.Allocations {
		setCell(f, sheetAllocation, 1, row, a.AssetClass)
		setCell(f, sheetAllocation, 2, row, a.Label)
		setCell(f, sheetAllocation, 3, row, decCell(a.Value))
		setCell(f, sheetAllocation, 4, row, decCell(a.Percent))
		row++
	}
	return nil
}

func writePerformanceSheet(f *excelize.File, p *entity.Portfolio) error {
	if _, err := f.NewSheet(sheetPerformance); err != nil {
		return err
	}

	setCell(f, sheetPerformance, 1, 1, "Period")
	setCell(f, sheetPerformance, 2, 1, "Return %")

	if p.Performance == nil {
		return nil
	}

	periods := []struct {
		label string
		value *decimal.Decimal
	}{
		{"1 Month", p.Performance.OneMonth},
		{"3 Months", p.Performance.ThreeMonth},
		{"6 Months", p.Performance.SixMonth},
		{"YTD", p.Performance.YTD},
		{"1 Year", p.Performance.OneYear},
		{"3 Years", p.Performance.ThreeYear},
		{"5 Years", p.Performance.FiveYear},
		{"10 Years", p.Performance.TenYear},
		{"Since Inception", p.Performance.SinceInception},
	}

	row := 2
	for _, period := range periods {
		if period.value == nil {
			continue
		}
		setCell(f, sheetPerformance, 1, row, period.label)
		setCell(f, sheetPerformance, 2, row, decCell(period.value))
		row++
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, v)
}

func decCell(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	v, _ := d.Float64()
	return v
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatMoney renders a decimal amount in the currency's display format,
// e.g. "$1,250,000.00". Falls back to the bare decimal when the currency is
// unknown.
func formatMoney(d *decimal.Decimal, currency string) string {
	if d == nil {
		return ""
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return d.String()
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}
