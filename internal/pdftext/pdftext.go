// Package pdftext turns source files (PDF, HTML, plain text, CSV) into the
// text-plus-tables Document the extraction engine consumes.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
)

type Config struct {
	Pdftotext string // fallback binary; if empty -> "pdftotext"
	MaxPages  int    // 0 = no limit
}

type Result struct {
	Doc        extract.Document
	Pages      int
	SourceType string // constants.PDF | HTML | TEXT | CSV
	Method     string // "pdf-lib" | "pdf-tool" | "html" | "text" | "csv"
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// TextExtractor is the behavior the pipeline depends on.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)

	var res Result
	var err error
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.HTML:
		res, err = e.extractHTML(path)
	case constants.TEXT:
		res, err = e.extractText(path)
	case constants.CSV:
		res, err = e.extractCSV(path)
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	if len(res.Doc.Tables) == 0 {
		res.Doc.Tables = TablesFromText(res.Doc.Text)
	}
	res.Confidence = scoreTextQuality(res.Doc.Text)

	e.logger.Info("text extraction done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"tables", len(res.Doc.Tables),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
