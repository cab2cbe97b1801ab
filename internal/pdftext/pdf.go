package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
)

// extractPDF reads the text layer in-process and shells out to pdftotext
// when the library recovers nothing usable (typically scanned documents with
// a broken or missing text layer).
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	res := Result{SourceType: constants.PDF}

	text, pages, libErr := readPDFText(path, e.cfg.MaxPages)
	if libErr == nil && strings.TrimSpace(text) != "" {
		res.Method = "pdf-lib"
		res.Pages = pages
		res.Doc = extract.Document{Text: text}
		return res, nil
	}
	if libErr != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("pdf library: %v", libErr))
		e.logger.Warn("pdf library extraction failed, trying pdftotext", "path", path, "error", libErr)
	} else {
		res.Warnings = append(res.Warnings, "pdf library returned empty text")
	}

	out, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-nopgbrk", path, "-")
	if err != nil {
		return res, fmt.Errorf("pdf text extraction failed: %w", err)
	}
	res.Method = "pdf-tool"
	res.Pages = pages
	res.Doc = extract.Document{Text: string(out)}
	return res, nil
}

func readPDFText(path string, maxPages int) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	pages := r.NumPage()
	limit := pages
	if maxPages > 0 && maxPages < limit {
		limit = maxPages
	}

	var buf bytes.Buffer
	for i := 1; i <= limit; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return buf.String(), pages, err
		}
		buf.WriteString(content)
		buf.WriteByte('\n')
	}
	return buf.String(), pages, nil
}
