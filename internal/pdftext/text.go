package pdftext

import (
	"os"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
)

func (e *Extractor) extractText(path string) (Result, error) {
	res := Result{SourceType: constants.TEXT, Method: "text", Pages: 1}
	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	res.Doc = extract.Document{Text: string(data)}
	return res, nil
}
