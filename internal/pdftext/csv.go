package pdftext

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
)

// extractCSV maps the whole file onto a single table, first record as
// headers. Delimiter is sniffed between comma and semicolon since European
// exports routinely use the latter.
func (e *Extractor) extractCSV(path string) (Result, error) {
	res := Result{SourceType: constants.CSV, Method: "csv", Pages: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = sniffDelimiter(string(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return res, err
	}
	if len(records) == 0 {
		res.Doc = extract.Document{}
		return res, nil
	}

	t := extract.Table{Headers: trimAll(records[0])}
	for _, rec := range records[1:] {
		row := trimAll(rec)
		if allEmpty(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	res.Doc = extract.Document{Tables: []extract.Table{t}}
	if len(t.Rows) == 0 {
		res.Doc.Tables = nil
	}
	return res, nil
}

func sniffDelimiter(s string) rune {
	head := s
	if idx := strings.IndexByte(head, '\n'); idx >= 0 {
		head = head[:idx]
	}
	if strings.Count(head, ";") > strings.Count(head, ",") {
		return ';'
	}
	return ','
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, c := range rec {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func allEmpty(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}
