package pdftext

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
)

// extractHTML pulls the visible text and every <table> from an HTML report.
func (e *Extractor) extractHTML(path string) (Result, error) {
	res := Result{SourceType: constants.HTML, Method: "html", Pages: 1}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return res, err
	}

	doc.Find("script, style").Remove()

	var tables []extract.Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		t := extract.Table{}

		if caption := sel.Find("caption").First(); caption.Length() > 0 {
			t.Title = strings.TrimSpace(caption.Text())
		}
		if t.Title == "" {
			// nearest preceding heading doubles as the caption
			if h := sel.PrevAllFiltered("h1, h2, h3, h4").First(); h.Length() > 0 {
				t.Title = strings.TrimSpace(h.Text())
			}
		}

		sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			isHeader := false
			tr.Find("th, td").Each(func(_ int, cellSel *goquery.Selection) {
				if goquery.NodeName(cellSel) == "th" {
					isHeader = true
				}
				cells = append(cells, strings.TrimSpace(cellSel.Text()))
			})
			if len(cells) == 0 {
				return
			}
			if isHeader && t.Headers == nil && len(t.Rows) == 0 {
				t.Headers = cells
				return
			}
			t.Rows = append(t.Rows, cells)
		})

		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	})

	// body text with tables removed keeps the free-text scanners from
	// re-reading table content
	doc.Find("table").Remove()
	text := doc.Find("body").Text()
	res.Doc = extract.Document{
		Text:   collapseBlankLines(text),
		Tables: tables,
	}
	return res, nil
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
