package extract

import "strings"

// Table is one loosely-structured table pulled from a document. Headers may
// be empty when the source had no recognizable header row; Title is whatever
// caption or preceding line the acquisition layer attached.
type Table struct {
	Title   string     `json:"title,omitempty"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// Document is the raw material the engine works on: the full text layer plus
// whatever tables could be recovered.
type Document struct {
	Text   string  `json:"text"`
	Tables []Table `json:"tables,omitempty"`
}

// normHeader lowercases a header cell and collapses separators so keyword
// matching is insensitive to "Asset Class" vs "asset_class" vs "Asset-Class".
func normHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ", "/", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// headerIndex returns the index of the first header matching any keyword
// (substring match on the normalized header), or -1.
func headerIndex(headers []string, keywords ...string) int {
	for i, h := range headers {
		n := normHeader(h)
		if n == "" {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(n, kw) {
				return i
			}
		}
	}
	return -1
}

// cell safely fetches row[i], tolerating ragged rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
