package pdftext

import (
	"regexp"
	"strings"

	"github.com/findoc-io/findoc-analyzer/internal/extract"
)

var reColumnGap = regexp.MustCompile(`\t+| {2,}`)

// TablesFromText recovers column-aligned tables from layout-preserving text
// (pdftotext -layout output and the like). Consecutive lines that split into
// two or more cells on runs of whitespace form one table; a run needs at
// least two such lines to count.
func TablesFromText(text string) []extract.Table {
	lines := strings.Split(text, "\n")

	var tables []extract.Table
	var run [][]string
	runStart := -1

	flush := func() {
		if len(run) >= 2 {
			tables = append(tables, buildTable(lines, runStart, run))
		}
		run = nil
		runStart = -1
	}

	for i, line := range lines {
		cells := splitColumns(line)
		if len(cells) >= 2 {
			if runStart < 0 {
				runStart = i
			}
			run = append(run, cells)
			continue
		}
		flush()
	}
	flush()

	return tables
}

func splitColumns(line string) []string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	parts := reColumnGap.Split(strings.TrimLeft(line, " \t"), -1)
	var cells []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

func buildTable(lines []string, start int, rows [][]string) extract.Table {
	t := extract.Table{Title: precedingTitle(lines, start)}

	// the first row is a header when it reads as labels, not values
	if headerLike(rows[0]) {
		t.Headers = rows[0]
		t.Rows = rows[1:]
	} else {
		t.Rows = rows
	}
	return t
}

// precedingTitle walks back from the table to the nearest short text line.
func precedingTitle(lines []string, start int) string {
	for i := start - 1; i >= 0 && i >= start-3; i-- {
		s := strings.TrimSpace(lines[i])
		if s == "" {
			continue
		}
		if len(splitColumns(lines[i])) >= 2 {
			return ""
		}
		if len(s) <= 60 && hasLetter(s) {
			return strings.TrimRight(s, ":")
		}
		return ""
	}
	return ""
}

// headerLike reports whether most cells are digit-free labels.
func headerLike(cells []string) bool {
	textual := 0
	for _, c := range cells {
		if hasLetter(c) && !strings.ContainsAny(c, "0123456789") {
			textual++
		}
	}
	return textual*2 > len(cells)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
