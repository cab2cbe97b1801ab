// findoc-extract runs the heuristic extraction over a single document and
// prints the resulting portfolio as JSON. No database required.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/findoc-io/findoc-analyzer/internal/extract"
	"github.com/findoc-io/findoc-analyzer/internal/pdftext"
)

func main() {
	var (
		pdftotext = flag.String("pdftotext", "pdftotext", "fallback binary for PDFs without a text layer")
		withText  = flag.Bool("text", false, "include the recovered document text in the output")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: findoc-extract [flags] <statement.(pdf|html|txt|csv)>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	extractor := pdftext.NewExtractor(pdftext.Config{Pdftotext: *pdftotext}, logger)
	res, err := extractor.Extract(context.Background(), path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	engine := extract.NewEngine(logger)
	portfolio := engine.Extract(res.Doc)

	out := struct {
		SourcePath     string  `json:"source_path"`
		Method         string  `json:"method"`
		Pages          int     `json:"pages,omitempty"`
		TextConfidence float32 `json:"text_confidence"`
		Portfolio      any     `json:"portfolio"`
		Text           string  `json:"text,omitempty"`
	}{
		SourcePath:     path,
		Method:         res.Method,
		Pages:          res.Pages,
		TextConfidence: res.Confidence,
		Portfolio:      portfolio,
	}
	if *withText {
		out.Text = res.Doc.Text
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
