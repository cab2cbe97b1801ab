package constants

import "strings"

// Document formats for the format field in ExtractJob.
const (
	PDF  = "PDF"
	HTML = "HTML"
	TEXT = "TEXT"
	CSV  = "CSV"
)

// FileTypes holds the allowed file types for the format field in ExtractJob.
var FileTypes = []string{PDF, HTML, TEXT, CSV}

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"htm":  {},
	"html": {},
	"csv":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to a document format, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "htm", "html":
		return HTML
	case "txt":
		return TEXT
	case "csv":
		return CSV
	default:
		return ""
	}
}

// TextConfidenceThreshold is the minimum extraction confidence below which a
// document's text layer is considered too weak for heuristic parsing alone.
const TextConfidenceThreshold float32 = 0.60
