package llm

import (
	"strings"
)

const maxPromptTextChars = 12000

// BuildSystemPrompt composes the system message: output contract, identifier
// rules, and numeric formatting rules.
func BuildSystemPrompt(req ExtractRequest) string {
	defCur := strings.TrimSpace(req.DefaultCurrency)
	if defCur == "" {
		defCur = "USD"
	}

	parts := []string{
		"You are a financial statement parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Currency codes must be 3-letter ISO 4217; default to " + defCur + " if uncertain.",
		"All numeric values are strings with a dot decimal separator and NO thousands grouping (e.g. \"1234567.89\").",
		"Report percentages as plain numbers without the % sign.",
		"Only report an 'isin', 'cusip' or 'sedol' that appears verbatim in the document. NEVER invent or complete identifiers.",
		"For 'performance', use period keys like: 1m, 3m, 6m, ytd, 1y, 3y, 5y, inception.",
		"Asset classes should be broad buckets such as Equities, Fixed Income, Cash & Equivalents, Real Estate, Commodities, Alternatives, Other.",
		"Never output null. If a field is not present in the document, omit it.",
	}

	if len(req.WantSections) > 0 {
		parts = append(parts, "Fill ONLY these sections, omit the rest: "+strings.Join(req.WantSections, ", ")+".")
	}
	if len(req.KnownIdentifiers) > 0 {
		parts = append(parts, "Holdings with these ISINs are already captured, do not repeat them: "+strings.Join(req.KnownIdentifiers, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint plus a truncated slice of the
// document text.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(req.DocumentText)
	b.WriteString("\nDocument text (may be truncated):\n")
	if len(text) > maxPromptTextChars {
		b.WriteString(text[:maxPromptTextChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
