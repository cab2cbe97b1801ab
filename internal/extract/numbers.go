package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// currencySymbols maps the symbols that show up in private-banking statements
// to ISO 4217 codes. Used both for stripping amounts and for currency
// detection in free text.
var currencySymbols = map[string]string{
	"$":   "USD",
	"US$": "USD",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"₣":   "CHF",
	"CHF": "CHF",
	"R$":  "BRL",
	"C$":  "CAD",
	"A$":  "AUD",
	"HK$": "HKD",
	"S$":  "SGD",
}

var (
	reSpaces     = regexp.MustCompile(`[\s\x{00a0}\x{202f}]+`)
	reAmountJunk = regexp.MustCompile(`(?i)^(US\$|HK\$|S\$|C\$|A\$|R\$|CHF|EUR|USD|GBP|JPY|[$€£¥₣])|(US\$|HK\$|S\$|C\$|A\$|R\$|CHF|EUR|USD|GBP|JPY|[$€£¥₣])$`)
)

// ParseAmount parses a numeric string of unknown locale into a decimal.
//
// Handling, in order:
//   - currency symbols/codes and whitespace (incl. NBSP) are stripped
//   - parentheses mean negative: (1,234.56) -> -1234.56
//   - apostrophes are Swiss thousands separators: 1'234.56
//   - when both '.' and ',' appear, the later one is the decimal separator
//   - a single separator followed by exactly 3 digits is a thousands
//     separator unless it is the only separator and the integer part is 0
//     ("0,500" stays fractional); 1 or 2 trailing digits mean a decimal
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "+")

	s = reSpaces.ReplaceAllString(s, "")
	for {
		stripped := reAmountJunk.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("no digits in amount %q", raw)
	}

	normalized, err := normalizeSeparators(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", raw, err)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", raw, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites a digit string with ',' and '.' separators of
// unknown roles into plain "1234.56" form.
func normalizeSeparators(s string) (string, error) {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Both present: the later one is the decimal separator.
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		s = resolveSingleSeparator(s, ',')
	case lastDot >= 0:
		s = resolveSingleSeparator(s, '.')
	}

	if strings.Count(s, ".") > 1 {
		return "", fmt.Errorf("unresolvable separators")
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return "", fmt.Errorf("unexpected character %q", r)
		}
	}
	return s, nil
}

// resolveSingleSeparator decides whether the only separator kind present is a
// thousands or a decimal separator.
func resolveSingleSeparator(s string, sep byte) string {
	parts := strings.Split(s, string(sep))
	if len(parts) > 2 {
		// "1,234,567": repeated separator is always grouping.
		return strings.Join(parts, "")
	}
	intPart, frac := parts[0], parts[1]
	if len(frac) == 3 && intPart != "0" && intPart != "" {
		// "1,234" / "12.345" read as grouping. Groups of 3 with a leading zero
		// ("0,500") keep their fractional reading.
		return intPart + frac
	}
	return intPart + "." + frac
}

var percentPattern = regexp.MustCompile(`([+-]?\(?\d[\d.,'’\s]*\)?)\s*%`)

// ParsePercent parses a signed percentage string ("+4.5%", "(2,3) %", "12%").
// The trailing percent sign is optional.
func ParsePercent(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	return ParseAmount(s)
}

// DetectCurrency looks for an ISO code or known symbol in a fragment of text
// and returns the ISO 4217 code, or "".
func DetectCurrency(text string) string {
	if m := reCurrencyCode.FindString(text); m != "" {
		return strings.ToUpper(m)
	}
	// Longer symbols first so "US$" is not read as "$".
	for _, sym := range []string{"US$", "HK$", "S$", "C$", "A$", "R$", "CHF", "₣", "€", "£", "¥", "$"} {
		if strings.Contains(text, sym) {
			return currencySymbols[sym]
		}
	}
	return ""
}

var reCurrencyCode = regexp.MustCompile(`\b(USD|EUR|GBP|CHF|JPY|CAD|AUD|SEK|NOK|DKK|SGD|HKD|NZD|ILS|ZAR|PLN|CZK|HUF|CNY|INR|BRL|MXN)\b`)

// amountToken matches number-like tokens in free text ("1'234.56",
// "(2,345)", "12.5"). Bare 4-digit years are filtered out by the caller via
// ParseAmount heuristics plus the explicit year check here.
var amountToken = regexp.MustCompile(`\(?-?\d[\d.,'’]*\d\)?|\(?-?\d\)?`)

// findAmounts extracts every parseable amount from a fragment of text,
// skipping tokens that read as calendar years.
func findAmounts(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, tok := range amountToken.FindAllString(text, -1) {
		if looksLikeYear(tok) {
			continue
		}
		if d, err := ParseAmount(tok); err == nil {
			out = append(out, d)
		}
	}
	return out
}

func looksLikeYear(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	return tok >= "1900" && tok <= "2099"
}
