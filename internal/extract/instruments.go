package extract

import (
	"strings"

	"github.com/findoc-io/findoc-analyzer/constants"
)

// instrumentRule is one keyword rule for classifying a holding by name.
// Rules are evaluated in order; the first hit wins, so the narrower patterns
// ("bond fund" is a fund, not a bond) come before the broad ones.
type instrumentRule struct {
	keywords []string
	kind     constants.InstrumentType
}

var instrumentRules = []instrumentRule{
	// compound names resolve to the wrapper, not the underlying
	{[]string{"bond fund", "equity fund", "income fund", "money market fund", "fund of funds", "balanced fund"}, constants.Fund},
	{[]string{"etf", "exchange traded", "ishares", "spdr", "lyxor", "xtrackers", "vanguard"}, constants.ETF},
	{[]string{"structured note", "structured product", "certificate", "capital protection", "barrier reverse", "autocallable", "reverse convertible"}, constants.Structured},
	{[]string{"warrant", "option", "future", "swap", "forward"}, constants.Derivative},
	{[]string{"fund", "sicav", "ucits", "unit trust", "oeic", "fcp"}, constants.Fund},
	{[]string{"bond", "note", "notes", "treasury", "gilt", "debenture", "fixed rate", "floating rate"}, constants.Bond},
	{[]string{"reit", "real estate", "property"}, constants.RealEstate},
	{[]string{"gold", "silver", "commodity", "commodities"}, constants.Commodity},
	{[]string{"hedge fund", "private equity"}, constants.Alternative},
	{[]string{"cash", "deposit", "money market", "liquidity", "current account", "call account"}, constants.Cash},
	{[]string{"share", "shares", "stock", "equity", "ord", "registered", "bearer", "adr", "common"}, constants.Equity},
	// legal-entity suffixes read as listed companies when nothing narrower hit
	{[]string{"inc", "corp", "corporation", "ltd", "plc", "ag", "sa", "nv", "se", "holding", "holdings", "group"}, constants.Equity},
}

// ClassifyInstrument infers the instrument type from a security name, with
// the stated type label (from a table column, possibly empty) as a hint that
// is trusted when it canonicalizes cleanly.
func ClassifyInstrument(name, statedType string) constants.InstrumentType {
	if statedType != "" {
		if t, ok := constants.CanonicalizeInstrument(statedType); ok {
			return t
		}
	}

	n := " " + strings.ToLower(strings.Join(strings.Fields(name), " ")) + " "
	for _, rule := range instrumentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(n, " "+kw+" ") {
				return rule.kind
			}
		}
	}

	// "4.375% Something 2029" reads as a bond even without the word "bond".
	if looksLikeCoupon(name) {
		return constants.Bond
	}
	return constants.Unclassified
}

// looksLikeCoupon reports whether the name carries a coupon rate and a
// maturity year, the usual shorthand for a bond line.
func looksLikeCoupon(name string) bool {
	hasPct := strings.Contains(name, "%")
	if !hasPct {
		return false
	}
	fields := strings.Fields(name)
	for _, f := range fields {
		if len(f) == 4 && f >= "2000" && f <= "2099" {
			return true
		}
	}
	return false
}
