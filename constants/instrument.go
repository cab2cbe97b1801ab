package constants

import (
	"strings"
)

// InstrumentType is the canonical instrument classification for a holding.
type InstrumentType string

const (
	Equity         InstrumentType = "Equity"
	Bond           InstrumentType = "Bond"
	Fund           InstrumentType = "Fund"
	ETF            InstrumentType = "ETF"
	Structured     InstrumentType = "Structured"
	Cash           InstrumentType = "Cash"
	Derivative     InstrumentType = "Derivative"
	RealEstate     InstrumentType = "RealEstate"
	Commodity      InstrumentType = "Commodity"
	Alternative    InstrumentType = "Alternative"
	Unclassified   InstrumentType = "Unclassified"
)

var allInstrumentTypes = []InstrumentType{
	Equity,
	Bond,
	Fund,
	ETF,
	Structured,
	Cash,
	Derivative,
	RealEstate,
	Commodity,
	Alternative,
	Unclassified,
}

func InstrumentTypesAsStrings() []string {
	result := make([]string, len(allInstrumentTypes))
	for i, t := range allInstrumentTypes {
		result[i] = string(t)
	}
	return result
}

// CanonicalizeInstrument maps a free-form label to a canonical instrument type.
// Returns Unclassified, false when no mapping applies.
func CanonicalizeInstrument(input string) (InstrumentType, bool) {
	if input == "" {
		return Unclassified, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]InstrumentType{
		"stock":            Equity,
		"stocks":           Equity,
		"share":            Equity,
		"shares":           Equity,
		"ordinary share":   Equity,
		"common stock":     Equity,
		"fixed income":     Bond,
		"note":             Bond,
		"notes":            Bond,
		"debenture":        Bond,
		"treasury":         Bond,
		"gilt":             Bond,
		"mutual fund":      Fund,
		"sicav":            Fund,
		"ucits":            Fund,
		"unit trust":       Fund,
		"exchange traded fund": ETF,
		"tracker":          ETF,
		"structured product":   Structured,
		"certificate":      Structured,
		"structured note":  Structured,
		"money market":     Cash,
		"liquidity":        Cash,
		"deposit":          Cash,
		"current account":  Cash,
		"option":           Derivative,
		"future":           Derivative,
		"futures":          Derivative,
		"warrant":          Derivative,
		"swap":             Derivative,
		"property":         RealEstate,
		"reit":             RealEstate,
		"gold":             Commodity,
		"precious metals":  Commodity,
		"hedge fund":       Alternative,
		"private equity":   Alternative,
	}

	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	// check if it matches any canonical type string
	for _, t := range allInstrumentTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}

	return Unclassified, false
}

// AssetClass is the canonical bucket used by allocation tables.
type AssetClass string

const (
	AssetEquity      AssetClass = "Equities"
	AssetFixedIncome AssetClass = "Fixed Income"
	AssetCash        AssetClass = "Cash & Equivalents"
	AssetRealEstate  AssetClass = "Real Estate"
	AssetAlternative AssetClass = "Alternatives"
	AssetCommodity   AssetClass = "Commodities"
	AssetMultiAsset  AssetClass = "Multi-Asset"
	AssetOther       AssetClass = "Other"
)

var allAssetClasses = []AssetClass{
	AssetEquity,
	AssetFixedIncome,
	AssetCash,
	AssetRealEstate,
	AssetAlternative,
	AssetCommodity,
	AssetMultiAsset,
	AssetOther,
}

func AssetClassesAsStrings() []string {
	result := make([]string, len(allAssetClasses))
	for i, c := range allAssetClasses {
		result[i] = string(c)
	}
	return result
}

// CanonicalizeAssetClass maps a free-form allocation label to a canonical asset class.
func CanonicalizeAssetClass(input string) (AssetClass, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return AssetOther, false
	}

	synonyms := map[string]AssetClass{
		"equity":            AssetEquity,
		"equities":          AssetEquity,
		"stocks":            AssetEquity,
		"shares":            AssetEquity,
		"aktien":            AssetEquity,
		"actions":           AssetEquity,
		"bonds":             AssetFixedIncome,
		"fixed income":      AssetFixedIncome,
		"obligations":       AssetFixedIncome,
		"obligationen":      AssetFixedIncome,
		"cash":              AssetCash,
		"liquidity":         AssetCash,
		"liquidities":       AssetCash,
		"money market":      AssetCash,
		"cash & equivalents": AssetCash,
		"cash and equivalents": AssetCash,
		"real estate":       AssetRealEstate,
		"property":          AssetRealEstate,
		"immobilier":        AssetRealEstate,
		"alternatives":      AssetAlternative,
		"alternative":       AssetAlternative,
		"hedge funds":       AssetAlternative,
		"private equity":    AssetAlternative,
		"commodities":       AssetCommodity,
		"commodity":         AssetCommodity,
		"gold":              AssetCommodity,
		"multi-asset":       AssetMultiAsset,
		"multi asset":       AssetMultiAsset,
		"balanced":          AssetMultiAsset,
	}
	if c, ok := synonyms[normalized]; ok {
		return c, true
	}
	for _, c := range allAssetClasses {
		if normalized == strings.ToLower(string(c)) {
			return c, true
		}
	}
	return AssetOther, false
}
