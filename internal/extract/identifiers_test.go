package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateISIN(t *testing.T) {
	tests := []struct {
		name  string
		isin  string
		valid bool
	}{
		{"US equity", "US0378331005", true},
		{"GB equity", "GB0002634946", true},
		{"CH equity", "CH0012032048", true},
		{"eurobond XS prefix", "XS0104440986", true},
		{"lowercase accepted", "us0378331005", true},
		{"surrounding whitespace", " US0378331005 ", true},
		{"bad check digit", "US0378331006", false},
		{"unknown country prefix", "ZZ0378331005", false},
		{"too short", "US03783310", false},
		{"too long", "US03783310051", false},
		{"check digit not numeric", "US037833100A", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateISIN(tt.isin))
		})
	}
}

func TestValidateCUSIP(t *testing.T) {
	tests := []struct {
		name  string
		cusip string
		valid bool
	}{
		{"apple", "037833100", true},
		{"microsoft", "594918104", true},
		{"bad check digit", "037833101", false},
		{"too short", "03783310", false},
		{"lowercase accepted", "037833100", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateCUSIP(tt.cusip))
		})
	}
}

func TestValidateSEDOL(t *testing.T) {
	tests := []struct {
		name  string
		sedol string
		valid bool
	}{
		{"numeric old style", "0263494", true},
		{"new style with letters", "B0YBKJ7", true},
		{"bad check digit", "B0YBKJ8", false},
		{"vowel rejected", "A263494", false},
		{"too short", "026349", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateSEDOL(tt.sedol))
		})
	}
}

func TestDetectIdentifier(t *testing.T) {
	assert.Equal(t, KindISIN, DetectIdentifier("US0378331005"))
	assert.Equal(t, KindCUSIP, DetectIdentifier("037833100"))
	assert.Equal(t, KindSEDOL, DetectIdentifier("B0YBKJ7"))
	assert.Equal(t, KindUnknown, DetectIdentifier("APPLE INC"))
	assert.Equal(t, KindUnknown, DetectIdentifier(""))
}

func TestFindISINs(t *testing.T) {
	text := `Holdings as of 31.12.2024:
Apple Inc US0378331005 150 shares
BAE Systems GB0002634946
Apple Inc US0378331005 (duplicate line)
Bogus ZZ0378331005 should not appear`

	isins := FindISINs(text)
	assert.Equal(t, []string{"US0378331005", "GB0002634946"}, isins)
}
