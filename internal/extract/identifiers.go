package extract

import (
	"regexp"
	"strings"
)

// IdentifierKind names the security identifier schemes we recognize.
type IdentifierKind string

const (
	KindISIN    IdentifierKind = "ISIN"
	KindCUSIP   IdentifierKind = "CUSIP"
	KindSEDOL   IdentifierKind = "SEDOL"
	KindUnknown IdentifierKind = "UNKNOWN"
)

// isinCountries holds the ISO 3166-1 alpha-2 codes plus the special prefixes
// used by international clearing (XS) and supranational (EU, QS, QT) issues.
var isinCountries = func() map[string]struct{} {
	codes := strings.Fields(`
		AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ
		BA BB BD BE BF BG BH BI BJ BL BM BN BO BQ BR BS BT BV BW BY BZ
		CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ
		DE DJ DK DM DO DZ EC EE EG EH ER ES ET FI FJ FK FM FO FR
		GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS GT GU GW GY
		HK HM HN HR HT HU ID IE IL IM IN IO IQ IR IS IT JE JM JO JP
		KE KG KH KI KM KN KP KR KW KY KZ LA LB LC LI LK LR LS LT LU LV LY
		MA MC MD ME MF MG MH MK ML MM MN MO MP MQ MR MS MT MU MV MW MX MY MZ
		NA NC NE NF NG NI NL NO NP NR NU NZ OM
		PA PE PF PG PH PK PL PM PN PR PS PT PW PY QA
		RE RO RS RU RW SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV SX SY SZ
		TC TD TF TG TH TJ TK TL TM TN TO TR TT TV TW TZ
		UA UG UM US UY UZ VA VC VE VG VI VN VU WF WS YE YT ZA ZM ZW
		XS EU QS QT
	`)
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}()

var (
	isinShape  = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}\d$`)
	cusipShape = regexp.MustCompile(`^[A-Z0-9*@#]{8}\d$`)
	sedolShape = regexp.MustCompile(`^[B-DF-HJ-NP-TV-Z0-9]{6}\d$`)
)

// ValidateISIN checks shape, country prefix, and the ISIN check digit
// (Luhn over the digit expansion, letters A..Z -> 10..35).
func ValidateISIN(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !isinShape.MatchString(s) {
		return false
	}
	if _, ok := isinCountries[s[:2]]; !ok {
		return false
	}

	// Expand to digits: letters become two digits.
	var digits []int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			digits = append(digits, v/10, v%10)
		}
	}

	// Luhn: double every second digit from the right, starting with the
	// digit left of the check digit.
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateCUSIP checks shape and the CUSIP modulus-10 "double-add-double"
// check digit. Letters map to 10..35; the special characters *, @, # map to
// 36, 37, 38.
func ValidateCUSIP(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !cusipShape.MatchString(s) {
		return false
	}

	sum := 0
	for i := 0; i < 8; i++ {
		c := s[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		case c == '*':
			v = 36
		case c == '@':
			v = 37
		case c == '#':
			v = 38
		}
		if i%2 == 1 {
			v *= 2
		}
		sum += v/10 + v%10
	}
	check := (10 - sum%10) % 10
	return check == int(s[8]-'0')
}

// ValidateSEDOL checks shape and the SEDOL weighted-sum check digit.
// Vowels never appear in a SEDOL; weights are 1,3,1,7,3,9 with the check
// digit weighted 1.
func ValidateSEDOL(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !sedolShape.MatchString(s) {
		return false
	}

	weights := [7]int{1, 3, 1, 7, 3, 9, 1}
	sum := 0
	for i := 0; i < 7; i++ {
		c := s[i]
		var v int
		if c >= '0' && c <= '9' {
			v = int(c - '0')
		} else {
			v = int(c-'A') + 10
		}
		sum += v * weights[i]
	}
	return sum%10 == 0
}

// DetectIdentifier classifies a candidate identifier string. ISIN wins over
// CUSIP/SEDOL when a string would validate under more than one scheme, since
// the 12-character shape is unambiguous.
func DetectIdentifier(s string) IdentifierKind {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch len(s) {
	case 12:
		if ValidateISIN(s) {
			return KindISIN
		}
	case 9:
		if ValidateCUSIP(s) {
			return KindCUSIP
		}
	case 7:
		if ValidateSEDOL(s) {
			return KindSEDOL
		}
	}
	return KindUnknown
}

// isinPattern finds ISIN-shaped candidates inside free text. Candidates still
// have to pass ValidateISIN before they are trusted.
var isinPattern = regexp.MustCompile(`\b([A-Z]{2}[A-Z0-9]{9}\d)\b`)

// FindISINs scans free text for valid ISINs, preserving first-seen order and
// de-duplicating repeats.
func FindISINs(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range isinPattern.FindAllString(text, -1) {
		if _, dup := seen[m]; dup {
			continue
		}
		if ValidateISIN(m) {
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
