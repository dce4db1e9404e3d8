package vocab

import "strings"

// stateCodes maps full US state and territory names to their two-letter
// codes. Jurisdictions already in two-letter form pass through.
var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "district of columbia": "DC", "florida": "FL",
	"georgia": "GA", "guam": "GU", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ",
	"new mexico": "NM", "new york": "NY", "north carolina": "NC",
	"north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "puerto rico": "PR", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN",
	"texas": "TX", "utah": "UT", "vermont": "VT", "virgin islands": "VI",
	"virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// compactStates is the Nurse Licensure Compact membership: a license issued
// by a member state carries multi-state practice privileges.
var compactStates = map[string]bool{
	"AL": true, "AR": true, "AZ": true, "CO": true, "DE": true, "FL": true,
	"GA": true, "IA": true, "ID": true, "IN": true, "KS": true, "KY": true,
	"LA": true, "MD": true, "ME": true, "MO": true, "MS": true, "MT": true,
	"NC": true, "ND": true, "NE": true, "NH": true, "NJ": true, "NM": true,
	"OH": true, "OK": true, "PA": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VA": true, "VT": true, "WI": true, "WV": true,
	"WY": true,
}

// NormalizeJurisdiction maps a free-text jurisdiction to its fixed
// two-letter code. Unrecognized input returns empty.
func NormalizeJurisdiction(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 2 {
		code := strings.ToUpper(trimmed)
		if _, ok := compactStates[code]; ok {
			return code
		}
		for _, c := range stateCodes {
			if c == code {
				return code
			}
		}
		return ""
	}
	if code, ok := stateCodes[strings.ToLower(trimmed)]; ok {
		return code
	}
	return ""
}

// IsCompactState reports whether a two-letter jurisdiction code belongs to
// the licensure compact.
func IsCompactState(code string) bool {
	return compactStates[strings.ToUpper(code)]
}
