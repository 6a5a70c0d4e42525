package htmlutil

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
)

var (
	countyPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z.'-]+(?:\s[A-Z][a-zA-Z.'-]+)?)\s+County\b`)
	cityPattern   = regexp.MustCompile(`\b(?:City|Town|Village) of\s+([A-Z][a-zA-Z.'-]+(?:\s[A-Z][a-zA-Z.'-]+)?)`)
	postalPattern = regexp.MustCompile(`,\s*([A-Z]{2})\s+\d{5}(?:-\d{4})?\b`)
)

// countyStopWords precede "County" without naming one.
var countyStopWords = map[string]struct{}{
	"The": {}, "This": {}, "Our": {}, "Your": {}, "Each": {}, "Every": {}, "Any": {},
	"Unincorporated": {},
}

var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
	"DC": "District of Columbia",
}

var stateNamePattern = buildStateNamePattern()

func buildStateNamePattern() *regexp.Regexp {
	names := make([]string, 0, len(stateNames))
	for _, name := range stateNames {
		names = append(names, regexp.QuoteMeta(name))
	}
	// Longest first so "West Virginia" wins over "Virginia".
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\b`)
}

// GuessJurisdiction infers state, county and city from page text.
// Unknown parts are left empty.
func GuessJurisdiction(raw string) domain.Jurisdiction {
	text := CleanText(StripTags(raw))

	return domain.Jurisdiction{
		State:  guessState(text),
		County: guessCounty(text),
		City:   guessCity(text),
	}
}

func guessState(text string) string {
	for _, m := range postalPattern.FindAllStringSubmatch(text, -1) {
		if name, ok := stateNames[m[1]]; ok {
			return name
		}
	}

	for _, loc := range stateNamePattern.FindAllStringSubmatchIndex(text, -1) {
		// "Washington County" names a county, not the state.
		if strings.HasPrefix(text[loc[1]:], " County") {
			continue
		}
		return text[loc[2]:loc[3]]
	}

	return ""
}

func guessCounty(text string) string {
	for _, m := range countyPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if first, _, _ := strings.Cut(name, " "); isCountyStopWord(first) {
			_, rest, ok := strings.Cut(name, " ")
			if !ok {
				continue
			}
			name = rest
		}
		return name + " County"
	}
	return ""
}

func isCountyStopWord(w string) bool {
	_, ok := countyStopWords[w]
	return ok
}

func guessCity(text string) string {
	if m := cityPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
