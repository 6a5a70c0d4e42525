package platform

import (
	"slices"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// SignatureMatcher tests a fixed set of case-insensitive signatures against
// a page URL and body with a single Aho-Corasick automaton.
type SignatureMatcher struct {
	signatures []string
	lowered    []string
	matcher    *ahocorasick.Matcher
}

// NewSignatureMatcher compiles signatures. Empty entries are dropped.
func NewSignatureMatcher(signatures []string) *SignatureMatcher {
	m := &SignatureMatcher{}
	for _, sig := range signatures {
		if sig == "" {
			continue
		}
		m.signatures = append(m.signatures, sig)
		m.lowered = append(m.lowered, strings.ToLower(sig))
	}
	m.matcher = ahocorasick.NewStringMatcher(m.lowered)
	return m
}

// Signatures returns the signatures in their configured order.
func (m *SignatureMatcher) Signatures() []string {
	return slices.Clone(m.signatures)
}

// Matches reports whether any signature occurs in pageURL or html.
func (m *SignatureMatcher) Matches(pageURL, html string) bool {
	if len(m.lowered) == 0 {
		return false
	}
	if len(m.matcher.MatchThreadSafe([]byte(strings.ToLower(pageURL)))) > 0 {
		return true
	}
	return len(m.matcher.MatchThreadSafe([]byte(strings.ToLower(html)))) > 0
}

// Matched returns the signatures found in pageURL or html, in configured order.
func (m *SignatureMatcher) Matched(pageURL, html string) []string {
	if len(m.lowered) == 0 {
		return nil
	}

	hit := make(map[int]struct{})
	for _, text := range []string{pageURL, html} {
		for _, idx := range m.matcher.MatchThreadSafe([]byte(strings.ToLower(text))) {
			hit[idx] = struct{}{}
		}
	}

	var out []string
	for i, sig := range m.signatures {
		if _, ok := hit[i]; ok {
			out = append(out, sig)
		}
	}
	return out
}
