package platform

import (
	"strings"
)

// TextSource is anything a rule can read text from. *goquery.Selection
// satisfies it, as does RawText for regex matches over raw markup.
type TextSource interface {
	Text() string
}

// RawText adapts a plain string to TextSource.
type RawText string

// Text returns the string itself.
func (t RawText) Text() string {
	return string(t)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
