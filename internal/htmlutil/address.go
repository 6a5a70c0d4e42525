package htmlutil

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

const maxAddressLen = 200

// addressSelectors are tried in order after the <address> element.
var addressSelectors = []string{
	".address",
	".contact-address",
	".office-location",
	"[itemprop=address]",
}

var streetAddressPattern = regexp.MustCompile(
	`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Boulevard|Blvd|Way|Lane|Ln|Circle|Cir|Court|Ct|Place|Pl),?\s*[A-Za-z\s]+,?\s*[A-Z]{2}\s*\d{5}(?:-\d{4})?`,
)

// FindAddressBlock returns the first postal address on the page, or "".
func FindAddressBlock(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	if text := firstCleanText(doc.Find("address")); text != "" {
		return Truncate(text, maxAddressLen)
	}

	for _, sel := range addressSelectors {
		if text := firstCleanText(doc.Find(sel)); text != "" {
			return Truncate(text, maxAddressLen)
		}
	}

	body := CleanText(doc.Find("body").Text())
	if m := streetAddressPattern.FindString(body); m != "" {
		return Truncate(CleanText(m), maxAddressLen)
	}

	return ""
}

func firstCleanText(s *goquery.Selection) string {
	var found string
	s.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		found = CleanText(el.Text())
		return found == ""
	})
	return found
}
