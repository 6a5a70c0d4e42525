package htmlutil

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
)

// Toolkit exposes the package helpers as methods so extractors can take
// them as an interface and tests can override individual helpers.
type Toolkit struct{}

// CleanText calls the package-level CleanText.
func (Toolkit) CleanText(raw string) string { return CleanText(raw) }

// FindContacts calls the package-level FindContacts.
func (Toolkit) FindContacts(raw string) Contacts { return FindContacts(raw) }

// FindAddressBlock calls the package-level FindAddressBlock.
func (Toolkit) FindAddressBlock(doc *goquery.Document) string { return FindAddressBlock(doc) }

// HTMLTableTo2D calls the package-level HTMLTableTo2D.
func (Toolkit) HTMLTableTo2D(table *goquery.Selection) [][]string { return HTMLTableTo2D(table) }

// GuessJurisdiction calls the package-level GuessJurisdiction.
func (Toolkit) GuessJurisdiction(raw string) domain.Jurisdiction { return GuessJurisdiction(raw) }
