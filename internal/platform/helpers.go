package platform

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/htmlutil"
)

// Helpers are the markup collaborators extraction rules depend on.
// htmlutil.Toolkit is the production implementation.
type Helpers interface {
	CleanText(raw string) string
	FindContacts(raw string) htmlutil.Contacts
	FindAddressBlock(doc *goquery.Document) string
	HTMLTableTo2D(table *goquery.Selection) [][]string
	GuessJurisdiction(raw string) domain.Jurisdiction
}

// Page is the per-call input shared by the rules of one extraction.
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document

	helpers  Helpers
	contacts *htmlutil.Contacts
}

// NewPage wraps one page for extraction. A nil helpers uses htmlutil.Toolkit.
func NewPage(pageURL, html string, doc *goquery.Document, helpers Helpers) *Page {
	if helpers == nil {
		helpers = htmlutil.Toolkit{}
	}
	return &Page{URL: pageURL, HTML: html, Doc: doc, helpers: helpers}
}

// Clean returns the cleaned text of src.
func (p *Page) Clean(src TextSource) string {
	return p.helpers.CleanText(src.Text())
}

// Contacts returns the page contacts, computed on first use.
func (p *Page) Contacts() htmlutil.Contacts {
	if p.contacts == nil {
		c := p.helpers.FindContacts(p.HTML)
		p.contacts = &c
	}
	return *p.contacts
}

// Helpers returns the page's helper set.
func (p *Page) Helpers() Helpers {
	return p.helpers
}
