// Package platform implements permit-software platform detection and
// heuristic record extraction.
//
// A Plugin pairs a cheap signature Detector with an Extractor that folds an
// ordered list of Rules over a base Record, each rule adding a fixed
// confidence increment when it fires. The Registry tries plugins in
// registration order and extracts with the first one that detects.
package platform

import (
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
)

// Sentinel errors.
var (
	// ErrNoPlatform is returned when no registered plugin detects the page.
	ErrNoPlatform = errors.New("no platform detected")
	// ErrLowConfidence is returned when a plugin detected the page but
	// found no evidence beyond the base confidence.
	ErrLowConfidence = errors.New("extraction confidence below threshold")
	// ErrDuplicatePlugin is returned when registering a name twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")
)

// Plugin is a detect+extract pair targeting one vendor's page conventions.
// Implementations must be safe for concurrent use.
type Plugin interface {
	// Name is the platform tag stored on extracted records.
	Name() string
	// Detect reports whether the page belongs to the platform.
	Detect(pageURL, html string) bool
	// Extract builds a record from the page. It returns nil when the page
	// is not detected or the confidence does not exceed the base score.
	// doc may be nil, in which case html is parsed.
	Extract(pageURL, html string, doc *goquery.Document) *domain.Record
}

// Describer is implemented by plugins that can report their configuration
// and which of their signatures a page matched.
type Describer interface {
	Info() Info
	MatchedSignatures(pageURL, html string) []string
}

// Info describes a registered plugin.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Signatures  []string `json:"signatures,omitempty"`
	Rules       []string `json:"rules,omitempty"`
}

// Detection is one plugin that recognised a page.
type Detection struct {
	Platform   string   `json:"platform"`
	Signatures []string `json:"signatures,omitempty"`
}
