// Package domain provides the permit office models shared across the application.
package domain

import (
	"time"
)

// Confidence bounds for an extracted record.
const (
	BaseConfidence = 0.1
	MaxConfidence  = 1.0
	// MaxDownloads caps the downloadable applications kept per record.
	MaxDownloads = 5
	// DefaultState is used when no state could be inferred from the page.
	DefaultState = "Unknown"
)

// Record is the structured output of one successful extraction.
// Optional text fields are empty when not found.
type Record struct {
	// Unique identifier, assigned when the record is persisted
	ID string `json:"id,omitempty" db:"id"`
	// Page the record was extracted from
	SourceURL string `json:"source_url" db:"source_url"`
	// Name of the platform plugin that produced the record
	Platform string `json:"platform" db:"platform"`

	// Jurisdiction
	State  string `json:"state" db:"state"`
	County string `json:"county,omitempty" db:"county"`
	City   string `json:"city,omitempty" db:"city"`

	DepartmentName         string `json:"department_name,omitempty" db:"department_name"`
	ProcessingInstructions string `json:"processing_instructions,omitempty" db:"processing_instructions"`
	PermitFee              string `json:"permit_fee,omitempty" db:"permit_fee"`
	Phone                  string `json:"phone,omitempty" db:"phone"`
	Email                  string `json:"email,omitempty" db:"email"`
	Address                string `json:"address,omitempty" db:"address"`
	Hours                  string `json:"hours,omitempty" db:"hours"`
	TurnaroundTime         string `json:"turnaround_time,omitempty" db:"turnaround_time"`

	DownloadableApplications Downloads `json:"downloadable_applications" db:"downloadable_applications"`

	// Accumulated heuristic score in [BaseConfidence, MaxConfidence]
	Confidence float64 `json:"confidence" db:"confidence"`

	// Which rules fired and which were skipped
	Evidence Evidence `json:"evidence,omitempty" db:"evidence"`

	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at"`
	CreatedAt   time.Time `json:"created_at,omitzero" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitzero" db:"updated_at"`
}

// NewRecord returns a record seeded with the jurisdiction and base confidence.
// ExtractedAt is left zero; the caller stamps it.
func NewRecord(sourceURL, platform string, j Jurisdiction) *Record {
	state := j.State
	if state == "" {
		state = DefaultState
	}

	return &Record{
		SourceURL:                sourceURL,
		Platform:                 platform,
		State:                    state,
		County:                   j.County,
		City:                     j.City,
		DownloadableApplications: Downloads{},
		Confidence:               BaseConfidence,
	}
}

// AddConfidence adds delta to the score, clamped to MaxConfidence.
// Negative deltas are ignored so the score never decreases.
func (r *Record) AddConfidence(delta float64) {
	if delta <= 0 {
		return
	}
	r.Confidence += delta
	if r.Confidence > MaxConfidence {
		r.Confidence = MaxConfidence
	}
}

// Accepted reports whether the record gathered evidence beyond the base score.
func (r *Record) Accepted() bool {
	return r.Confidence > BaseConfidence
}

// Jurisdiction is the (state, county, city) a page belongs to.
type Jurisdiction struct {
	State  string `json:"state,omitempty" yaml:"state"`
	County string `json:"county,omitempty" yaml:"county"`
	City   string `json:"city,omitempty" yaml:"city"`
}

// IsZero reports whether no part of the jurisdiction is known.
func (j Jurisdiction) IsZero() bool {
	return j.State == "" && j.County == "" && j.City == ""
}
