package domain

import "time"

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

// Scrape job statuses.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Outcomes recorded on completed jobs.
const (
	OutcomeExtracted     = "extracted"
	OutcomeNoPlatform    = "no_platform"
	OutcomeLowConfidence = "low_confidence"
)

// ScrapeJob is a queued request to fetch and extract one URL.
type ScrapeJob struct {
	ID       string    `json:"id" db:"id"`
	URL      string    `json:"url" db:"url"`
	State    string    `json:"state,omitempty" db:"state"`
	County   string    `json:"county,omitempty" db:"county"`
	City     string    `json:"city,omitempty" db:"city"`
	Status   JobStatus `json:"status" db:"status"`
	Attempts int       `json:"attempts" db:"attempts"`
	// Outcome is set on completion; LastError on failure.
	Outcome   string  `json:"outcome,omitempty" db:"outcome"`
	LastError string  `json:"last_error,omitempty" db:"last_error"`
	RecordID  *string `json:"record_id,omitempty" db:"record_id"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Jurisdiction returns the jurisdiction hint attached to the job.
func (j *ScrapeJob) Jurisdiction() Jurisdiction {
	return Jurisdiction{State: j.State, County: j.County, City: j.City}
}

// IsTerminal reports whether the job has finished.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}
