package api

import (
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform"
)

// DetectRequest is the body of POST /api/v1/detect.
type DetectRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html"`
}

// DetectResponse lists the platforms that recognise a page and the
// signatures each one matched.
type DetectResponse struct {
	URL        string               `json:"url"`
	Platforms  []string             `json:"platforms"`
	Detections []platform.Detection `json:"detections"`
}

// PlatformsResponse describes the registered platforms.
type PlatformsResponse struct {
	Platforms []platform.Info `json:"platforms"`
}

// ExtractRequest is the body of POST /api/v1/extract. When HTML is empty the
// page is fetched from URL.
type ExtractRequest struct {
	URL    string `json:"url" binding:"required"`
	HTML   string `json:"html"`
	State  string `json:"state"`
	County string `json:"county"`
	City   string `json:"city"`
}

// Jurisdiction returns the jurisdiction hint carried by the request.
func (r ExtractRequest) Jurisdiction() domain.Jurisdiction {
	return domain.Jurisdiction{State: r.State, County: r.County, City: r.City}
}

// CreateJobRequest is the body of POST /api/v1/jobs.
type CreateJobRequest struct {
	URL    string `json:"url" binding:"required"`
	State  string `json:"state"`
	County string `json:"county"`
	City   string `json:"city"`
}

// RecordListResponse is a page of stored records.
type RecordListResponse struct {
	Records []*domain.Record `json:"records"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}
