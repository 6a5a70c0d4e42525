package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/export"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/fetcher"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/jobs"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/scraper"
)

// maxExportRecords caps a single spreadsheet export.
const maxExportRecords = 500

// PageService detects platforms and extracts records.
type PageService interface {
	Platforms() []platform.Info
	Detect(pageURL, html string) []platform.Detection
	ProcessWithJurisdiction(ctx context.Context, pageURL, html string, j domain.Jurisdiction) (*scraper.Result, error)
	ProcessURLWithJurisdiction(ctx context.Context, pageURL string, j domain.Jurisdiction) (*scraper.Result, error)
}

// RecordReader reads stored records.
type RecordReader interface {
	List(ctx context.Context, filter database.RecordFilter) ([]*domain.Record, error)
	Count(ctx context.Context, filter database.RecordFilter) (int, error)
	GetByID(ctx context.Context, id string) (*domain.Record, error)
}

// JobQueue enqueues and reads scrape jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, pageURL string, j domain.Jurisdiction) (*domain.ScrapeJob, bool, error)
	List(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.ScrapeJob, error)
	GetByID(ctx context.Context, id string) (*domain.ScrapeJob, error)
}

// Handler serves the permit API.
type Handler struct {
	service PageService
	records RecordReader
	jobs    JobQueue
}

// NewHandler creates a Handler. records and jobs may be nil when no database
// is configured; their routes are then not registered.
func NewHandler(service PageService, records RecordReader, jobQueue JobQueue) *Handler {
	return &Handler{service: service, records: records, jobs: jobQueue}
}

// Platforms handles GET /api/v1/platforms
func (h *Handler) Platforms(c *gin.Context) {
	c.JSON(http.StatusOK, PlatformsResponse{Platforms: h.service.Platforms()})
}

// Detect handles POST /api/v1/detect
func (h *Handler) Detect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	detections := h.service.Detect(req.URL, req.HTML)
	resp := DetectResponse{
		URL:        req.URL,
		Platforms:  make([]string, 0, len(detections)),
		Detections: make([]platform.Detection, 0, len(detections)),
	}
	for _, d := range detections {
		resp.Platforms = append(resp.Platforms, d.Platform)
		resp.Detections = append(resp.Detections, d)
	}

	c.JSON(http.StatusOK, resp)
}

// Extract handles POST /api/v1/extract
func (h *Handler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()

	var (
		result *scraper.Result
		err    error
	)
	if req.HTML == "" {
		result, err = h.service.ProcessURLWithJurisdiction(ctx, req.URL, req.Jurisdiction())
	} else {
		result, err = h.service.ProcessWithJurisdiction(ctx, req.URL, req.HTML, req.Jurisdiction())
	}

	if err != nil {
		h.respondExtractError(c, err)
		return
	}

	logger.FromContext(ctx).Debug("Extraction served",
		logger.URL(req.URL),
		logger.Platform(result.Platform),
	)
	c.JSON(http.StatusOK, result.Record)
}

func (h *Handler) respondExtractError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scraper.ErrNoPlatform):
		respondError(c, http.StatusNotFound, "no supported platform detected")
	case errors.Is(err, scraper.ErrLowConfidence):
		respondError(c, http.StatusUnprocessableEntity, "extraction confidence too low")
	case errors.Is(err, scraper.ErrNoFetcher):
		respondBadRequest(c, "html is required")
	case errors.Is(err, fetcher.ErrInvalidURL):
		respondBadRequest(c, err.Error())
	case errors.Is(err, fetcher.ErrUnexpectedStatus), errors.Is(err, fetcher.ErrFetchFailed):
		_ = c.Error(err)
		respondError(c, http.StatusBadGateway, "failed to fetch page")
	default:
		respondInternalError(c, "Failed to extract record", err)
	}
}

// ListRecords handles GET /api/v1/records
func (h *Handler) ListRecords(c *gin.Context) {
	filter, ok := recordFilter(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	records, err := h.records.List(ctx, filter)
	if err != nil {
		respondInternalError(c, "Failed to retrieve records", err)
		return
	}

	total, err := h.records.Count(ctx, filter)
	if err != nil {
		respondInternalError(c, "Failed to get total count", err)
		return
	}

	c.JSON(http.StatusOK, RecordListResponse{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// GetRecord handles GET /api/v1/records/:id
func (h *Handler) GetRecord(c *gin.Context) {
	rec, err := h.records.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "Record")
			return
		}
		respondInternalError(c, "Failed to retrieve record", err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ExportRecords handles GET /api/v1/export/records.xlsx
func (h *Handler) ExportRecords(c *gin.Context) {
	filter, ok := recordFilter(c)
	if !ok {
		return
	}
	filter.Limit = maxExportRecords
	filter.Offset = 0

	records, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, "Failed to retrieve records", err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment; filename="permit-offices.xlsx"`)
	c.Status(http.StatusOK)

	if err = export.WriteXLSX(c.Writer, records); err != nil {
		_ = c.Error(fmt.Errorf("export records: %w", err))
	}
}

func recordFilter(c *gin.Context) (database.RecordFilter, bool) {
	limit, offset := parseLimitOffset(c)
	filter := database.RecordFilter{
		Platform: c.Query("platform"),
		State:    c.Query("state"),
		County:   c.Query("county"),
		City:     c.Query("city"),
		Search:   strings.TrimSpace(c.Query("q")),
		Limit:    limit,
		Offset:   offset,
	}

	if raw := c.Query("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > domain.MaxConfidence {
			respondBadRequest(c, "min_confidence must be a number between 0 and 1")
			return filter, false
		}
		filter.MinConfidence = v
	}

	return filter, true
}

// CreateJob handles POST /api/v1/jobs
func (h *Handler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	pageURL := strings.TrimSpace(req.URL)
	if err := jobs.ValidateURL(pageURL); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	job, created, err := h.jobs.Enqueue(c.Request.Context(), pageURL, domain.Jurisdiction{
		State:  req.State,
		County: req.County,
		City:   req.City,
	})
	if err != nil {
		respondInternalError(c, "Failed to create job", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, job)
}

// ListJobs handles GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	status := domain.JobStatus(c.Query("status"))
	switch status {
	case "", domain.JobStatusPending, domain.JobStatusProcessing, domain.JobStatusCompleted, domain.JobStatusFailed:
	default:
		respondBadRequest(c, "unknown job status: "+string(status))
		return
	}

	limit, _ := parseLimitOffset(c)

	list, err := h.jobs.List(c.Request.Context(), status, limit)
	if err != nil {
		respondInternalError(c, "Failed to retrieve jobs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": list, "count": len(list)})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "Job")
			return
		}
		respondInternalError(c, "Failed to retrieve job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}
