package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/api"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/export"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/fetcher"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform/plugins"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/scraper"
)

const departmentPage = `<html><body><h1>Building Department</h1><p>FastTrack Online Services</p></body></html>`

type stubFetcher struct {
	err error
}

func (f *stubFetcher) Fetch(_ context.Context, pageURL string) (*fetcher.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fetcher.Page{URL: pageURL, StatusCode: http.StatusOK, Body: departmentPage}, nil
}

type memRecords struct {
	records    []*domain.Record
	lastFilter database.RecordFilter
	err        error
}

func (m *memRecords) List(_ context.Context, f database.RecordFilter) ([]*domain.Record, error) {
	m.lastFilter = f
	return m.records, m.err
}

func (m *memRecords) Count(_ context.Context, _ database.RecordFilter) (int, error) {
	return len(m.records), m.err
}

func (m *memRecords) GetByID(_ context.Context, id string) (*domain.Record, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, database.ErrNotFound
}

type memJobs struct {
	jobs []*domain.ScrapeJob
}

func (m *memJobs) Enqueue(_ context.Context, pageURL string, j domain.Jurisdiction) (*domain.ScrapeJob, bool, error) {
	for _, job := range m.jobs {
		if job.URL == pageURL {
			return job, false, nil
		}
	}
	job := &domain.ScrapeJob{ID: "job-1", URL: pageURL, State: j.State, Status: domain.JobStatusPending}
	m.jobs = append(m.jobs, job)
	return job, true, nil
}

func (m *memJobs) List(_ context.Context, _ domain.JobStatus, _ int) ([]*domain.ScrapeJob, error) {
	return append([]*domain.ScrapeJob{}, m.jobs...), nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (*domain.ScrapeJob, error) {
	for _, job := range m.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, database.ErrNotFound
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	router  http.Handler
	records *memRecords
	jobs    *memJobs
}

func newTestServer(t *testing.T, f scraper.PageFetcher, db api.Pinger) *testServer {
	t.Helper()

	reg, err := plugins.NewRegistry(config.PlatformsConfig{}, logger.NewNop())
	require.NoError(t, err)

	opts := []scraper.Option{}
	if f != nil {
		opts = append(opts, scraper.WithFetcher(f))
	}
	svc := scraper.NewService(reg, opts...)

	records := &memRecords{records: []*domain.Record{{
		ID: "rec-1", SourceURL: "https://a.example.gov/", Platform: "fasttrack", State: "Florida", Confidence: 0.6,
	}}}
	jobQueue := &memJobs{}

	router := api.NewRouter(api.RouterDeps{
		Handler: api.NewHandler(svc, records, jobQueue),
		Metrics: metrics.New(),
		DB:      db,
		Logger:  logger.NewNop(),
		Version: "test",
	})

	return &testServer{router: router, records: records, jobs: jobQueue}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestDetect(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodPost, "/api/v1/detect", api.DetectRequest{
		URL:  "https://county.gov/permits",
		HTML: departmentPage,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"fasttrack"}, resp.Platforms)
	require.Len(t, resp.Detections, 1)
	assert.Equal(t, []string{"FastTrack", "Online Services"}, resp.Detections[0].Signatures)

	w = s.do(t, http.MethodPost, "/api/v1/detect", api.DetectRequest{URL: "https://example.com", HTML: "<p>hi</p>"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://example.com","platforms":[],"detections":[]}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/detect", map[string]string{"html": "<p>no url</p>"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		fetcher    scraper.PageFetcher
		req        api.ExtractRequest
		wantStatus int
	}{
		{
			name:       "inline html",
			req:        api.ExtractRequest{URL: "https://county.gov/permits", HTML: departmentPage, City: "Orlando"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "fetched",
			fetcher:    &stubFetcher{},
			req:        api.ExtractRequest{URL: "https://county.gov/permits"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no platform",
			req:        api.ExtractRequest{URL: "https://example.com", HTML: "<h1>Building Department</h1>"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "low confidence",
			req:        api.ExtractRequest{URL: "https://county.gov", HTML: "<p>FastTrack</p>"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "no fetcher",
			req:        api.ExtractRequest{URL: "https://county.gov/permits"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "upstream error",
			fetcher:    &stubFetcher{err: fetcher.ErrUnexpectedStatus},
			req:        api.ExtractRequest{URL: "https://county.gov/permits"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "invalid url",
			fetcher:    &stubFetcher{err: fetcher.ErrInvalidURL},
			req:        api.ExtractRequest{URL: "mailto:permits@county.gov"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, tt.fetcher, nil)
			w := s.do(t, http.MethodPost, "/api/v1/extract", tt.req)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus != http.StatusOK {
				return
			}
			var rec domain.Record
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
			assert.Equal(t, "fasttrack", rec.Platform)
			assert.Equal(t, "Building Department", rec.DepartmentName)
			assert.Equal(t, tt.req.City, rec.City)
		})
	}
}

func TestListRecords(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/v1/records?platform=fasttrack&state=Florida&q=+orange+&min_confidence=0.4&limit=10&offset=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.RecordListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, 5, resp.Offset)
	require.Len(t, resp.Records, 1)

	assert.Equal(t, database.RecordFilter{
		Platform:      "fasttrack",
		State:         "Florida",
		Search:        "orange",
		MinConfidence: 0.4,
		Limit:         10,
		Offset:        5,
	}, s.records.lastFilter)

	w = s.do(t, http.MethodGet, "/api/v1/records?min_confidence=high", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecord(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/v1/records/rec-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source_url":"https://a.example.gov/"`)

	w = s.do(t, http.MethodGet, "/api/v1/records/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportRecords(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/v1/export/records.xlsx?state=Florida", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
	assert.Equal(t, "Florida", s.records.lastFilter.State)
}

func TestCreateJob(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	req := api.CreateJobRequest{URL: "https://permits.example.gov/", State: "Florida"}

	w := s.do(t, http.MethodPost, "/api/v1/jobs", req)
	require.Equal(t, http.StatusCreated, w.Code)

	var job domain.ScrapeJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, "Florida", job.State)

	w = s.do(t, http.MethodPost, "/api/v1/jobs", req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/jobs", api.CreateJobRequest{URL: "ftp://files.example.gov"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/jobs/job-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/v1/jobs?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"jobs":[],"count":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/jobs?status=stuck", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := newTestServer(t, nil, nil).do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = newTestServer(t, nil, failingPinger{}).do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	s.do(t, http.MethodPost, "/api/v1/extract", api.ExtractRequest{URL: "https://county.gov/permits", HTML: departmentPage})

	w := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = s.do(t, http.MethodGet, "/api/v1/platforms", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	var platforms api.PlatformsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &platforms))
	require.Len(t, platforms.Platforms, 1)
	assert.Equal(t, "fasttrack", platforms.Platforms[0].Name)
	assert.Contains(t, platforms.Platforms[0].Signatures, "FastTrack")
}
