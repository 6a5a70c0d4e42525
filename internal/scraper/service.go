// Package scraper ties fetching, platform detection, extraction and
// persistence together for a single page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/fetcher"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform"
)

// Sentinel errors, shared with the platform package so callers can use
// errors.Is without importing it.
var (
	ErrNoPlatform    = platform.ErrNoPlatform
	ErrLowConfidence = platform.ErrLowConfidence
	// ErrNoFetcher is returned by ProcessURL when the service has no fetcher.
	ErrNoFetcher = errors.New("no fetcher configured")
)

// noPlatformLabel is the metrics label used when nothing was detected.
const noPlatformLabel = "none"

// PageFetcher retrieves a page by URL.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error)
}

// RecordStore persists accepted records.
type RecordStore interface {
	Save(ctx context.Context, rec *domain.Record) error
}

// Result is the outcome of processing one page.
type Result struct {
	Record   *domain.Record
	Platform string
	Duration time.Duration
}

// Service runs the detect and extract pipeline.
type Service struct {
	registry *platform.Registry
	fetcher  PageFetcher
	store    RecordStore
	metrics  *metrics.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher enables ProcessURL.
func WithFetcher(f PageFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithStore persists every accepted record.
func WithStore(store RecordStore) Option {
	return func(s *Service) { s.store = store }
}

// WithMetrics records detection and extraction metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.logger = logger.OrNop(l) }
}

// WithClock sets the clock used to stamp ExtractedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over registry.
func NewService(registry *platform.Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		logger:   logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Platforms describes the registered plugins.
func (s *Service) Platforms() []platform.Info {
	return s.registry.Infos()
}

// Detect returns every plugin that detects the page with the signatures it matched.
func (s *Service) Detect(pageURL, html string) []platform.Detection {
	return s.registry.DetectAll(pageURL, html)
}

// ProcessURL fetches pageURL and processes the body.
func (s *Service) ProcessURL(ctx context.Context, pageURL string) (*Result, error) {
	return s.ProcessURLWithJurisdiction(ctx, pageURL, domain.Jurisdiction{})
}

// ProcessURLWithJurisdiction is ProcessURL with a known jurisdiction. Non-empty
// fields of j replace whatever was guessed from the page.
func (s *Service) ProcessURLWithJurisdiction(ctx context.Context, pageURL string, j domain.Jurisdiction) (*Result, error) {
	if s.fetcher == nil {
		return nil, ErrNoFetcher
	}

	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	// Extract against the requested URL so relative links resolve the same
	// way regardless of redirects.
	return s.process(ctx, pageURL, page.Body, j)
}

// Process detects the platform of one page and extracts a record.
// It returns ErrNoPlatform or ErrLowConfidence when no record is produced.
func (s *Service) Process(ctx context.Context, pageURL, html string) (*Result, error) {
	return s.process(ctx, pageURL, html, domain.Jurisdiction{})
}

// ProcessWithJurisdiction is Process with a known jurisdiction.
func (s *Service) ProcessWithJurisdiction(ctx context.Context, pageURL, html string, j domain.Jurisdiction) (*Result, error) {
	return s.process(ctx, pageURL, html, j)
}

func (s *Service) process(ctx context.Context, pageURL, html string, hint domain.Jurisdiction) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	name, rec, err := s.registry.Extract(pageURL, html, nil)
	elapsed := time.Since(start)
	if name != "" {
		s.metrics.RecordDetection(name)
	}

	switch {
	case errors.Is(err, ErrNoPlatform):
		s.metrics.RecordExtraction(noPlatformLabel, metrics.OutcomeNoPlatform, 0, nil, elapsed)
		s.logger.Debug("No platform detected", logger.URL(pageURL))
		return nil, fmt.Errorf("%s: %w", pageURL, ErrNoPlatform)
	case errors.Is(err, ErrLowConfidence):
		s.metrics.RecordExtraction(name, metrics.OutcomeLowConfidence, domain.BaseConfidence, nil, elapsed)
		s.logger.Info("Extraction below confidence threshold",
			logger.URL(pageURL),
			logger.Platform(name),
		)
		return nil, fmt.Errorf("%s: %w", pageURL, ErrLowConfidence)
	case err != nil:
		s.metrics.RecordExtraction(name, metrics.OutcomeError, 0, nil, elapsed)
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}

	applyJurisdiction(rec, hint)
	rec.ExtractedAt = s.now().UTC()
	s.metrics.RecordExtraction(name, metrics.OutcomeExtracted, rec.Confidence, rec.Evidence.Fired(), elapsed)

	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to save record: %w", err)
		}
	}

	s.logger.Info("Record extracted",
		logger.URL(pageURL),
		logger.Platform(name),
		logger.Float64("confidence", rec.Confidence),
		logger.Strings("rules", rec.Evidence.Fired()),
		logger.Duration("duration", elapsed),
	)

	return &Result{Record: rec, Platform: name, Duration: elapsed}, nil
}

func applyJurisdiction(rec *domain.Record, j domain.Jurisdiction) {
	if j.State != "" {
		rec.State = j.State
	}
	if j.County != "" {
		rec.County = j.County
	}
	if j.City != "" {
		rec.City = j.City
	}
}
