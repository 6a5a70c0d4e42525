// Package jobs runs queued scrape jobs in batches, on demand or on a cron schedule.
package jobs

//go:generate mockgen -source=processor.go -destination=mocks_test.go -package=jobs_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/scraper"
)

// ErrAlreadyStarted is returned by Start when the schedule is already running.
var ErrAlreadyStarted = errors.New("job processor already started")

// JobStore is the scrape job queue.
type JobStore interface {
	Pending(ctx context.Context, limit int) ([]*domain.ScrapeJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, outcome string, recordID *string) error
	MarkFailed(ctx context.Context, id, lastErr string, requeue bool) error
}

// PageProcessor fetches a page and extracts a record from it.
type PageProcessor interface {
	ProcessURLWithJurisdiction(ctx context.Context, pageURL string, j domain.Jurisdiction) (*scraper.Result, error)
}

// BatchSummary counts what happened to the jobs of one batch.
type BatchSummary struct {
	Claimed       int
	Skipped       int
	Extracted     int
	NoPlatform    int
	LowConfidence int
	Requeued      int
	Failed        int
}

// Processor claims pending jobs and runs them through a PageProcessor.
type Processor struct {
	store       JobStore
	pages       PageProcessor
	limiter     *rate.Limiter
	batchSize   int
	maxAttempts int
	metrics     *metrics.Metrics
	logger      logger.Logger

	// batchMu serializes batches so a slow run is never overlapped by the next tick.
	batchMu sync.Mutex

	cronMu sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// Option configures a Processor.
type Option func(*Processor)

// WithRateLimit limits page fetches to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(p *Processor) {
		if rps <= 0 {
			p.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records job outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithLogger sets the processor logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) { p.logger = logger.OrNop(l) }
}

// NewProcessor creates a Processor. Zero values in cfg fall back to the config defaults.
func NewProcessor(store JobStore, pages PageProcessor, cfg config.JobsConfig, opts ...Option) *Processor {
	cfg.SetDefaults()

	p := &Processor{
		store:       store,
		pages:       pages,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce processes one batch of pending jobs. It stops early, returning the
// context error, when ctx is cancelled; the interrupted job is requeued.
func (p *Processor) RunOnce(ctx context.Context) (BatchSummary, error) {
	p.batchMu.Lock()
	defer p.batchMu.Unlock()

	var summary BatchSummary

	pending, err := p.store.Pending(ctx, p.batchSize)
	if err != nil {
		return summary, fmt.Errorf("list pending jobs: %w", err)
	}

	for _, job := range pending {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}

		if claimErr := p.store.MarkProcessing(ctx, job.ID); claimErr != nil {
			summary.Skipped++
			if !errors.Is(claimErr, database.ErrJobNotPending) {
				p.logger.Warn("Failed to claim scrape job",
					logger.JobID(job.ID),
					logger.Error(claimErr),
				)
			}
			continue
		}
		summary.Claimed++
		job.Attempts++

		if runErr := p.runJob(ctx, job, &summary); runErr != nil {
			return summary, runErr
		}
	}

	if summary.Claimed > 0 {
		p.logger.Info("Scrape job batch finished",
			logger.Int("claimed", summary.Claimed),
			logger.Int("extracted", summary.Extracted),
			logger.Int("no_platform", summary.NoPlatform),
			logger.Int("low_confidence", summary.LowConfidence),
			logger.Int("requeued", summary.Requeued),
			logger.Int("failed", summary.Failed),
		)
	}

	return summary, nil
}

// runJob processes a claimed job. It only returns an error when ctx was
// cancelled mid-job.
func (p *Processor) runJob(ctx context.Context, job *domain.ScrapeJob, summary *BatchSummary) error {
	log := p.logger.With(logger.JobID(job.ID), logger.URL(job.URL))

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.release(job, err, log)
			summary.Requeued++
			return err
		}
	}

	start := time.Now()
	result, err := p.pages.ProcessURLWithJurisdiction(ctx, job.URL, job.Jurisdiction())

	switch {
	case err == nil:
		recordID := result.Record.ID
		p.complete(ctx, job, domain.OutcomeExtracted, &recordID, log)
		summary.Extracted++
		log.Debug("Scrape job extracted",
			logger.Platform(result.Platform),
			logger.Float64("confidence", result.Record.Confidence),
			logger.Elapsed(start),
		)
	case errors.Is(err, scraper.ErrNoPlatform):
		p.complete(ctx, job, domain.OutcomeNoPlatform, nil, log)
		summary.NoPlatform++
	case errors.Is(err, scraper.ErrLowConfidence):
		p.complete(ctx, job, domain.OutcomeLowConfidence, nil, log)
		summary.LowConfidence++
	case ctx.Err() != nil:
		p.release(job, err, log)
		summary.Requeued++
		return ctx.Err()
	default:
		requeue := job.Attempts < p.maxAttempts
		p.fail(ctx, job, err, requeue, log)
		if requeue {
			summary.Requeued++
		} else {
			summary.Failed++
		}
	}

	return nil
}

func (p *Processor) complete(
	ctx context.Context, job *domain.ScrapeJob, outcome string, recordID *string, log logger.Logger,
) {
	if err := p.store.MarkCompleted(ctx, job.ID, outcome, recordID); err != nil {
		log.Error("Failed to mark scrape job completed", logger.Error(err))
		return
	}
	p.metrics.RecordJob(string(domain.JobStatusCompleted), outcome)
}

func (p *Processor) fail(ctx context.Context, job *domain.ScrapeJob, cause error, requeue bool, log logger.Logger) {
	if err := p.store.MarkFailed(ctx, job.ID, cause.Error(), requeue); err != nil {
		log.Error("Failed to mark scrape job failed", logger.Error(err))
		return
	}

	status := domain.JobStatusFailed
	if requeue {
		status = domain.JobStatusPending
	}
	p.metrics.RecordJob(string(status), metrics.OutcomeError)

	log.Warn("Scrape job failed",
		logger.Int("attempts", job.Attempts),
		logger.Bool("requeued", requeue),
		logger.Error(cause),
	)
}

// release puts an interrupted job back in the queue. ctx is already done, so
// the update runs on a short detached context.
func (p *Processor) release(job *domain.ScrapeJob, cause error, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := p.store.MarkFailed(ctx, job.ID, cause.Error(), true); err != nil {
		log.Error("Failed to release interrupted scrape job", logger.Error(err))
	}
}

const releaseTimeout = 5 * time.Second

// Start runs RunOnce on the cron schedule spec until ctx is cancelled or Stop is called.
func (p *Processor) Start(ctx context.Context, spec string) error {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()

	if p.cron != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if _, err := c.AddFunc(spec, func() { p.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid job schedule %q: %w", spec, err)
	}

	c.Start()
	p.cron = c
	p.cancel = cancel

	p.logger.Info("Job processor started", logger.String("schedule", spec))
	return nil
}

func (p *Processor) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := p.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Scrape job batch failed", logger.Error(err))
	}
}

// Stop cancels the schedule and waits for a running batch to finish.
func (p *Processor) Stop() {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()

	if p.cron == nil {
		return
	}

	p.cancel()
	<-p.cron.Stop().Done()
	p.cron = nil
	p.cancel = nil

	p.logger.Info("Job processor stopped")
}
