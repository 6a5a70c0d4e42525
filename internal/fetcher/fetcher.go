// Package fetcher retrieves single pages with a colly collector.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	colly "github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrInvalidURL is returned for URLs that are not absolute http(s).
	ErrInvalidURL = errors.New("invalid url")
	// ErrFetchFailed wraps transport failures and empty responses.
	ErrFetchFailed = errors.New("fetch failed")
)

// Page is a fetched document.
type Page struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        string
	FetchedAt   time.Time
}

// Fetcher retrieves one page per call. It never follows links.
type Fetcher struct {
	cfg     config.FetcherConfig
	logger  logger.Logger
	metrics *metrics.Metrics
}

// New creates a Fetcher. m may be nil.
func New(cfg config.FetcherConfig, log logger.Logger, m *metrics.Metrics) *Fetcher {
	cfg.SetDefaults()
	return &Fetcher{
		cfg:     cfg,
		logger:  logger.OrNop(log),
		metrics: m,
	}
}

// Fetch downloads pageURL.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}

	start := time.Now()
	page, err := f.fetch(ctx, u.String())
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.metrics.RecordFetch(status, time.Since(start))

	if err != nil {
		f.logger.Debug("Fetch failed",
			logger.URL(pageURL),
			logger.Elapsed(start),
			logger.Error(err),
		)
		return nil, err
	}

	f.logger.Debug("Page fetched",
		logger.URL(page.URL),
		logger.Int("status", page.StatusCode),
		logger.Int("bytes", len(page.Body)),
		logger.Elapsed(start),
	)
	return page, nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (*Page, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.MaxDepth(1),
		colly.UserAgent(f.cfg.UserAgent),
		colly.MaxBodySize(f.cfg.MaxBodySize),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = !f.cfg.RespectRobotsTxt
	c.SetRequestTimeout(f.cfg.Timeout)

	var (
		page     *Page
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        string(r.Body),
			FetchedAt:   time.Now().UTC(),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 && (r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices) {
			fetchErr = fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, r.StatusCode, pageURL)
			return
		}
		fetchErr = fmt.Errorf("%w: %s: %w", ErrFetchFailed, pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("%w: %s: %w", ErrFetchFailed, pageURL, err)
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	if page == nil {
		return nil, fmt.Errorf("%w: %s: empty response", ErrFetchFailed, pageURL)
	}
	return page, nil
}
