package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
)

// ErrInvalidSeed is returned for a seed without an absolute http(s) URL.
var ErrInvalidSeed = errors.New("invalid seed")

// Seed is one URL to enqueue, with an optional known jurisdiction.
type Seed struct {
	URL                 string `yaml:"url"`
	domain.Jurisdiction `yaml:",inline"`
}

type seedFile struct {
	Seeds []Seed `yaml:"seeds"`
}

// Enqueuer adds scrape jobs to the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, pageURL string, j domain.Jurisdiction) (*domain.ScrapeJob, bool, error)
}

// ParseSeeds decodes a seeds document and validates every entry.
func ParseSeeds(data []byte) ([]Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seeds: %w", err)
	}

	var errs []error
	for i := range f.Seeds {
		f.Seeds[i].URL = strings.TrimSpace(f.Seeds[i].URL)
		if err := ValidateURL(f.Seeds[i].URL); err != nil {
			errs = append(errs, fmt.Errorf("seeds[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return f.Seeds, nil
}

// LoadSeeds reads and parses a seeds file.
func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seeds file: %w", err)
	}
	return ParseSeeds(data)
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidSeed, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidSeed, raw)
	}
	return nil
}

// SeedJobs enqueues every seed. URLs that already have an open job are
// counted as existing. It stops at the first enqueue error.
func SeedJobs(ctx context.Context, q Enqueuer, seeds []Seed) (created, existing int, err error) {
	for _, s := range seeds {
		_, isNew, enqErr := q.Enqueue(ctx, s.URL, s.Jurisdiction)
		if enqErr != nil {
			return created, existing, fmt.Errorf("enqueue %s: %w", s.URL, enqErr)
		}
		if isNew {
			created++
		} else {
			existing++
		}
	}
	return created, existing, nil
}
