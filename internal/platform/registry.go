package platform

import (
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/htmlutil"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
)

// Registry holds plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	byName  map[string]Plugin
	logger  logger.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		byName: make(map[string]Plugin),
		logger: logger.OrNop(log),
	}
}

// Register appends p. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name())
	}
	r.plugins = append(r.plugins, p)
	r.byName[p.Name()] = p
	return nil
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	return p, ok
}

// Names returns plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	return names
}

// Detect returns the first plugin, in registration order, that detects the page.
func (r *Registry) Detect(pageURL, html string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Detect(pageURL, html) {
			return p, true
		}
	}
	return nil, false
}

// Infos describes every plugin in registration order.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.plugins))
	for _, p := range r.plugins {
		if d, ok := p.(Describer); ok {
			infos = append(infos, d.Info())
			continue
		}
		infos = append(infos, Info{Name: p.Name()})
	}
	return infos
}

// DetectAll returns every plugin that detects the page, in registration order,
// with the signatures that hit when the plugin can report them.
func (r *Registry) DetectAll(pageURL, html string) []Detection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Detection
	for _, p := range r.plugins {
		if !p.Detect(pageURL, html) {
			continue
		}
		det := Detection{Platform: p.Name()}
		if d, ok := p.(Describer); ok {
			det.Signatures = d.MatchedSignatures(pageURL, html)
		}
		out = append(out, det)
	}
	return out
}

// Extract detects the platform and runs its extractor once. The returned
// name is the detected platform, empty only with ErrNoPlatform.
// It returns ErrNoPlatform or ErrLowConfidence when no record is produced.
func (r *Registry) Extract(pageURL, html string, doc *goquery.Document) (string, *domain.Record, error) {
	p, ok := r.Detect(pageURL, html)
	if !ok {
		r.logger.Debug("No platform detected", logger.URL(pageURL))
		return "", nil, ErrNoPlatform
	}
	name := p.Name()

	if doc == nil {
		parsed, err := htmlutil.Parse(html)
		if err != nil {
			return name, nil, fmt.Errorf("failed to parse html: %w", err)
		}
		doc = parsed
	}

	rec := p.Extract(pageURL, html, doc)
	if rec == nil {
		r.logger.Debug("Extraction below confidence threshold",
			logger.URL(pageURL),
			logger.Platform(name),
		)
		return name, nil, fmt.Errorf("%s: %w", name, ErrLowConfidence)
	}

	r.logger.Debug("Record extracted",
		logger.URL(pageURL),
		logger.Platform(name),
		logger.Float64("confidence", rec.Confidence),
	)
	return name, rec, nil
}
