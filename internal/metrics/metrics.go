// Package metrics exports Prometheus metrics for detection, extraction,
// fetching and job processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Extraction outcomes.
const (
	OutcomeExtracted     = "extracted"
	OutcomeNoPlatform    = "no_platform"
	OutcomeLowConfidence = "low_confidence"
	OutcomeError         = "error"
)

// Metrics holds the service collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Detections           *prometheus.CounterVec
	Extractions          *prometheus.CounterVec
	ExtractionConfidence *prometheus.HistogramVec
	ExtractionDuration   prometheus.Histogram
	RulesFired           *prometheus.CounterVec

	FetchDuration *prometheus.HistogramVec
	JobsProcessed *prometheus.CounterVec
}

// New creates the collectors and registers them with a new registry that
// also carries the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Detections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permit_detections_total",
			Help: "Pages detected as belonging to a platform",
		}, []string{"platform"}),

		Extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permit_extractions_total",
			Help: "Extraction attempts by platform and outcome",
		}, []string{"platform", "outcome"}),

		ExtractionConfidence: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "permit_extraction_confidence",
			Help:    "Confidence of accepted records",
			Buckets: []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}, []string{"platform"}),

		ExtractionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "permit_extraction_duration_seconds",
			Help:    "Time to parse, detect and extract one page",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),

		RulesFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permit_rule_fired_total",
			Help: "Extraction rules that contributed to an accepted record",
		}, []string{"platform", "rule"}),

		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "permit_fetch_duration_seconds",
			Help:    "Time to fetch one page",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),

		JobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permit_jobs_processed_total",
			Help: "Scrape jobs finished by resulting status and outcome",
		}, []string{"status", "outcome"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordDetection counts a detected page.
func (m *Metrics) RecordDetection(platform string) {
	if m == nil {
		return
	}
	m.Detections.WithLabelValues(platform).Inc()
}

// RecordExtraction counts an extraction attempt and its duration. Confidence
// and rules are recorded only for extracted records.
func (m *Metrics) RecordExtraction(platform, outcome string, confidence float64, rules []string, d time.Duration) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(platform, outcome).Inc()
	m.ExtractionDuration.Observe(d.Seconds())

	if outcome != OutcomeExtracted {
		return
	}
	m.ExtractionConfidence.WithLabelValues(platform).Observe(confidence)
	for _, rule := range rules {
		m.RulesFired.WithLabelValues(platform, rule).Inc()
	}
}

// RecordFetch observes a fetch duration; status is "ok" or "error".
func (m *Metrics) RecordFetch(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordJob counts a finished scrape job.
func (m *Metrics) RecordJob(status, outcome string) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(status, outcome).Inc()
}
