// Package metrics exposes Prometheus instrumentation for offer processing.
//
// Collectors live on a private registry so tests can create as many
// instances as they like without duplicate registration panics. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ofertas"

// Outcome labels for decoded files.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups every collector the service updates.
type Metrics struct {
	registry *prometheus.Registry

	filesDecoded     *prometheus.CounterVec
	sheetsSkipped    prometheus.Counter
	offersProduced   prometheus.Counter
	referenceMisses  prometheus.Counter
	processDuration  prometheus.Histogram
	referenceRecords prometheus.Gauge
	activeSessions   prometheus.Gauge
}

// New creates and registers all collectors, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_decoded_total",
			Help:      "Uploaded offer files decoded, by container format and outcome.",
		}, []string{"format", "outcome"}),
		sheetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_skipped_total",
			Help:      "Sheets left out because they lack the selected price column.",
		}),
		offersProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_produced_total",
			Help:      "Offer records produced by processing runs.",
		}),
		referenceMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_misses_total",
			Help:      "Offers whose product code has no reference entry.",
		}),
		processDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Wall time of one processing run.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		referenceRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_records",
			Help:      "Product codes in the loaded reference index.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Live in-memory offer sessions.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.filesDecoded,
		m.sheetsSkipped,
		m.offersProduced,
		m.referenceMisses,
		m.processDuration,
		m.referenceRecords,
		m.activeSessions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// FileDecoded counts one decoded file.
func (m *Metrics) FileDecoded(format, outcome string) {
	if m == nil {
		return
	}
	m.filesDecoded.WithLabelValues(format, outcome).Inc()
}

// SheetsSkipped adds n skipped sheets.
func (m *Metrics) SheetsSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sheetsSkipped.Add(float64(n))
}

// OffersProduced adds the offers and unmatched codes of one run.
func (m *Metrics) OffersProduced(offers, misses int) {
	if m == nil {
		return
	}
	m.offersProduced.Add(float64(offers))
	m.referenceMisses.Add(float64(misses))
}

// ObserveProcess records the duration of one run.
func (m *Metrics) ObserveProcess(d time.Duration) {
	if m == nil {
		return
	}
	m.processDuration.Observe(d.Seconds())
}

// SetReferenceRecords sets the reference index size.
func (m *Metrics) SetReferenceRecords(n int) {
	if m == nil {
		return
	}
	m.referenceRecords.Set(float64(n))
}

// SetActiveSessions sets the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
