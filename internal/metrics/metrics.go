// Package metrics counts reconciliation activity with Prometheus counters
// and can dump them to a node-exporter textfile at the end of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
)

const namespace = "authmatch"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeNotFound = "not_found"
)

// Metrics holds the run's counters on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	records       *prometheus.CounterVec
	discrepancies *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Catalog records processed, by authority service and outcome.",
		}, []string{"api", "outcome"}),
		discrepancies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discrepancies_total",
			Help:      "Discrepancy rows written, by authority service.",
		}, []string{"api"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authority_fetches_total",
			Help:      "Remote authority fetches, by authority service and outcome.",
		}, []string{"api", "outcome"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Authority lookups served from the cache.",
		}, []string{"api"}),
	}
	m.registry.MustRegister(m.records, m.discrepancies, m.fetches, m.cacheHits)
	return m
}

// CacheHit implements authority.Observer.
func (m *Metrics) CacheHit(kind authority.Kind) {
	m.cacheHits.WithLabelValues(kind.String()).Inc()
}

// Fetched implements authority.Observer.
func (m *Metrics) Fetched(kind authority.Kind, err error) {
	m.fetches.WithLabelValues(kind.String(), outcome(err)).Inc()
}

// RecordProcessed counts one processed record.
func (m *Metrics) RecordProcessed(kind authority.Kind, err error) {
	m.records.WithLabelValues(kind.String(), outcome(err)).Inc()
}

// Discrepancies counts n discrepancy rows.
func (m *Metrics) Discrepancies(kind authority.Kind, n int) {
	if n > 0 {
		m.discrepancies.WithLabelValues(kind.String()).Add(float64(n))
	}
}

// WriteTextfile writes all counters to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.IsNotFound(err):
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}
