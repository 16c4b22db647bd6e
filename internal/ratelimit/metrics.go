package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/serroba/eventstats-api/internal/metrics"
)

// Metrics holds the Prometheus collectors of the limiter. A nil *Metrics records nothing.
type Metrics struct {
	decisions *prometheus.CounterVec
	evictions prometheus.Counter
}

// NewMetrics registers the limiter collectors with r. The tracked clients
// gauge reads its value from store on every scrape.
func NewMetrics(r prometheus.Registerer, store *Store) (*Metrics, error) {
	decisions, err := metrics.Register(r, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Total number of admission decisions.",
		},
		[]string{"decision"},
	))
	if err != nil {
		return nil, err
	}

	evictions, err := metrics.Register(r, prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "ratelimit",
			Name:      "evictions_total",
			Help:      "Total number of idle client records reclaimed.",
		},
	))
	if err != nil {
		return nil, err
	}

	_, err = metrics.Register(r, prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Subsystem: "ratelimit",
			Name:      "tracked_clients",
			Help:      "Number of client records currently held in memory.",
		},
		func() float64 { return float64(store.Len()) },
	))
	if err != nil {
		return nil, err
	}

	return &Metrics{decisions: decisions, evictions: evictions}, nil
}

func (m *Metrics) observeDecision(d Decision) {
	if m == nil {
		return
	}

	label := "admitted"
	if !d.Allowed {
		label = string(d.Reject)
	}

	m.decisions.WithLabelValues(label).Inc()
}

func (m *Metrics) observeEvictions(n int) {
	if m == nil || n == 0 {
		return
	}

	m.evictions.Add(float64(n))
}
