// Package prometheus exports reconciliation metrics through
// prometheus/client_golang.
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/segmend"
)

// Collector implements segmend.MetricsCollector with Prometheus metrics.
type Collector struct {
	actionLatency *prom.HistogramVec
	actions       *prom.CounterVec
	passLatency   prom.Histogram
	passes        *prom.CounterVec
	columns       prom.Counter
}

var _ segmend.MetricsCollector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace prefixes every metric name. Default "segmend".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithBuckets sets the latency histogram buckets in seconds.
func WithBuckets(buckets []float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewCollector(reg prom.Registerer, opts ...Option) (*Collector, error) {
	o := options{namespace: "segmend", buckets: prom.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		actionLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: o.namespace,
			Name:      "column_action_duration_seconds",
			Help:      "Latency of default column actions",
			Buckets:   o.buckets,
		}, []string{"action", "status"}),
		actions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "column_actions_total",
			Help:      "Total default column actions by outcome",
		}, []string{"action", "status"}),
		passLatency: prom.NewHistogram(prom.HistogramOpts{
			Namespace: o.namespace,
			Name:      "pass_duration_seconds",
			Help:      "Latency of reconciliation passes",
			Buckets:   o.buckets,
		}),
		passes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "passes_total",
			Help:      "Total reconciliation passes by outcome",
		}, []string{"status"}),
		columns: prom.NewCounter(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "columns_classified_total",
			Help:      "Total columns classified across passes",
		}),
	}

	for _, m := range []prom.Collector{c.actionLatency, c.actions, c.passLatency, c.passes, c.columns} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordAction implements segmend.MetricsCollector.
func (c *Collector) RecordAction(action segmend.Action, d time.Duration, err error) {
	status := status(err)
	c.actionLatency.WithLabelValues(action.String(), status).Observe(d.Seconds())
	c.actions.WithLabelValues(action.String(), status).Inc()
}

// RecordPass implements segmend.MetricsCollector.
func (c *Collector) RecordPass(columns, failed int, d time.Duration) {
	s := "success"
	if failed > 0 {
		s = "error"
	}
	c.passLatency.Observe(d.Seconds())
	c.passes.WithLabelValues(s).Inc()
	c.columns.Add(float64(columns))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
