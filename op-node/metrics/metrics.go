// Package metrics provides the metrics of the alt-da derivation tool.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	opmetrics "github.com/mantlenetworkio/mantle-altda/op-service/metrics"
)

const Namespace = "altda_derive"

type Metricer interface {
	RecordL1Request(method string, duration time.Duration, err error)
	RecordDerivedData(source string, n int)
	opmetrics.RefMetricer
}

// Metrics tracks L1 reads, Alt-DA requests and the batch data derived from them.
type Metrics struct {
	registry *prometheus.Registry

	opmetrics.RefMetrics
	AltDA *altda.Metrics

	L1RequestDuration *prometheus.HistogramVec
	L1RequestErrors   *prometheus.CounterVec
	DerivedItems      *prometheus.CounterVec
	DerivedBytes      *prometheus.CounterVec
}

var _ Metricer = (*Metrics)(nil)

// NewMetrics registers all metrics into a fresh registry. An empty procName uses Namespace.
func NewMetrics(procName string) *Metrics {
	ns := Namespace
	if procName != "" {
		ns = procName
	}
	registry := opmetrics.NewRegistry()
	factory := opmetrics.With(registry)
	return &Metrics{
		registry:   registry,
		RefMetrics: opmetrics.MakeRefMetrics(ns, factory),
		AltDA:      altda.MakeMetrics(ns, factory),
		L1RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "l1_request_seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			Help:      "Histogram of L1 request time",
		}, []string{"request"}),
		L1RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "l1_request_errors_total",
			Help:      "Number of failed L1 requests",
		}, []string{"request"}),
		DerivedItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "derived_items_total",
			Help:      "Number of batch data items read from L1, by source block",
		}, []string{"source"}),
		DerivedBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "derived_bytes_total",
			Help:      "Number of batch data bytes read from L1, by source block",
		}, []string{"source"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordL1Request(method string, duration time.Duration, err error) {
	m.L1RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	if err != nil {
		m.L1RequestErrors.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) RecordDerivedData(source string, n int) {
	m.DerivedItems.WithLabelValues(source).Inc()
	m.DerivedBytes.WithLabelValues(source).Add(float64(n))
}

type noopMetricer struct {
	opmetrics.NoopRefMetrics
}

// NoopMetrics discards all measurements.
var NoopMetrics Metricer = new(noopMetricer)

func (*noopMetricer) RecordL1Request(string, time.Duration, error) {}

func (*noopMetricer) RecordDerivedData(string, int) {}
