package altda

import (
	"github.com/prometheus/client_golang/prometheus"

	opmetrics "github.com/mantlenetworkio/mantle-altda/op-service/metrics"
)

const Subsystem = "altda"

// Metricer records Alt-DA requests. RecordInterval starts timing a request,
// the returned function ends it with the request's outcome.
type Metricer interface {
	RecordInterval(method string) func(error)
	RecordFetchedBytes(kind CommitmentKind, n int)
}

type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetchedBytes    *prometheus.CounterVec
}

var _ Metricer = (*Metrics)(nil)

func MakeMetrics(ns string, factory opmetrics.Factory) *Metrics {
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: Subsystem,
			Name:      "requests_total",
			Help:      "Total Alt-DA requests, by method and result",
		}, []string{"method", "result"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: Subsystem,
			Name:      "request_duration_seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			Help:      "Histogram of Alt-DA request durations",
		}, []string{"method"}),
		fetchedBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: Subsystem,
			Name:      "fetched_bytes_total",
			Help:      "Total bytes fetched from Alt-DA layers",
		}, []string{"kind"}),
	}
}

func (m *Metrics) RecordInterval(method string) func(error) {
	timer := prometheus.NewTimer(m.requestDuration.WithLabelValues(method))
	return func(err error) {
		timer.ObserveDuration()
		result := "success"
		if err != nil {
			result = "error"
		}
		m.requestsTotal.WithLabelValues(method, result).Inc()
	}
}

func (m *Metrics) RecordFetchedBytes(kind CommitmentKind, n int) {
	m.fetchedBytes.WithLabelValues(kind.String()).Add(float64(n))
}

type noopMetrics struct{}

// NoopMetrics discards all measurements.
var NoopMetrics Metricer = noopMetrics{}

func (noopMetrics) RecordInterval(method string) func(error) {
	return func(error) {}
}

func (noopMetrics) RecordFetchedBytes(CommitmentKind, int) {}
