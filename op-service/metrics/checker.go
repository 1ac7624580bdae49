package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	gocl "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// MetricChecker gathers a registry once and looks up metrics in it, failing the test
// when a lookup does not match exactly one metric.
type MetricChecker struct {
	families []*gocl.MetricFamily
	t        require.TestingT
}

func NewMetricChecker(t require.TestingT, reg *prometheus.Registry) *MetricChecker {
	families, err := reg.Gather()
	require.NoError(t, err, "must gather metrics")
	return &MetricChecker{families: families, t: t}
}

// Find returns the metric of the named family carrying all the given labels.
func (c *MetricChecker) Find(name string, labels map[string]string) *gocl.Metric {
	var fam *gocl.MetricFamily
	for _, f := range c.families {
		if f.GetName() == name {
			fam = f
			break
		}
	}
	require.NotNil(c.t, fam, "cannot find metric family %q", name)

	var found *gocl.Metric
	for _, m := range fam.Metric {
		if matchLabels(m, labels) {
			require.Nil(c.t, found, "multiple %q metrics match labels %v", name, labels)
			found = m
		}
	}
	require.NotNil(c.t, found, "cannot find %q metric with labels %v", name, labels)
	return found
}

func (c *MetricChecker) CounterValue(name string, labels map[string]string) float64 {
	return c.Find(name, labels).GetCounter().GetValue()
}

func (c *MetricChecker) GaugeValue(name string, labels map[string]string) float64 {
	return c.Find(name, labels).GetGauge().GetValue()
}

func (c *MetricChecker) HistogramCount(name string, labels map[string]string) uint64 {
	return c.Find(name, labels).GetHistogram().GetSampleCount()
}

func matchLabels(m *gocl.Metric, labels map[string]string) bool {
	for k, v := range labels {
		ok := false
		for _, pair := range m.Label {
			if pair.GetName() == k && pair.GetValue() == v {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
