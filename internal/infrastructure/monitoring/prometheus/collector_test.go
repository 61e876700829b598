package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, nil)
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// gathered returns the value of the sample of metric name whose labels
// include every pair in labels. Histograms report their sample count.
func gathered(t *testing.T, c MetricsCollector, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := c.Gatherer().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			have := map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if have[k] != v {
					continue metrics
				}
			}
			switch {
			case m.Counter != nil:
				return m.GetCounter().GetValue()
			case m.Gauge != nil:
				return m.GetGauge().GetValue()
			case m.Histogram != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.True(t, errors.IsValidation(err))
}

func TestNewMetricsCollector_RuntimeCollectors(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "fs", EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("requests_total", "Requests", "method")
	vec.WithLabelValues("GET").Inc()
	vec.WithLabelValues("GET").Add(2)

	assert.Equal(t, 3.0, gathered(t, c, "test_unit_requests_total", map[string]string{"method": "GET"}))
	assert.Contains(t, scrape(t, c), "# HELP test_unit_requests_total Requests")
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("zones", "Zones", "field_id").WithLabelValues("f1")
	g.Set(5)
	g.Inc()
	g.Dec()
	g.Dec()
	assert.Equal(t, 4.0, gathered(t, c, "test_unit_zones", map[string]string{"field_id": "f1"}))
}

func TestRegisterHistogram(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("latency_seconds", "Latency", nil, "op")
	h.WithLabelValues("ingest").Observe(0.2)
	h.WithLabelValues("ingest").Observe(1.5)
	assert.Equal(t, 2.0, gathered(t, c, "test_unit_latency_seconds", map[string]string{"op": "ingest"}))
}

func TestRegister_SameNameReturnsExisting(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_total", "Dup", "k").WithLabelValues("a").Inc()
	c.RegisterCounter("dup_total", "Dup", "k").WithLabelValues("a").Inc()
	assert.Equal(t, 2.0, gathered(t, c, "test_unit_dup_total", map[string]string{"k": "a"}))
}

func TestRegister_TypeMismatchIsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("mixed", "Mixed")
	g := c.RegisterGauge("mixed", "Mixed")
	assert.NotPanics(t, func() { g.WithLabelValues().Set(3) })
	assert.IsType(t, noopGaugeVec{}, g)
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_seconds", "Op", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()
	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, 1.0, gathered(t, c, "test_unit_op_seconds", nil))

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
