package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric the service records.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Ingestion pipeline
	IngestionsTotal    CounterVec
	IngestionDuration  HistogramVec
	AlertsGenerated    CounterVec
	CriticalZones      GaugeVec
	LockContention     CounterVec
	ArchivedBytesTotal CounterVec
	EventsPublished    CounterVec

	// Infrastructure
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	MessageProcessDuration HistogramVec
	HealthCheckStatus      GaugeVec
	ErrorsTotal            CounterVec
}

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultIngestDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.IngestionsTotal = collector.RegisterCounter("ingestions_total", "Daily scouting ingestions", "source", "status")
	m.IngestionDuration = collector.RegisterHistogram("ingestion_duration_seconds", "End-to-end ingestion duration", DefaultIngestDurationBuckets, "source")
	m.AlertsGenerated = collector.RegisterCounter("alerts_generated_total", "Alerts generated by ingestion", "alert_type", "severity")
	m.CriticalZones = collector.RegisterGauge("critical_zones", "Critical zones in the latest ingestion", "field_id")
	m.LockContention = collector.RegisterCounter("ingest_lock_contention_total", "Ingestions rejected because the field/date lock was held")
	m.ArchivedBytesTotal = collector.RegisterCounter("archived_bytes_total", "Raw payload bytes written to object storage")
	m.EventsPublished = collector.RegisterCounter("events_published_total", "Events published after commit", "topic", "status")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultIngestDurationBuckets, "topic")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers. Each accepts a nil *AppMetrics so callers need no metrics guard.
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordIngestion counts one ingestion attempt. status is "success" or the
// error code of the failure.
func RecordIngestion(m *AppMetrics, source, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.IngestionsTotal.WithLabelValues(source, status).Inc()
	m.IngestionDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func RecordAlert(m *AppMetrics, alertType, severity string) {
	if m == nil {
		return
	}
	m.AlertsGenerated.WithLabelValues(alertType, severity).Inc()
}

func SetCriticalZones(m *AppMetrics, fieldID string, n int) {
	if m == nil {
		return
	}
	m.CriticalZones.WithLabelValues(fieldID).Set(float64(n))
}

func RecordLockContention(m *AppMetrics) {
	if m == nil {
		return
	}
	m.LockContention.WithLabelValues().Inc()
}

func RecordArchive(m *AppMetrics, bytes int) {
	if m == nil {
		return
	}
	m.ArchivedBytesTotal.WithLabelValues().Add(float64(bytes))
}

func RecordEvent(m *AppMetrics, topic string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.EventsPublished.WithLabelValues(topic, status).Inc()
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordMessage(m *AppMetrics, topic string, duration time.Duration) {
	if m == nil {
		return
	}
	m.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func SetHealth(m *AppMetrics, component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
