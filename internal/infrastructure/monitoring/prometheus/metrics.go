package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Aggregation Layer
	AggregationDuration HistogramVec
	RecordsScannedTotal CounterVec
	NormalizationEvents CounterVec
	DatasetRecords      GaugeVec

	// Submission / Export
	SubmissionsTotal CounterVec
	ExportsTotal     CounterVec
	ExportDuration   HistogramVec

	// Infrastructure Layer
	DBQueryDuration     HistogramVec
	CacheHitsTotal      CounterVec
	CacheMissesTotal    CounterVec
	EventsTotal         CounterVec
	EventProcessSeconds HistogramVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets        = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAggregationDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}
	DefaultExportDurationBuckets      = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultDBDurationBuckets          = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// Normalization event kinds.
const (
	NormalizationCoercedLeaf     = "coerced_leaf"
	NormalizationSynthesizedName = "synthesized_name"
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests")

	m.AggregationDuration = collector.RegisterHistogram("aggregation_duration_seconds", "Dashboard computation duration", DefaultAggregationDurationBuckets, "operation")
	m.RecordsScannedTotal = collector.RegisterCounter("records_scanned_total", "Survey records fed into dashboard computations", "operation")
	m.NormalizationEvents = collector.RegisterCounter("normalization_events_total", "Data-quality events raised while normalizing survey payloads", "kind")
	m.DatasetRecords = collector.RegisterGauge("dataset_records", "Survey records currently stored")

	m.SubmissionsTotal = collector.RegisterCounter("submissions_total", "Survey submissions", "status")
	m.ExportsTotal = collector.RegisterCounter("exports_total", "Dashboard workbook exports", "status")
	m.ExportDuration = collector.RegisterHistogram("export_duration_seconds", "Workbook export duration", DefaultExportDurationBuckets)

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsTotal = collector.RegisterCounter("events_total", "Submission events by direction", "direction", "status")
	m.EventProcessSeconds = collector.RegisterHistogram("event_process_duration_seconds", "Submission event handling duration", DefaultHTTPDurationBuckets)

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// Helpers. All accept a nil *AppMetrics so callers can run without metrics.

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordAggregation(metrics *AppMetrics, operation string, records int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.AggregationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	metrics.RecordsScannedTotal.WithLabelValues(operation).Add(float64(records))
}

func RecordNormalization(metrics *AppMetrics, coercedLeaves, synthesizedNames int) {
	if metrics == nil {
		return
	}
	if coercedLeaves > 0 {
		metrics.NormalizationEvents.WithLabelValues(NormalizationCoercedLeaf).Add(float64(coercedLeaves))
	}
	if synthesizedNames > 0 {
		metrics.NormalizationEvents.WithLabelValues(NormalizationSynthesizedName).Add(float64(synthesizedNames))
	}
}

func SetDatasetRecords(metrics *AppMetrics, records int) {
	if metrics == nil {
		return
	}
	metrics.DatasetRecords.WithLabelValues().Set(float64(records))
}

func RecordSubmission(metrics *AppMetrics, status string) {
	if metrics == nil {
		return
	}
	metrics.SubmissionsTotal.WithLabelValues(status).Inc()
}

func RecordExport(metrics *AppMetrics, err error, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.ExportsTotal.WithLabelValues(status(err)).Inc()
	metrics.ExportDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordEvent(metrics *AppMetrics, direction string, err error) {
	if metrics == nil {
		return
	}
	metrics.EventsTotal.WithLabelValues(direction, status(err)).Inc()
}

// ObserveEventProcessing records how long a consumed event took to handle.
func ObserveEventProcessing(metrics *AppMetrics, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.EventProcessSeconds.WithLabelValues().Observe(duration.Seconds())
}

func RecordDBQuery(metrics *AppMetrics, operation string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("postgres", "query_error").Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	if metrics == nil {
		return
	}
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func SetHealth(metrics *AppMetrics, component string, up bool) {
	if metrics == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

//Personal.AI order the ending
