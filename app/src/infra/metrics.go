package infra

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kpi_http_requests_total",
		Help: "Total number of HTTP requests",
	})
	HTTPRequestErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kpi_http_request_errors_total",
		Help: "Total number of HTTP request errors",
	})
	HTTPRequestDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kpi_http_request_duration_seconds",
		Help:    "Duration of HTTP request processing in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Ingestion metrics
	IngestedMeasurementsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kpi_ingested_measurements_total",
		Help: "Total number of measurements accepted into the store",
	})
	IngestErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kpi_ingest_errors_total",
		Help: "Total number of rejected or failed measurement writes",
	})

	// Generator metrics
	GeneratedMeasurementsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kpi_generated_measurements_total",
		Help: "Total number of synthetic measurements produced",
	})

	// Detection metrics
	DetectionDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kpi_detection_duration_seconds",
		Help:    "Duration of one anomaly detection batch in seconds",
		Buckets: prometheus.DefBuckets,
	})
	DetectionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kpi_detection_errors_total",
		Help: "Total number of failed (cell, method) detection tasks",
	})
	AnomaliesDetectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_anomalies_detected_total",
		Help: "Total number of anomaly records emitted, per method",
	}, []string{"method"})

	// Alert metrics
	AlertsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_alerts_created_total",
		Help: "Total number of alerts persisted, per severity",
	}, []string{"severity"})

	// Worker pool metrics
	WorkerPoolActiveGoroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kpi_worker_pool_active_goroutines",
		Help: "Number of active worker goroutines",
	})

	registerOnce      sync.Once
	metricsServerOnce sync.Once
)

func init() {
	InitMetrics()
}

// InitMetrics registers all Prometheus collectors used by the application.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestErrorsTotal,
			HTTPRequestDurationSeconds,
			IngestedMeasurementsTotal,
			IngestErrorsTotal,
			GeneratedMeasurementsTotal,
			DetectionDurationSeconds,
			DetectionErrorsTotal,
			AnomaliesDetectedTotal,
			AlertsCreatedTotal,
			WorkerPoolActiveGoroutines,
		)
	})
}

// Handler returns an HTTP handler that exposes the registered Prometheus metrics.
func Handler() http.Handler {
	InitMetrics()
	return promhttp.Handler()
}

// StartMetricsServer exposes Prometheus metrics on the given port.
func StartMetricsServer(port string, logger *Logger) {
	InitMetrics()
	metricsServerOnce.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		go func() {
			if err := http.ListenAndServe(":"+port, mux); err != nil {
				if logger != nil {
					logger.Printf(context.Background(), "metrics server error: %v", err)
				}
			}
		}()
	})
}

// HTTPMiddleware instruments HTTP handlers with request/latency metrics.
func HTTPMiddleware(pathResolver func(*http.Request) string) func(http.Handler) http.Handler {
	InitMetrics()
	if pathResolver == nil {
		pathResolver = func(r *http.Request) string {
			if r == nil {
				return "unknown"
			}
			return r.URL.Path
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r == nil {
				HTTPRequestErrorsTotal.Inc()
				http.Error(w, "invalid request", http.StatusBadRequest)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			defer func() {
				HTTPRequestDurationSeconds.Observe(time.Since(start).Seconds())
				HTTPRequestsTotal.Inc()

				if recorder.Status() >= http.StatusBadRequest {
					HTTPRequestErrorsTotal.Inc()
				}
			}()

			next.ServeHTTP(recorder, r)
		})
	}
}

// IncIngestedMeasurements increments the ingested measurement counter.
func IncIngestedMeasurements() {
	InitMetrics()
	IngestedMeasurementsTotal.Inc()
}

// AddIngestedMeasurements adds a batch to the ingested measurement counter.
func AddIngestedMeasurements(n int) {
	InitMetrics()
	IngestedMeasurementsTotal.Add(float64(n))
}

// IncIngestErrors increments the ingest error counter.
func IncIngestErrors() {
	InitMetrics()
	IngestErrorsTotal.Inc()
}

// AddGeneratedMeasurements adds to the synthetic generation counter.
func AddGeneratedMeasurements(n int) {
	InitMetrics()
	GeneratedMeasurementsTotal.Add(float64(n))
}

// ObserveDetection tracks the duration of one detection batch.
func ObserveDetection(duration time.Duration) {
	InitMetrics()
	if duration < 0 {
		duration = 0
	}
	DetectionDurationSeconds.Observe(duration.Seconds())
}

// IncDetectionErrors increments the failed detection task counter.
func IncDetectionErrors() {
	InitMetrics()
	DetectionErrorsTotal.Inc()
}

// AddAnomaliesDetected adds emitted anomaly records for one method.
func AddAnomaliesDetected(method string, n int) {
	InitMetrics()
	if n <= 0 {
		return
	}
	AnomaliesDetectedTotal.WithLabelValues(method).Add(float64(n))
}

// IncAlertsCreated increments the persisted alert counter for a severity.
func IncAlertsCreated(severity string) {
	InitMetrics()
	AlertsCreatedTotal.WithLabelValues(severity).Inc()
}

// WorkerStarted increments the active worker goroutine gauge.
func WorkerStarted() {
	InitMetrics()
	WorkerPoolActiveGoroutines.Inc()
}

// WorkerFinished decrements the active worker goroutine gauge.
func WorkerFinished() {
	InitMetrics()
	WorkerPoolActiveGoroutines.Dec()
}

// statusRecorder captures the response status code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Status() int {
	return r.status
}
