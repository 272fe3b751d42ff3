package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetrygen_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemetrygen_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	readingsGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetrygen_readings_generated_total",
			Help: "Total number of sensor readings generated.",
		},
	)

	generationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetrygen_generation_duration_seconds",
			Help:    "Time taken to generate one dataset.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	exportDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemetrygen_export_duration_seconds",
			Help:    "Time taken by each exporter.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"exporter"},
	)

	exportErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetrygen_export_errors_total",
			Help: "Total number of failed exports.",
		},
		[]string{"exporter"},
	)

	influxBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetrygen_influx_batches_total",
			Help: "InfluxDB write batches by outcome.",
		},
		[]string{"outcome"},
	)

	lastRunReadings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetrygen_last_run_readings",
			Help: "Number of readings in the most recent dataset.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetrygen_stream_connections_total",
			Help: "Run status stream connects and disconnects.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetrygen_streams_active",
			Help: "Currently open run status streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetrygen_stream_messages_total",
			Help: "Total number of run status stream messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetrygen_stream_bytes_total",
			Help: "Total bytes written to run status streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetrygen_stream_errors_total",
			Help: "Run status stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(readingsGeneratedTotal)
	prometheus.MustRegister(generationDurationSeconds)
	prometheus.MustRegister(exportDurationSeconds)
	prometheus.MustRegister(exportErrorsTotal)
	prometheus.MustRegister(influxBatchesTotal)
	prometheus.MustRegister(lastRunReadings)
	prometheus.MustRegister(streamConnectionsTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamMessagesTotal)
	prometheus.MustRegister(streamBytesTotal)
	prometheus.MustRegister(streamErrorsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordGeneration records a finished generation run.
func RecordGeneration(readings int, duration time.Duration) {
	readingsGeneratedTotal.Add(float64(readings))
	generationDurationSeconds.Observe(duration.Seconds())
	lastRunReadings.Set(float64(readings))
}

// RecordExport records one exporter invocation. exporter is "csv", "parquet" or "influx".
func RecordExport(exporter string, duration time.Duration, err error) {
	exportDurationSeconds.WithLabelValues(exporter).Observe(duration.Seconds())
	if err != nil {
		exportErrorsTotal.WithLabelValues(exporter).Inc()
	}
}

// RecordInfluxBatch records the outcome of one InfluxDB write.
func RecordInfluxBatch(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	influxBatchesTotal.WithLabelValues(outcome).Inc()
}

// IncStreamConnections counts a stream "connect" or "disconnect" event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the open stream gauge.
func IncStreamsActive() { streamsActive.Inc() }

// DecStreamsActive decrements the open stream gauge.
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamMessages counts one sent stream message.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes adds n written bytes.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncStreamErrors counts a stream error. reason is e.g. "rate_limit" or "send_error".
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// knownRoutes are the status server paths that get their own label.
var knownRoutes = map[string]bool{
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/":                  true,
	"/api/v1/sensors":    true,
	"/api/v1/run":        true,
	"/api/v1/run/stream": true,
}

const sensorRoutePrefix = "/api/v1/sensors/"

// normalizeRoute bounds the path label cardinality. Per-sensor lookups
// collapse to one label and unknown paths to "other".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if len(path) > len(sensorRoutePrefix) && path[:len(sensorRoutePrefix)] == sensorRoutePrefix {
		return sensorRoutePrefix + "{code}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers flush through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
