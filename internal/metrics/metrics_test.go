package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/sensors", "/api/v1/sensors"},
		{"/api/v1/run", "/api/v1/run"},
		{"/api/v1/run/stream", "/api/v1/run/stream"},

		// Per-sensor lookups collapse to one label.
		{"/api/v1/sensors/Trst", "/api/v1/sensors/{code}"},
		{"/api/v1/sensors/cmb_pa", "/api/v1/sensors/{code}"},

		// Unknown/bot paths collapse to "other".
		{"/api/v1/sensors/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 distinct sensor codes produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		label := normalizeRoute("/api/v1/sensors/" + string(rune('a'+i%26)) + string(rune('0'+i/26)))
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestRecordGeneration(t *testing.T) {
	before := testutil.ToFloat64(readingsGeneratedTotal)

	RecordGeneration(290, 10*time.Millisecond)

	if got := testutil.ToFloat64(readingsGeneratedTotal) - before; got != 290 {
		t.Errorf("readings counter delta = %v, want 290", got)
	}
	if got := testutil.ToFloat64(lastRunReadings); got != 290 {
		t.Errorf("last run gauge = %v, want 290", got)
	}
}

func TestRecordExportCountsErrors(t *testing.T) {
	before := testutil.ToFloat64(exportErrorsTotal.WithLabelValues("parquet"))

	RecordExport("parquet", time.Millisecond, nil)
	RecordExport("parquet", time.Millisecond, errors.New("disk full"))

	if got := testutil.ToFloat64(exportErrorsTotal.WithLabelValues("parquet")) - before; got != 1 {
		t.Errorf("export errors delta = %v, want 1", got)
	}
}

func TestRecordInfluxBatch(t *testing.T) {
	okBefore := testutil.ToFloat64(influxBatchesTotal.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(influxBatchesTotal.WithLabelValues("failure"))

	RecordInfluxBatch(true)
	RecordInfluxBatch(true)
	RecordInfluxBatch(false)

	if got := testutil.ToFloat64(influxBatchesTotal.WithLabelValues("success")) - okBefore; got != 2 {
		t.Errorf("success delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(influxBatchesTotal.WithLabelValues("failure")) - failBefore; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestMiddlewareUsesNormalizedLabel(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "404"))

	req := httptest.NewRequest("GET", "/does/not/exist", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "404")) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}
}
