package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/star/telemetrygen/internal/auth"
	"github.com/star/telemetrygen/internal/sensor"
	"github.com/star/telemetrygen/internal/status"
	"github.com/star/telemetrygen/internal/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestSensorsEndpoint(t *testing.T) {
	h := NewHandler(Config{}, testLogger(), status.NewStore())

	req := httptest.NewRequest("GET", "/api/v1/sensors", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp SensorsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != sensor.Count || len(resp.Sensors) != sensor.Count {
		t.Fatalf("count = %d (%d entries), want %d", resp.Count, len(resp.Sensors), sensor.Count)
	}
	for i, s := range resp.Sensors {
		if s.Index != i {
			t.Errorf("sensor %d has index %d", i, s.Index)
		}
		if s.Code == "" || s.Name == "" || s.Unit == "" {
			t.Errorf("sensor %d has empty metadata: %+v", i, s)
		}
	}
}

func TestSensorEndpoint(t *testing.T) {
	h := NewHandler(Config{}, testLogger(), status.NewStore())

	tests := []struct {
		name       string
		code       string
		wantStatus int
		wantName   string
	}{
		{"thrust", "Trst", http.StatusOK, "Thrust_n"},
		{"chamber pressure", "cmb_pa", http.StatusOK, "chamber_pressure_pa"},
		{"unknown", "nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sensors/"+tt.code, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp map[string]any
			json.NewDecoder(w.Body).Decode(&resp)
			if tt.wantStatus != http.StatusOK {
				if resp["error"] == nil {
					t.Error("expected error field in response")
				}
				return
			}
			if resp["name"] != tt.wantName {
				t.Errorf("name = %v, want %s", resp["name"], tt.wantName)
			}
		})
	}
}

func TestRunEndpointAndReadiness(t *testing.T) {
	store := status.NewStore()
	h := NewHandler(Config{}, testLogger(), store)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		return w
	}

	if w := get("/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before run = %d, want 503", w.Code)
	}
	if w := get("/api/v1/run"); w.Code != http.StatusNotFound {
		t.Errorf("run before start = %d, want 404", w.Code)
	}

	store.Set(&status.Run{ID: "r1", LaunchID: "SIM-001", Phase: status.PhaseGenerating, StartedAt: time.Now()})

	if w := get("/readyz"); w.Code != http.StatusOK {
		t.Errorf("readyz after run = %d, want 200", w.Code)
	}
	w := get("/api/v1/run")
	if w.Code != http.StatusOK {
		t.Fatalf("run = %d, want 200", w.Code)
	}
	var run status.Run
	if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != "r1" || run.Phase != status.PhaseGenerating {
		t.Errorf("run = %+v", run)
	}
}

func TestRunEndpointRequiresToken(t *testing.T) {
	store := status.NewStore()
	store.Set(&status.Run{ID: "r1", Phase: status.PhaseDone})
	h := NewHandler(Config{Auth: auth.Config{Enabled: true, Token: "secret"}}, testLogger(), store)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/run", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestClient(t *testing.T) {
	store := status.NewStore()
	store.Set(&status.Run{ID: "r1", LaunchID: "SIM-001", Phase: status.PhaseDone, Readings: 290})
	srv := httptest.NewServer(NewHandler(Config{Auth: auth.Config{Enabled: true, Token: "secret"}}, testLogger(), store))
	defer srv.Close()

	run, err := NewClient(srv.URL+"/", "secret").Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ID != "r1" || run.Readings != 290 {
		t.Errorf("run = %+v", run)
	}

	sensors, err := NewClient(srv.URL, "").Sensors(context.Background())
	if err != nil {
		t.Fatalf("Sensors: %v", err)
	}
	if sensors.Count != sensor.Count {
		t.Errorf("count = %d, want %d", sensors.Count, sensor.Count)
	}

	if _, err := NewClient(srv.URL, "wrong").Run(context.Background()); err == nil {
		t.Error("expected unauthorized error")
	}
}

func TestClientFollow(t *testing.T) {
	store := status.NewStore()
	store.Set(&status.Run{ID: "r1", Phase: status.PhaseGenerating})
	cfg := Config{Stream: stream.Config{
		MaxConcurrentPerIP: 2,
		PollInterval:       10 * time.Millisecond,
		KeepaliveInterval:  time.Second,
	}}
	srv := httptest.NewServer(NewHandler(cfg, testLogger(), store))
	defer srv.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		store.Update(func(r *status.Run) { r.Phase = status.PhaseDone; r.Readings = 290 })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var phases []status.Phase
	err := NewClient(srv.URL, "").Follow(ctx, func(r *status.Run) {
		phases = append(phases, r.Phase)
	})
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(phases) != 2 || phases[0] != status.PhaseGenerating || phases[1] != status.PhaseDone {
		t.Errorf("phases = %v, want [generating done]", phases)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff, xri   string
		remoteAddr string
		trustProxy bool
		want       string
	}{
		{"remote addr", "", "", "192.168.1.1:12345", false, "192.168.1.1"},
		{"ipv6", "", "", "[::1]:12345", false, "::1"},
		{"no port", "", "", "192.168.1.1", false, "192.168.1.1"},
		{"xff ignored without trust", "1.2.3.4", "", "10.0.0.1:1234", false, "10.0.0.1"},
		{"xff first entry", "1.2.3.4, 10.0.0.1", "", "10.0.0.3:1234", true, "1.2.3.4"},
		{"x-real-ip fallback", "", "5.6.7.8", "10.0.0.1:1234", true, "5.6.7.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: tt.remoteAddr, Header: http.Header{}}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
