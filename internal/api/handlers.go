package api

import (
	"encoding/json"
	"net/http"

	"github.com/star/telemetrygen/internal/sensor"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// SensorInfo is one catalogue entry as served by /api/v1/sensors.
type SensorInfo struct {
	Index int `json:"index"`
	sensor.Info
}

func sensorInfo(ch sensor.Channel) SensorInfo {
	return SensorInfo{Index: int(ch), Info: ch.Info()}
}

// SensorsResponse is the body of GET /api/v1/sensors.
type SensorsResponse struct {
	Count   int          `json:"count"`
	Sensors []SensorInfo `json:"sensors"`
}

func sensorsHandler(w http.ResponseWriter, r *http.Request) {
	all := sensor.All()
	resp := SensorsResponse{Count: len(all), Sensors: make([]SensorInfo, 0, len(all))}
	for _, ch := range all {
		resp.Sensors = append(resp.Sensors, sensorInfo(ch))
	}
	writeJSON(w, http.StatusOK, resp)
}

func sensorHandler(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	ch, ok := sensor.Lookup(code)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown sensor code: "+code)
		return
	}
	writeJSON(w, http.StatusOK, sensorInfo(ch))
}
