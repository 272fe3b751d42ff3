// Package export writes a generated dataset to files and to InfluxDB.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/star/telemetrygen/internal/telemetry"
)

// Vehicle and engine recorded in the metadata file by default.
const (
	DefaultVehicleType = "Kerbal"
	DefaultEngineType  = "Narwhal"
)

var metadataHeader = []string{
	"launch_id",
	"launch_time",
	"time_since_launch_ms",
	"vehicle_type",
	"engine_type",
	"sample_rate_hz",
}

// CSVMetadata writes the one-row run summary file.
type CSVMetadata struct {
	Dir         string
	VehicleType string
	EngineType  string
}

// NewCSVMetadata returns a metadata exporter writing into dir.
func NewCSVMetadata(dir string) *CSVMetadata {
	return &CSVMetadata{
		Dir:         dir,
		VehicleType: DefaultVehicleType,
		EngineType:  DefaultEngineType,
	}
}

// Path returns the file the exporter writes for name.
func (e *CSVMetadata) Path(name string) string {
	return filepath.Join(e.Dir, name+".metadata.csv")
}

// Export writes <dir>/<name>.metadata.csv and returns its path. An empty
// dataset produces a header-only file.
func (e *CSVMetadata) Export(ds *telemetry.Dataset, name string) (string, error) {
	path := e.Path(name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create metadata file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(metadataHeader); err != nil {
		return "", fmt.Errorf("write metadata header %s: %w", path, err)
	}

	if first, ok := ds.First(); ok {
		row := []string{
			ds.Config.LaunchID,
			ds.LaunchTime.UTC().Format(time.RFC3339Nano),
			strconv.FormatUint(first.ElapsedMS, 10),
			e.VehicleType,
			e.EngineType,
			strconv.FormatUint(ds.Config.SampleRateHz, 10),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write metadata row %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush metadata file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close metadata file %s: %w", path, err)
	}
	return path, nil
}
