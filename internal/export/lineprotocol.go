package export

import (
	"fmt"
	"strings"

	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/star/telemetrygen/internal/sensor"
	"github.com/star/telemetrygen/internal/telemetry"
)

// DefaultMeasurement is the measurement every reading is written under.
const DefaultMeasurement = "rocket_telemetry"

// Line protocol tag and field keys.
const (
	tagLaunchID   = "launch_id"
	tagSensorType = "sensor_type"
	fieldValue    = "value"
	fieldElapsed  = "time_since_launch_ms"
)

// LineEncoder turns readings into InfluxDB line protocol with microsecond
// timestamps. It reuses one buffer and is not safe for concurrent use.
type LineEncoder struct {
	measurement string
	launchID    string
	enc         lineprotocol.Encoder
}

// NewLineEncoder returns an encoder for one run.
func NewLineEncoder(measurement, launchID string) *LineEncoder {
	e := &LineEncoder{measurement: measurement, launchID: launchID}
	e.enc.SetPrecision(lineprotocol.Microsecond)
	return e
}

// Encode returns the line for r without a trailing newline.
func (e *LineEncoder) Encode(r telemetry.Reading) (string, error) {
	e.enc.Reset()
	e.enc.StartLine(e.measurement)
	// Tags must be added in lexical key order.
	e.enc.AddTag(tagLaunchID, e.launchID)
	e.enc.AddTag(tagSensorType, r.Channel.Code())

	v, err := fieldFor(r.Value)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", r.Channel.Name(), err)
	}
	e.enc.AddField(fieldElapsed, lineprotocol.UintValue(r.ElapsedMS))
	e.enc.AddField(fieldValue, v)
	e.enc.EndLine(r.Timestamp)

	if err := e.enc.Err(); err != nil {
		return "", fmt.Errorf("encode %s: %w", r.Channel.Name(), err)
	}
	return strings.TrimSuffix(string(e.enc.Bytes()), "\n"), nil
}

func fieldFor(v sensor.Value) (lineprotocol.Value, error) {
	if f, ok := v.Float64(); ok {
		lv, ok := lineprotocol.FloatValue(f)
		if !ok {
			return lineprotocol.Value{}, fmt.Errorf("value %v cannot be represented in line protocol", f)
		}
		return lv, nil
	}
	s, _ := v.Text()
	lv, ok := lineprotocol.StringValue(s)
	if !ok {
		return lineprotocol.Value{}, fmt.Errorf("text value %q is not valid utf-8", s)
	}
	return lv, nil
}
