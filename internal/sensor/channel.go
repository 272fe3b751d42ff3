// Package sensor defines the fixed telemetry channel catalogue and the value
// type carried by each reading.
package sensor

import "fmt"

// Channel identifies one of the fixed telemetry sensor channels.
type Channel uint8

// Declaration order is the emission order of every tick's fan-out.
const (
	// Flight profile
	Acceleration Channel = iota
	Altitude
	Velocity

	// Engine
	ChamberPressure
	ChamberTemperature
	OxidizerPressure
	OxidizerFlowRate
	OxidizerTemperature
	FuelPressure
	FuelFlowRate
	FuelTemperature
	TurboPumpRpm
	Thrust
	SpecificImpulse
	NozzleTemperature

	// GNC
	RollAngle
	PitchAngle
	YawAngle
	RollRate
	PitchRate
	YawRate
	Latitude
	Longitude

	// Vibration
	VibrationX
	VibrationY
	VibrationZ
	VibrationFreq

	// System health, encoded numerically
	MissionPhase
	HealthStatus

	// Count is the number of defined channels.
	Count int = iota
)

// Kind groups channels by subsystem.
type Kind string

const (
	KindFlight    Kind = "flight"
	KindEngine    Kind = "engine"
	KindGNC       Kind = "gnc"
	KindVibration Kind = "vibration"
	KindSystem    Kind = "system"
)

// Info is the static metadata for a channel.
type Info struct {
	Unit string `json:"unit"`
	Code string `json:"code"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

var catalogue = [Count]Info{
	Acceleration:        {Unit: "m/s²", Code: "acc", Name: "acceleration_mps2", Kind: KindFlight},
	Altitude:            {Unit: "meters", Code: "alt", Name: "altitude_m", Kind: KindFlight},
	Velocity:            {Unit: "m/s", Code: "vel", Name: "velocity_m", Kind: KindFlight},
	ChamberPressure:     {Unit: "psi", Code: "cmb_pa", Name: "chamber_pressure_pa", Kind: KindEngine},
	ChamberTemperature:  {Unit: "°C", Code: "cmb_k", Name: "chamber_temp_k", Kind: KindEngine},
	OxidizerPressure:    {Unit: "psi", Code: "ox_pa", Name: "oxidizer_pressure_pa", Kind: KindEngine},
	OxidizerFlowRate:    {Unit: "kg/s", Code: "Ox_f", Name: "OxidizerFlowRate_kgps", Kind: KindEngine},
	OxidizerTemperature: {Unit: "°C", Code: "Ox_k", Name: "OxidizerTemperature_k", Kind: KindEngine},
	FuelPressure:        {Unit: "psi", Code: "F_pa", Name: "FuelPressure_pa", Kind: KindEngine},
	FuelFlowRate:        {Unit: "kg/s", Code: "F_f", Name: "FuelFlowRate_kgps", Kind: KindEngine},
	FuelTemperature:     {Unit: "°C", Code: "F_k", Name: "FuelTemperature_k", Kind: KindEngine},
	TurboPumpRpm:        {Unit: "RPM", Code: "Rpm", Name: "TurboPumpRpm", Kind: KindEngine},
	Thrust:              {Unit: "N", Code: "Trst", Name: "Thrust_n", Kind: KindEngine},
	SpecificImpulse:     {Unit: "s", Code: "SI", Name: "SpecificImpulse_s", Kind: KindEngine},
	NozzleTemperature:   {Unit: "°C", Code: "Nz", Name: "NozzleTemperature_k", Kind: KindEngine},
	RollAngle:           {Unit: "degrees", Code: "RA", Name: "RollAngle_deg", Kind: KindGNC},
	PitchAngle:          {Unit: "degrees", Code: "PA", Name: "PitchAngle_deg", Kind: KindGNC},
	YawAngle:            {Unit: "degrees", Code: "YA", Name: "YawAngle_deg", Kind: KindGNC},
	RollRate:            {Unit: "degrees/s", Code: "RR", Name: "RollRate_dps", Kind: KindGNC},
	PitchRate:           {Unit: "degrees/s", Code: "PR", Name: "PitchRate_dps", Kind: KindGNC},
	YawRate:             {Unit: "degrees/s", Code: "YR", Name: "YawRate_dps", Kind: KindGNC},
	Latitude:            {Unit: "degrees", Code: "Lat", Name: "Latitude_deg", Kind: KindGNC},
	Longitude:           {Unit: "degrees", Code: "Lng", Name: "Longitude_deg", Kind: KindGNC},
	VibrationX:          {Unit: "g", Code: "VbX", Name: "VibrationX_g", Kind: KindVibration},
	VibrationY:          {Unit: "g", Code: "VbY", Name: "VibrationY_g", Kind: KindVibration},
	VibrationZ:          {Unit: "g", Code: "VbZ", Name: "VibrationZ_g", Kind: KindVibration},
	VibrationFreq:       {Unit: "Hz", Code: "Vb_hz", Name: "VibrationFreq_hz", Kind: KindVibration},
	MissionPhase:        {Unit: "phase", Code: "MP", Name: "MissionPhase", Kind: KindSystem},
	HealthStatus:        {Unit: "status", Code: "HS", Name: "HealthStatus", Kind: KindSystem},
}

var (
	all    [Count]Channel
	byCode = make(map[string]Channel, Count)
)

func init() {
	for i := range all {
		all[i] = Channel(i)
		byCode[catalogue[i].Code] = Channel(i)
	}
}

// All returns every channel in declaration order.
func All() []Channel {
	out := make([]Channel, Count)
	copy(out, all[:])
	return out
}

// Lookup resolves a short code such as "cmb_pa" to its channel.
func Lookup(code string) (Channel, bool) {
	c, ok := byCode[code]
	return c, ok
}

// Valid reports whether c is one of the defined channels.
func (c Channel) Valid() bool {
	return int(c) < Count
}

// Info returns the static metadata for c. It panics for undefined channels.
func (c Channel) Info() Info {
	return catalogue[c]
}

// Unit is the display unit, e.g. "psi".
func (c Channel) Unit() string { return catalogue[c].Unit }

// Code is the short code written to the Parquet sensor_type column and the
// line protocol sensor_type tag, e.g. "cmb_pa".
func (c Channel) Code() string { return catalogue[c].Code }

// Name is the long field name, e.g. "chamber_pressure_pa".
func (c Channel) Name() string { return catalogue[c].Name }

// Kind is the subsystem the channel belongs to.
func (c Channel) Kind() Kind { return catalogue[c].Kind }

// String returns the long name, or Channel(n) for undefined channels.
func (c Channel) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
	return catalogue[c].Name
}
