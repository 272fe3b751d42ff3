// Package flight advances the simulated vehicle state through the mission
// phases. Everything here is deterministic; randomness is layered on top by
// the noise package.
package flight

// Health codes reported on the HealthStatus channel.
const (
	HealthNominal = 0
	HealthCoast   = 1 // engines cut during stage separation
)

// State is the physical state of the vehicle at one tick.
type State struct {
	Phase  PhaseID
	Health int

	AltitudeM       float64
	VelocityMPS     float64
	AccelerationMPS float64

	ChamberPressurePa  float64
	ChamberTemperature float64 // K
	OxidizerFlowKgps   float64
	OxidizerPressurePa float64
	OxidizerTempK      float64
	FuelFlowKgps       float64
	FuelPressurePa     float64
	FuelTempK          float64
	TurboPumpRPM       float64
	ThrustN            float64
	SpecificImpulseS   float64
	NozzleTempK        float64

	RollDeg      float64
	PitchDeg     float64
	YawDeg       float64
	RollRateDPS  float64
	PitchRateDPS float64
	YawRateDPS   float64
	LatitudeDeg  float64
	LongitudeDeg float64

	VibrationXG     float64
	VibrationYG     float64
	VibrationZG     float64
	VibrationFreqHz float64
}

// Launch site: Cape Canaveral.
const (
	launchLatitude  = 28.5721
	launchLongitude = -80.648
	ambientTempK    = 288.15
	ambientPressure = 101_325.0
)

// InitialState returns the vehicle on the pad before ignition.
func InitialState() State {
	return State{
		Phase:              Ignition,
		Health:             HealthNominal,
		ChamberTemperature: ambientTempK,
		OxidizerPressurePa: ambientPressure,
		OxidizerTempK:      ambientTempK,
		FuelPressurePa:     ambientPressure,
		FuelTempK:          ambientTempK,
		NozzleTempK:        ambientTempK,
		RollDeg:            0.0001,
		PitchDeg:           0.0001,
		YawDeg:             0.0001,
		LatitudeDeg:        launchLatitude,
		LongitudeDeg:       launchLongitude,
	}
}
