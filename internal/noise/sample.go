package noise

import (
	"github.com/star/telemetrygen/internal/flight"
	"github.com/star/telemetrygen/internal/sensor"
)

// Standard deviations of the Gaussian noise families.
const (
	PressureStd    = 1000.0
	TemperatureStd = 1.0
	FlowStd        = 0.1
	VibrationStd   = 0.01
	AltitudeStd    = 0.01
)

// Sample is the fixed set of noise values drawn once per tick. Several
// channels share a draw on purpose: chamber, oxidizer and fuel pressure
// move together, as do latitude/pitch and longitude/roll.
type Sample struct {
	Altitude    float64
	Pressure    float64
	Temperature float64
	Flow        float64
	VibrationX  float64
	VibrationY  float64
	VibrationZ  float64

	TurboPump     float64
	Thrust        float64
	Isp           float64
	Nozzle        float64
	Roll          float64
	Pitch         float64
	Yaw           float64
	VibrationFreq float64

	// Takeoff shake, only applied to ignition-phase states.
	ShakeX    float64
	ShakeY    float64
	ShakeZ    float64
	ShakeFreq float64
}

// Draw takes the next per-tick sample from the stream. The order of draws
// is part of the reproducibility contract; do not reorder.
func Draw(s *Stream) Sample {
	var n Sample
	n.Altitude = s.Normal(AltitudeStd)
	n.Pressure = s.Normal(PressureStd)
	n.Temperature = s.Normal(TemperatureStd)
	n.Flow = s.Normal(FlowStd)
	n.VibrationX = s.Normal(VibrationStd)
	n.VibrationY = s.Normal(VibrationStd)
	n.VibrationZ = s.Normal(VibrationStd)

	n.TurboPump = s.Uniform(-50, 50)
	n.Thrust = s.Uniform(-10, 100)
	n.Isp = s.Uniform(-0.5, 0.5)
	n.Nozzle = s.Normal(TemperatureStd) * 2.0
	n.Roll = s.Uniform(-0.5, 0.5)
	n.Pitch = s.Uniform(-0.5, 0.5)
	n.Yaw = s.Uniform(-0.5, 0.5)
	n.VibrationFreq = s.Uniform(-5, 5)

	n.ShakeX = 0.05 * s.Float64()
	n.ShakeY = 0.05 * s.Float64()
	n.ShakeZ = 0.1 * s.Float64()
	n.ShakeFreq = 5.0 * s.Float64()
	return n
}

type deriveFunc func(st flight.State, n Sample) float64

var derive = [sensor.Count]deriveFunc{
	sensor.Acceleration:        func(st flight.State, _ Sample) float64 { return st.AccelerationMPS },
	sensor.Altitude:            func(st flight.State, n Sample) float64 { return st.AltitudeM + n.Altitude },
	sensor.Velocity:            func(st flight.State, _ Sample) float64 { return st.VelocityMPS },
	sensor.ChamberPressure:     func(st flight.State, n Sample) float64 { return st.ChamberPressurePa + n.Pressure*0.5 },
	sensor.ChamberTemperature:  func(st flight.State, n Sample) float64 { return st.ChamberTemperature + n.Temperature*0.2 },
	sensor.OxidizerPressure:    func(st flight.State, n Sample) float64 { return st.OxidizerPressurePa + n.Pressure*0.5 },
	sensor.OxidizerFlowRate:    func(st flight.State, n Sample) float64 { return st.OxidizerFlowKgps + n.Flow },
	sensor.OxidizerTemperature: func(st flight.State, n Sample) float64 { return st.OxidizerTempK + n.Temperature*0.2 },
	sensor.FuelPressure:        func(st flight.State, n Sample) float64 { return st.FuelPressurePa + n.Pressure*0.5 },
	sensor.FuelFlowRate:        func(st flight.State, n Sample) float64 { return st.FuelFlowKgps + n.Flow },
	sensor.FuelTemperature:     func(st flight.State, n Sample) float64 { return st.FuelTempK + n.Temperature },
	sensor.TurboPumpRpm:        func(st flight.State, n Sample) float64 { return st.TurboPumpRPM + n.TurboPump },
	sensor.Thrust:              func(st flight.State, n Sample) float64 { return st.ThrustN + n.Thrust },
	sensor.SpecificImpulse:     func(st flight.State, n Sample) float64 { return st.SpecificImpulseS + n.Isp },
	sensor.NozzleTemperature:   func(st flight.State, n Sample) float64 { return st.NozzleTempK + n.Nozzle },
	sensor.RollAngle:           func(st flight.State, n Sample) float64 { return st.RollDeg + n.Roll },
	sensor.PitchAngle:          func(st flight.State, n Sample) float64 { return st.PitchDeg + n.Pitch },
	sensor.YawAngle:            func(st flight.State, n Sample) float64 { return st.YawDeg + n.Yaw },
	sensor.RollRate:            func(st flight.State, _ Sample) float64 { return st.RollRateDPS },
	sensor.PitchRate:           func(st flight.State, _ Sample) float64 { return st.PitchRateDPS },
	sensor.YawRate:             func(st flight.State, _ Sample) float64 { return st.YawRateDPS },
	sensor.Latitude:            func(st flight.State, n Sample) float64 { return st.LatitudeDeg + n.Pitch },
	sensor.Longitude:           func(st flight.State, n Sample) float64 { return st.LongitudeDeg + n.Roll },
	sensor.VibrationX:          func(st flight.State, n Sample) float64 { return st.VibrationXG + n.shake(st, n.ShakeX) + n.VibrationX },
	sensor.VibrationY:          func(st flight.State, n Sample) float64 { return st.VibrationYG + n.shake(st, n.ShakeY) + n.VibrationY },
	sensor.VibrationZ:          func(st flight.State, n Sample) float64 { return st.VibrationZG + n.shake(st, n.ShakeZ) + n.VibrationZ },
	sensor.VibrationFreq: func(st flight.State, n Sample) float64 {
		return st.VibrationFreqHz + n.shake(st, n.ShakeFreq) + n.VibrationFreq
	},
	sensor.MissionPhase: func(st flight.State, _ Sample) float64 { return float64(st.Phase) },
	sensor.HealthStatus: func(st flight.State, _ Sample) float64 { return float64(st.Health) },
}

func (n Sample) shake(st flight.State, v float64) float64 {
	if st.Phase != flight.Ignition {
		return 0
	}
	return v
}

// Value returns the noisy reading of channel ch for state st.
func Value(ch sensor.Channel, st flight.State, n Sample) float64 {
	return derive[ch](st, n)
}
