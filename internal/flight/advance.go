package flight

import "math"

// Physical floors applied after every phase update.
const (
	MinChamberTempK = 273.0
	// MinTurboPumpRPM only forbids negative speeds. An earlier model pinned
	// the pump at 1,000,000 RPM, above anything a phase produces.
	MinTurboPumpRPM = 0.0
)

// Horizontal motion starts once the vehicle clears the tower.
const (
	clearanceAltitudeM = 100.0
	earthRadiusM       = 6_371_000.0
)

// Progress returns the normalized mission progress of a tick.
func Progress(tick, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(tick) / float64(total)
}

// Advance returns the state after one tick of dt seconds. It consumes no
// randomness, so identical inputs always produce identical outputs.
func Advance(s State, tick, total int, dt float64) State {
	p := Progress(tick, total)

	s.Health = HealthNominal
	if ph, ok := PhaseAt(p); ok {
		s = ph.Update(s, p)
		s.Phase = ph.ID
	}

	// Explicit Euler.
	s.VelocityMPS += s.AccelerationMPS * dt
	s.AltitudeM += s.VelocityMPS * dt

	s = applyFloors(s)
	return updatePosition(s, dt)
}

func applyFloors(s State) State {
	s.ChamberPressurePa = math.Max(s.ChamberPressurePa, 0)
	s.ChamberTemperature = math.Max(s.ChamberTemperature, MinChamberTempK)
	s.ThrustN = math.Max(s.ThrustN, 0)
	s.OxidizerFlowKgps = math.Max(s.OxidizerFlowKgps, 0)
	s.FuelFlowKgps = math.Max(s.FuelFlowKgps, 0)
	s.OxidizerPressurePa = math.Max(s.OxidizerPressurePa, 0)
	s.FuelPressurePa = math.Max(s.FuelPressurePa, 0)
	s.TurboPumpRPM = math.Max(s.TurboPumpRPM, MinTurboPumpRPM)
	return s
}

// updatePosition moves lat/lon along the yaw heading using a flat-Earth
// approximation once the vehicle is above the clearance altitude and pitched
// over from vertical.
func updatePosition(s State, dt float64) State {
	if s.AltitudeM <= clearanceAltitudeM || s.PitchDeg >= 90.0 {
		return s
	}

	distance := s.VelocityMPS * dt
	horizontal := distance * math.Cos(radians(s.PitchDeg))
	heading := radians(s.YawDeg)
	metersPerDegree := earthRadiusM * math.Pi / 180.0

	s.LatitudeDeg += horizontal * math.Cos(heading) / metersPerDegree
	s.LongitudeDeg += horizontal * math.Sin(heading) / (metersPerDegree * math.Cos(radians(s.LatitudeDeg)))
	return s
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
