package flight

import "math"

// PhaseID identifies a mission phase. Values are the MissionPhase channel codes.
type PhaseID int

const (
	Ignition PhaseID = iota
	MaxQ
	MainAscent
	StageSeparation
	OrbitalInsertion
)

// String returns the phase name used in logs.
func (id PhaseID) String() string {
	if id < 0 || int(id) >= len(Phases) {
		return "unknown"
	}
	return Phases[id].Name
}

// Phase is a half-open interval [Start, End) of normalized mission progress
// with its own update rule. The final phase also includes End.
type Phase struct {
	ID    PhaseID
	Name  string
	Start float64
	End   float64

	// Update sets the phase's target values and acceleration for progress p.
	// It must not touch velocity or altitude; Advance integrates those.
	Update func(s State, p float64) State
}

// Contains reports whether progress p falls inside the phase.
func (ph Phase) Contains(p float64) bool {
	if p < ph.Start {
		return false
	}
	if ph.End >= 1.0 {
		return p <= ph.End
	}
	return p < ph.End
}

// Phases is the ordered, non-overlapping mission profile.
var Phases = []Phase{
	{ID: Ignition, Name: "ignition", Start: 0, End: 0.05, Update: ignition},
	{ID: MaxQ, Name: "max_q", Start: 0.05, End: 0.15, Update: maxQ},
	{ID: MainAscent, Name: "main_ascent", Start: 0.15, End: 0.40, Update: mainAscent},
	{ID: StageSeparation, Name: "stage_separation", Start: 0.40, End: 0.55, Update: stageSeparation},
	{ID: OrbitalInsertion, Name: "orbital_insertion", Start: 0.55, End: 1.0, Update: orbitalInsertion},
}

// PhaseAt selects the phase containing progress p.
func PhaseAt(p float64) (Phase, bool) {
	for _, ph := range Phases {
		if ph.Contains(p) {
			return ph, true
		}
	}
	return Phase{}, false
}

// Nominal engine ratings.
const (
	maxChamberPressurePa = 5_000_000.0
	maxChamberTempK      = 3500.0
	maxOxidizerFlowKgps  = 250.0
	maxFuelFlowKgps      = 50.0
	maxTurboPumpRPM      = 30_000.0
	maxThrustN           = 1_000_000.0
	maxSpecificImpulseS  = 300.0
	gravity              = 9.81
)

// ignition throttles the engine up over the first 5% of the flight.
// The vehicle holds on the pad for the first 1%.
func ignition(s State, p float64) State {
	throttle := math.Min(p/0.05, 1.0)

	s.ChamberPressurePa = maxChamberPressurePa * throttle
	s.ChamberTemperature = maxChamberTempK * throttle
	s.OxidizerFlowKgps = maxOxidizerFlowKgps * throttle
	s.FuelFlowKgps = maxFuelFlowKgps * throttle
	s.TurboPumpRPM = maxTurboPumpRPM * throttle
	s.ThrustN = maxThrustN * throttle
	s.SpecificImpulseS = maxSpecificImpulseS * throttle
	s.NozzleTempK = maxChamberTempK * throttle

	if p < 0.01 {
		s.AccelerationMPS = 0
	} else {
		s.AccelerationMPS = (p - 0.01) / 0.04 * 15.0
	}

	// Takeoff shake is random and comes from the noise layer.
	s.VibrationXG = 0
	s.VibrationYG = 0
	s.VibrationZG = 0
	s.VibrationFreqHz = 20.0
	return s
}

// maxQ throttles down by up to 20% through peak dynamic pressure and starts
// the gravity turn.
func maxQ(s State, p float64) State {
	frac := (p - 0.05) / 0.10
	q := 1.0 - 0.2*clamp(frac, 0, 1)

	s.ChamberPressurePa = maxChamberPressurePa * q
	s.ThrustN = maxThrustN * q
	s.OxidizerFlowKgps = maxOxidizerFlowKgps * q
	s.FuelFlowKgps = maxFuelFlowKgps * q
	s.AccelerationMPS = 15.0 * q

	s.PitchDeg = 90.0 - 15.0*frac
	s.PitchRateDPS = -0.3

	s.VibrationXG = 1.0 + (1.0-q)*2.0
	s.VibrationYG = 1.0 + (1.0-q)*2.0
	s.VibrationZG = 1.5 + (1.0-q)*3.0
	s.VibrationFreqHz = 80.0 + (1.0-q)*40.0

	s.NozzleTempK = 1500.0 + frac*300.0
	return s
}

// mainAscent runs at full thrust; acceleration grows 1.5x as propellant burns off.
func mainAscent(s State, p float64) State {
	s.ChamberPressurePa = maxChamberPressurePa
	s.ThrustN = maxThrustN
	s.OxidizerFlowKgps = maxOxidizerFlowKgps
	s.FuelFlowKgps = maxFuelFlowKgps

	s.AccelerationMPS = 15.0 * (1.0 + ((p-0.15)/0.25)*0.5)

	s.PitchDeg = 75.0 - 25.0*((p-0.15)/0.3)
	s.PitchRateDPS = -0.1

	vib := 1.0 - ((p - 0.15) / 0.3)
	s.VibrationXG = 0.5 * vib
	s.VibrationYG = 0.5 * vib
	s.VibrationZG = 0.75 * vib
	s.VibrationFreqHz = 60.0
	return s
}

// stageSeparation shuts the first stage down from 45%, coasts with engines
// cut in (0.50, 0.52) and lights the second stage after that.
func stageSeparation(s State, p float64) State {
	shutdown := 1.0 - math.Min((p-0.45)/0.05, 1.0)

	s.ChamberPressurePa = maxChamberPressurePa * shutdown
	s.ThrustN = maxThrustN * shutdown
	s.OxidizerFlowKgps = maxOxidizerFlowKgps * shutdown
	s.FuelFlowKgps = maxFuelFlowKgps * shutdown
	s.TurboPumpRPM = maxTurboPumpRPM * shutdown

	coasting := p > 0.5 && p < 0.52
	if coasting {
		s.ChamberPressurePa = 0
		s.ThrustN = 0
		s.OxidizerFlowKgps = 0
		s.FuelFlowKgps = 0
		s.TurboPumpRPM = 0
		s.Health = HealthCoast
	}

	if p > 0.5 && p < 0.51 {
		// Separation shock.
		s.VibrationXG = 3.0
		s.VibrationYG = 3.0
		s.VibrationZG = 5.0
		s.VibrationFreqHz = 100.0
	} else {
		s.VibrationXG = 0.5 * shutdown
		s.VibrationYG = 0.5 * shutdown
		s.VibrationZG = 0.75 * shutdown
		s.VibrationFreqHz = 40.0 * shutdown
	}

	switch {
	case p < 0.5:
		s.AccelerationMPS = 20.0 * shutdown
	case p < 0.52:
		s.AccelerationMPS = -gravity
	default:
		s.AccelerationMPS = -gravity + ((p-0.52)/0.03)*15.0
	}
	return s
}

// orbitalInsertion burns the second stage and tails off over the last 10%
// of the phase.
func orbitalInsertion(s State, p float64) State {
	stage := (p - 0.55) / 0.45
	startup := math.Min(stage/20.0, 1.0)

	s.ChamberPressurePa = maxChamberPressurePa * startup
	s.ChamberTemperature = maxChamberTempK*startup + 300.0
	s.OxidizerFlowKgps = maxOxidizerFlowKgps * startup
	s.FuelFlowKgps = maxFuelFlowKgps * startup
	s.TurboPumpRPM = maxTurboPumpRPM * startup
	s.ThrustN = 2 * maxThrustN * startup
	s.SpecificImpulseS = maxSpecificImpulseS * startup
	s.AccelerationMPS = 5.0 * startup

	if stage > 0.9 {
		shutdown := 1.0 - ((stage - 0.9) / 0.1)
		s.ChamberPressurePa *= shutdown
		s.ThrustN *= shutdown
		s.OxidizerFlowKgps *= shutdown
		s.FuelFlowKgps *= shutdown
		s.TurboPumpRPM *= shutdown
		s.AccelerationMPS *= shutdown
	}

	// Vacuum: almost no vibration.
	s.VibrationXG = 0.01 * startup
	s.VibrationYG = 0.01 * startup
	s.VibrationZG = 0.03 * startup
	s.VibrationFreqHz = 30.0 * startup

	s.PitchDeg = 50.0 - 40.0*stage
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
