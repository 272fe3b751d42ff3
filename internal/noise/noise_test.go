package noise

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/star/telemetrygen/internal/flight"
	"github.com/star/telemetrygen/internal/sensor"
)

func TestStreamReproducible(t *testing.T) {
	a, b := NewStream(42), NewStream(42)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Normal(3), b.Normal(3), "draw %d", i)
		require.Equal(t, a.Uniform(-1, 1), b.Uniform(-1, 1), "draw %d", i)
	}
	assert.Equal(t, a.Draws(), b.Draws())
}

// TestStreamMatchesDistuv pins the draw sequence to gonum's distributions
// over the same PCG source, so reruns of old seeds reproduce old datasets.
func TestStreamMatchesDistuv(t *testing.T) {
	s := NewStream(1337)
	src := rand.NewPCG(1337, streamSalt)
	for i := 0; i < 1000; i++ {
		require.Equal(t, distuv.Normal{Mu: 0, Sigma: 1000, Src: src}.Rand(), s.Normal(1000), "draw %d", i)
		require.Equal(t, distuv.Uniform{Min: -50, Max: 50, Src: src}.Rand(), s.Uniform(-50, 50), "draw %d", i)
	}
}

func TestStreamDrawsDoNotAllocate(t *testing.T) {
	s := NewStream(1)
	allocs := testing.AllocsPerRun(1000, func() {
		s.Normal(1)
		s.Uniform(-1, 1)
	})
	assert.Zero(t, allocs)
}

func TestStreamSeedsDiffer(t *testing.T) {
	a, b := NewStream(1), NewStream(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 100)
}

func TestUniformRange(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 10_000; i++ {
		v := s.Uniform(-10, 100)
		require.GreaterOrEqual(t, v, -10.0)
		require.Less(t, v, 100.0)
	}
}

func TestDrawReproducible(t *testing.T) {
	a, b := NewStream(1337), NewStream(1337)
	for i := 0; i < 100; i++ {
		require.Equal(t, Draw(a), Draw(b))
	}
}

// TestCorrelatedChannels verifies the channels that share a draw move together.
func TestCorrelatedChannels(t *testing.T) {
	st := flight.InitialState()
	st.Phase = flight.MainAscent
	st.ChamberPressurePa = 5_000_000
	n := Draw(NewStream(99))

	delta := func(ch sensor.Channel, base float64) float64 {
		return Value(ch, st, n) - base
	}

	chamber := delta(sensor.ChamberPressure, st.ChamberPressurePa)
	assert.InDelta(t, chamber, delta(sensor.OxidizerPressure, st.OxidizerPressurePa), 1e-6)
	assert.InDelta(t, chamber, delta(sensor.FuelPressure, st.FuelPressurePa), 1e-6)
	assert.InDelta(t, n.Pressure*0.5, chamber, 1e-6)

	assert.Equal(t, n.Flow, delta(sensor.OxidizerFlowRate, st.OxidizerFlowKgps))
	assert.Equal(t, n.Flow, delta(sensor.FuelFlowRate, st.FuelFlowKgps))

	assert.InDelta(t, n.Temperature*0.2, delta(sensor.ChamberTemperature, st.ChamberTemperature), 1e-12)
	assert.InDelta(t, n.Temperature, delta(sensor.FuelTemperature, st.FuelTempK), 1e-12)

	assert.InDelta(t, n.Pitch, delta(sensor.Latitude, st.LatitudeDeg), 1e-12)
	assert.InDelta(t, n.Pitch, delta(sensor.PitchAngle, st.PitchDeg), 1e-12)
	assert.InDelta(t, n.Roll, delta(sensor.Longitude, st.LongitudeDeg), 1e-12)
}

func TestNoiselessChannels(t *testing.T) {
	st := flight.InitialState()
	st.AccelerationMPS = 12
	st.VelocityMPS = 300
	st.PitchRateDPS = -0.3
	st.Phase = flight.StageSeparation
	st.Health = flight.HealthCoast
	n := Draw(NewStream(5))

	assert.Equal(t, 12.0, Value(sensor.Acceleration, st, n))
	assert.Equal(t, 300.0, Value(sensor.Velocity, st, n))
	assert.Equal(t, -0.3, Value(sensor.PitchRate, st, n))
	assert.Equal(t, float64(flight.StageSeparation), Value(sensor.MissionPhase, st, n))
	assert.Equal(t, float64(flight.HealthCoast), Value(sensor.HealthStatus, st, n))
}

func TestTakeoffShakeOnlyDuringIgnition(t *testing.T) {
	n := Draw(NewStream(11))

	st := flight.InitialState()
	st.Phase = flight.Ignition
	assert.InDelta(t, n.ShakeZ+n.VibrationZ, Value(sensor.VibrationZ, st, n), 1e-12)

	st.Phase = flight.MaxQ
	assert.InDelta(t, n.VibrationZ, Value(sensor.VibrationZ, st, n), 1e-12)
}

func TestJitterZeroStd(t *testing.T) {
	s := NewStream(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	before := s.Draws()

	got := Jitter{StdDevUS: 0}.Apply(base, s)
	assert.True(t, got.Equal(base))
	assert.Greater(t, s.Draws(), before, "a draw is consumed regardless of std")
}

func TestJitterWholeMicroseconds(t *testing.T) {
	s := NewStream(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	j := Jitter{StdDevUS: 50}

	distinct := map[time.Time]bool{}
	for i := 0; i < 29; i++ {
		got := j.Apply(base, s)
		d := got.Sub(base)
		require.Zero(t, d%time.Microsecond, "jitter %v not whole microseconds", d)
		require.Less(t, d.Abs(), time.Second)
		distinct[got] = true
	}
	assert.Greater(t, len(distinct), 1, "per-reading jitter should not collapse to one timestamp")
}
