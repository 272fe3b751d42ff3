package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCatalogueComplete verifies every channel has metadata and a unique code.
func TestCatalogueComplete(t *testing.T) {
	require.Equal(t, 29, Count)

	channels := All()
	require.Len(t, channels, Count)

	codes := make(map[string]Channel)
	names := make(map[string]Channel)
	for i, c := range channels {
		assert.Equal(t, Channel(i), c, "declaration order")
		assert.True(t, c.Valid())
		assert.NotEmpty(t, c.Unit(), "unit for %d", i)
		assert.NotEmpty(t, c.Code(), "code for %d", i)
		assert.NotEmpty(t, c.Name(), "name for %d", i)
		assert.NotEmpty(t, c.Kind(), "kind for %d", i)

		if prev, dup := codes[c.Code()]; dup {
			t.Errorf("code %q shared by %v and %v", c.Code(), prev, c)
		}
		codes[c.Code()] = c
		if prev, dup := names[c.Name()]; dup {
			t.Errorf("name %q shared by %v and %v", c.Name(), prev, c)
		}
		names[c.Name()] = c
	}
}

func TestChannelMetadata(t *testing.T) {
	tests := []struct {
		ch   Channel
		unit string
		code string
		name string
	}{
		{Acceleration, "m/s²", "acc", "acceleration_mps2"},
		{ChamberPressure, "psi", "cmb_pa", "chamber_pressure_pa"},
		{Thrust, "N", "Trst", "Thrust_n"},
		{TurboPumpRpm, "RPM", "Rpm", "TurboPumpRpm"},
		{Latitude, "degrees", "Lat", "Latitude_deg"},
		{YawRate, "degrees/s", "YR", "YawRate_dps"},
		{VibrationFreq, "Hz", "Vb_hz", "VibrationFreq_hz"},
		{MissionPhase, "phase", "MP", "MissionPhase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unit, tt.ch.Unit())
			assert.Equal(t, tt.code, tt.ch.Code())
			assert.Equal(t, tt.name, tt.ch.Name())
			assert.Equal(t, tt.name, tt.ch.String())
		})
	}
}

func TestLookup(t *testing.T) {
	for _, c := range All() {
		got, ok := Lookup(c.Code())
		require.True(t, ok, "lookup %q", c.Code())
		assert.Equal(t, c, got)
	}

	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0] = VibrationZ
	assert.Equal(t, Acceleration, All()[0])
}

func TestInvalidChannelString(t *testing.T) {
	c := Channel(200)
	assert.False(t, c.Valid())
	assert.Equal(t, "Channel(200)", c.String())
}

func TestValueVariants(t *testing.T) {
	f := Float(3.25)
	v, ok := f.Float64()
	assert.True(t, ok)
	assert.Equal(t, 3.25, v)
	_, ok = f.Text()
	assert.False(t, ok)
	assert.Equal(t, KindFloat, f.Kind())
	assert.Equal(t, "3.25", f.String())

	s := Text("nominal")
	txt, ok := s.Text()
	assert.True(t, ok)
	assert.Equal(t, "nominal", txt)
	_, ok = s.Float64()
	assert.False(t, ok)
	assert.Equal(t, KindText, s.Kind())
	assert.Equal(t, "text", s.Kind().String())

	var zero Value
	assert.Equal(t, KindFloat, zero.Kind())
}
