// Package noise injects seeded measurement noise and timestamp jitter into
// the deterministic flight state.
//
// A single Stream is owned by one generation session and threaded through
// every call that needs randomness. Same seed and same call order give the
// same output.
package noise

import "math/rand/v2"

// Second PCG word; fixed so a run is fully described by its seed.
const streamSalt = 0x9e3779b97f4a7c15

// Stream is a seeded pseudo-random source. Not safe for concurrent use.
type Stream struct {
	src   *rand.PCG
	rnd   *rand.Rand
	draws uint64
}

// NewStream returns a stream seeded from seed.
func NewStream(seed uint64) *Stream {
	s := &Stream{src: rand.NewPCG(seed, streamSalt)}
	s.rnd = rand.New(s)
	return s
}

// Uint64 implements rand.Source. Every draw goes through it so Draws counts
// raw values.
func (s *Stream) Uint64() uint64 {
	s.draws++
	return s.src.Uint64()
}

// Draws returns how many raw 64-bit values have been consumed.
func (s *Stream) Draws() uint64 { return s.draws }

// Normal draws from N(0, std²).
func (s *Stream) Normal(std float64) float64 {
	return s.rnd.NormFloat64() * std
}

// Uniform draws from [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return s.rnd.Float64()*(hi-lo) + lo
}

// Float64 draws from [0, 1).
func (s *Stream) Float64() float64 {
	return s.Uniform(0, 1)
}
