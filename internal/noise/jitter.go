package noise

import (
	"math"
	"time"
)

// Jitter perturbs reading timestamps with zero-mean Gaussian noise.
// It is applied per reading, so readings from the same tick usually carry
// different timestamps.
type Jitter struct {
	StdDevUS float64
}

// Apply returns base shifted by a whole number of microseconds. A draw is
// consumed even when StdDevUS is zero so the stream layout does not depend
// on the jitter setting.
func (j Jitter) Apply(base time.Time, s *Stream) time.Time {
	us := math.Round(s.Normal(j.StdDevUS))
	return base.Add(time.Duration(us) * time.Microsecond)
}
