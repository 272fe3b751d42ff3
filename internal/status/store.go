// Package status tracks the state of the current generation run so the
// status server can report it while the pipeline works.
package status

import (
	"sync/atomic"
	"time"
)

// Phase is the coarse stage of a run.
type Phase string

const (
	PhaseGenerating Phase = "generating"
	PhaseExporting  Phase = "exporting"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Run is an immutable snapshot of one run. Stores replace it wholesale.
type Run struct {
	ID         string     `json:"id"`
	LaunchID   string     `json:"launch_id"`
	Phase      Phase      `json:"phase"`
	Step       string     `json:"step,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Ticks         uint64 `json:"ticks"`
	Readings      int    `json:"readings"`
	InfluxBatches int    `json:"influx_batches,omitempty"`
	Committed     int    `json:"influx_committed,omitempty"`

	MetadataPath string `json:"metadata_path,omitempty"`
	ParquetPath  string `json:"parquet_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Store provides thread-safe access to the latest run snapshot.
type Store struct {
	run atomic.Pointer[Run]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil if no run has started.
func (s *Store) Get() *Run {
	return s.run.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(r *Run) {
	s.run.Store(r)
}

// Update applies fn to a copy of the current snapshot and stores the
// result. It is a no-op before the first Set. Only the pipeline writes to
// a store, so there is no compare-and-swap loop.
func (s *Store) Update(fn func(*Run)) {
	cur := s.run.Load()
	if cur == nil {
		return
	}
	next := *cur
	fn(&next)
	s.run.Store(&next)
}

// AgeSeconds returns the time since the current run started.
// Returns -1 if no run has started.
func (s *Store) AgeSeconds() float64 {
	r := s.run.Load()
	if r == nil {
		return -1
	}
	return time.Since(r.StartedAt).Seconds()
}
