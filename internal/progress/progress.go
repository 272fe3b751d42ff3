// Package progress reports coarse progress of long-running loops. Reporting
// is observational only: nothing it does may affect the data being produced.
package progress

import (
	"io"
	"time"

	"github.com/cheggaaa/pb"
)

// Reporter starts a Tracker for one unit of work.
type Reporter interface {
	Track(label string, total int64) Tracker
}

// Tracker receives position updates for a unit of work. Callers defer
// Stop right after Track so error paths release the tracker; Stop after
// Finish does nothing.
type Tracker interface {
	Set(n int64)
	Finish(msg string)
	Stop()
}

// Noop discards all progress.
type Noop struct{}

// Track returns a tracker that ignores every update.
func (Noop) Track(string, int64) Tracker { return noopTracker{} }

type noopTracker struct{}

func (noopTracker) Set(int64)     {}
func (noopTracker) Finish(string) {}
func (noopTracker) Stop()         {}

// Bars renders terminal progress bars.
type Bars struct {
	out io.Writer
}

// NewBars returns a Reporter that draws bars on out (usually stderr).
func NewBars(out io.Writer) *Bars {
	return &Bars{out: out}
}

// Track starts a bar labelled label with total steps. The bar refreshes
// in the background until the tracker is finished or stopped.
func (b *Bars) Track(label string, total int64) Tracker {
	bar := pb.New64(total)
	bar.Output = b.out
	bar.ShowSpeed = true
	bar.SetRefreshRate(200 * time.Millisecond)
	bar.Prefix(label + " ")
	bar.Start()
	return &barTracker{bar: bar}
}

type barTracker struct {
	bar  *pb.ProgressBar
	done bool
}

func (t *barTracker) Set(n int64) { t.bar.Set64(n) }

func (t *barTracker) Finish(msg string) {
	if t.done {
		return
	}
	t.done = true
	t.bar.Set64(t.bar.Total)
	t.bar.FinishPrint(msg)
}

// Stop halts the refresh loop and leaves the bar where it is.
func (t *barTracker) Stop() {
	if t.done {
		return
	}
	t.done = true
	t.bar.Finish()
}

// New returns Bars on out, or Noop when disabled.
func New(out io.Writer, disabled bool) Reporter {
	if disabled {
		return Noop{}
	}
	return NewBars(out)
}
