package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a single, carriage-return refreshed progress line
// while a run is in flight.
type ProgressTracker struct {
	mu sync.Mutex

	w        io.Writer
	total    int
	every    int
	done     int
	failed   int
	reported int
	started  time.Time
}

// NewProgressTracker creates a tracker for total files that reports every
// reportInterval files. Intervals below one report every file.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	return &ProgressTracker{
		w:     writer,
		total: total,
		every: max(reportInterval, 1),
	}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done, p.failed, p.reported = 0, 0, 0
	p.started = time.Now()
}

// Done records one processed file. Calls before Start are ignored.
func (p *ProgressTracker) Done(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		return
	}
	p.done = min(p.done+1, p.total)
	if failed {
		p.failed++
	}
	if p.done-p.reported >= p.every {
		p.line()
		p.reported = p.done
	}
}

// Finish writes the final line, counted as complete, and a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		return
	}
	p.done = p.total
	p.line()
	fmt.Fprintln(p.w)
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started)
}

func (p *ProgressTracker) line() {
	var pct float64
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	rate := float64(p.done) / time.Since(p.started).Seconds()
	fmt.Fprintf(p.w, "\rProgress: %d/%d (%.1f%%), %d failed - %.1f files/s",
		p.done, p.total, pct, p.failed, rate)
}
