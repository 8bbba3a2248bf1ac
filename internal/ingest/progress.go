package ingest

import "time"

// Phase names a stage of an ingest run
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseFetching Phase = "fetching"
	PhaseStoring  Phase = "storing"
)

// Progress represents the current ingest progress
type Progress struct {
	Phase       Phase
	Current     int       // Items done in this phase
	Total       int       // Total items in this phase, 0 when unknown
	Description string    // Human-readable description
	StartedAt   time.Time // When this phase started
}

// ProgressCallback is called with progress updates during an ingest run
type ProgressCallback func(Progress)

// ETA returns the estimated time remaining based on current progress
func (p Progress) ETA() time.Duration {
	if p.Current == 0 || p.Total == 0 || p.StartedAt.IsZero() {
		return 0
	}
	elapsed := time.Since(p.StartedAt)
	rate := float64(p.Current) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}
	remaining := p.Total - p.Current
	return time.Duration(float64(remaining)/rate) * time.Second
}

// Percentage returns the completion percentage (0-100)
func (p Progress) Percentage() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Current * 100) / p.Total
}

// reporter stamps phase start times onto progress updates
type reporter struct {
	fn      ProgressCallback
	phase   Phase
	started time.Time
}

func (r *reporter) report(phase Phase, current, total int, desc string) {
	if r == nil || r.fn == nil {
		return
	}
	if phase != r.phase || r.started.IsZero() {
		r.phase = phase
		r.started = time.Now()
	}
	r.fn(Progress{Phase: phase, Current: current, Total: total, Description: desc, StartedAt: r.started})
}
