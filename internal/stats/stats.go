// Package stats keeps rolling-window latency and volume figures for
// extraction calls.
package stats

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
	sections int
	failed   bool
}

// Snapshot aggregates the samples of one operation still inside the window.
type Snapshot struct {
	Calls    int     `json:"calls"`
	Errors   int     `json:"errors"`
	Sections int     `json:"sections"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Recorder tracks extraction calls per operation name within a rolling
// window. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	window  time.Duration
	samples map[string][]sample
	now     func() time.Time
}

func NewRecorder(window time.Duration) *Recorder {
	if window <= 0 {
		window = time.Hour
	}
	return &Recorder{
		window:  window,
		samples: make(map[string][]sample),
		now:     time.Now,
	}
}

// Record adds one call. Negative durations are clamped to zero.
func (r *Recorder) Record(op string, d time.Duration, sections int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.pruneLocked(op, now)
	r.samples[op] = append(r.samples[op], sample{
		at:       now,
		duration: max(d, 0),
		sections: sections,
		failed:   err != nil,
	})
}

// Snapshot returns the aggregate for every operation with samples in the
// window.
func (r *Recorder) Snapshot() map[string]Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make(map[string]Snapshot, len(r.samples))
	for op := range r.samples {
		r.pruneLocked(op, now)
		if len(r.samples[op]) > 0 {
			out[op] = aggregate(r.samples[op])
		}
	}
	return out
}

func (r *Recorder) pruneLocked(op string, now time.Time) {
	cutoff := now.Add(-r.window)
	kept := r.samples[op][:0]
	for _, s := range r.samples[op] {
		if !s.at.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(r.samples, op)
		return
	}
	r.samples[op] = kept
}

func aggregate(samples []sample) Snapshot {
	ms := make([]float64, 0, len(samples))
	snap := Snapshot{Calls: len(samples)}
	var sum float64
	for _, s := range samples {
		v := float64(s.duration) / float64(time.Millisecond)
		ms = append(ms, v)
		sum += v
		snap.Sections += s.sections
		if s.failed {
			snap.Errors++
		}
	}
	slices.Sort(ms)

	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = sum / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	return snap
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}
