// Package stats keeps rolling-window latency statistics for parser calls.
package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	micros    int64
}

// Snapshot is a point-in-time aggregate of latency samples, in microseconds.
type Snapshot struct {
	Count int     `json:"count"`
	MinUs int64   `json:"min_us"`
	MaxUs int64   `json:"max_us"`
	AvgUs float64 `json:"avg_us"`
	P50Us float64 `json:"p50_us"`
	P95Us float64 `json:"p95_us"`
	P99Us float64 `json:"p99_us"`
}

// Window tracks recent call latencies within a rolling window.
type Window struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewWindow(maxAge time.Duration) *Window {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Window{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (w *Window) Record(d time.Duration) {
	micros := d.Microseconds()
	if micros < 0 {
		micros = 0
	}
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.samples = append(w.samples, sample{timestamp: now, micros: micros})
}

func (w *Window) Snapshot() Snapshot {
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	if len(w.samples) == 0 {
		return Snapshot{}
	}

	values := make([]int64, 0, len(w.samples))
	var sum int64
	for _, sm := range w.samples {
		values = append(values, sm.micros)
		sum += sm.micros
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return Snapshot{
		Count: len(values),
		MinUs: values[0],
		MaxUs: values[len(values)-1],
		AvgUs: float64(sum) / float64(len(values)),
		P50Us: percentile(values, 50),
		P95Us: percentile(values, 95),
		P99Us: percentile(values, 99),
	}
}

func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.maxAge)
	writeIdx := 0
	for _, sm := range w.samples {
		if !sm.timestamp.Before(cutoff) {
			w.samples[writeIdx] = sm
			writeIdx++
		}
	}
	w.samples = w.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}

// Set groups one Window per named operation.
type Set struct {
	mu      sync.Mutex
	windows map[string]*Window
	maxAge  time.Duration
}

func NewSet(maxAge time.Duration) *Set {
	return &Set{windows: make(map[string]*Window), maxAge: maxAge}
}

// Record adds a sample for op, creating its window on first use.
func (s *Set) Record(op string, d time.Duration) {
	s.window(op).Record(d)
}

// Time returns a func that records the time elapsed since Time was called.
func (s *Set) Time(op string) func() {
	start := time.Now()
	return func() { s.Record(op, time.Since(start)) }
}

// Snapshot returns one snapshot per operation seen so far.
func (s *Set) Snapshot() map[string]Snapshot {
	s.mu.Lock()
	windows := make(map[string]*Window, len(s.windows))
	for op, w := range s.windows {
		windows[op] = w
	}
	s.mu.Unlock()

	out := make(map[string]Snapshot, len(windows))
	for op, w := range windows {
		out[op] = w.Snapshot()
	}
	return out
}

func (s *Set) window(op string) *Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[op]
	if !ok {
		w = NewWindow(s.maxAge)
		s.windows[op] = w
	}
	return w
}
