package swapbench

import (
	"sort"
	"sync"
	"time"
)

// TailTracker keeps the most recent scenario durations in a ring buffer and
// reports their tail.
//
// Lock strategies differ less in their median than in their tail: a writer
// starving readers on a mutex shows up as a P99 far above P50, while the
// snapshot strategy should keep the two close. The divergence ratio P99/P50
// makes that visible per scenario.
type TailTracker struct {
	mu          sync.Mutex
	samples     []time.Duration
	writeIndex  int
	sampleCount int64
}

// NewTailTracker creates a tracker holding at most maxSamples durations.
// A non-positive maxSamples means 1000.
func NewTailTracker(maxSamples int) *TailTracker {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &TailTracker{samples: make([]time.Duration, maxSamples)}
}

// Record adds a duration, overwriting the oldest once the buffer is full.
func (t *TailTracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.writeIndex] = d
	t.writeIndex = (t.writeIndex + 1) % len(t.samples)
	t.sampleCount++
}

// DivergenceRatio returns P99/P50, or 1 with no samples.
func (t *TailTracker) DivergenceRatio() float64 {
	p50 := t.Percentile(0.50)
	if p50 == 0 {
		return 1.0
	}
	return float64(t.Percentile(0.99)) / float64(p50)
}

// Percentile returns the p-th percentile (0 ≤ p ≤ 1) of the buffered samples.
func (t *TailTracker) Percentile(p float64) time.Duration {
	sorted := t.sorted()
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)-1) * p)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// Mean returns the average of the buffered samples.
func (t *TailTracker) Mean() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.effective()
	if n == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range t.samples[:n] {
		sum += d
	}
	return sum / time.Duration(n)
}

func (t *TailTracker) sorted() []time.Duration {
	t.mu.Lock()
	n := t.effective()
	sorted := make([]time.Duration, n)
	copy(sorted, t.samples[:n])
	t.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	return sorted
}

// effective returns the number of valid samples. Callers hold mu.
func (t *TailTracker) effective() int {
	if t.sampleCount < int64(len(t.samples)) {
		return int(t.sampleCount)
	}
	return len(t.samples)
}

// TailStats is a snapshot of a tracker.
type TailStats struct {
	SampleCount     int64
	Mean            time.Duration
	P50             time.Duration
	P99             time.Duration
	P999            time.Duration
	DivergenceRatio float64
}

// GetStats returns a snapshot of the tracker.
func (t *TailTracker) GetStats() TailStats {
	t.mu.Lock()
	count := t.sampleCount
	t.mu.Unlock()

	return TailStats{
		SampleCount:     count,
		Mean:            t.Mean(),
		P50:             t.Percentile(0.50),
		P99:             t.Percentile(0.99),
		P999:            t.Percentile(0.999),
		DivergenceRatio: t.DivergenceRatio(),
	}
}
