package swapbench

import (
	"fmt"
	"testing"
)

// AssertDatasetIntact verifies the structural invariants of d: exactly
// DatasetLen elements and exactly one sentinel.
func AssertDatasetIntact(t testing.TB, d Dataset) {
	t.Helper()

	if err := d.Validate(); err != nil {
		t.Errorf("dataset not intact: %v\n  dataset: %v", err, d)
	}
}

// AssertSentinelHead verifies the container's head is the sentinel, which
// holds after any completed mutation.
func AssertSentinelHead(t testing.TB, c Container) {
	t.Helper()

	v, ok := readHead(c)
	if !ok || v != Sentinel {
		t.Errorf("%s: head = %d (present=%t), want %d", c.Strategy(), v, ok, Sentinel)
	}
}

// AssertScenario runs d once and fails the test on any scenario error.
// The final dataset is checked for integrity.
func AssertScenario(t testing.TB, d Descriptor) Report {
	t.Helper()

	rep, err := RunScenario(d, nil)
	if err != nil {
		t.Fatalf("scenario %s threads=%d iterations=%d modulo=%d failed: %v",
			d.Strategy, d.Threads, d.Iterations, d.WriteModulo, err)
	}
	AssertDatasetIntact(t, rep.Final)
	return rep
}

// AssertNoRetrograde verifies predicted throughput never decreases as the
// thread count grows up to maxN.
//
// Retrograde scaling, C(N+1) < C(N), means adding workers makes the strategy
// slower in absolute terms: the signature of a lock convoy.
func AssertNoRetrograde(t testing.TB, results []Result, maxN int) {
	t.Helper()

	coeffs, err := FitUSL(results)
	if err != nil {
		t.Fatalf("Failed to fit USL model: %v", err)
	}

	var failures []string
	for i := 1; i < len(results); i++ {
		if results[i].Threads > maxN {
			break
		}

		prev := coeffs.PredictThroughput(results[i-1].Threads)
		curr := coeffs.PredictThroughput(results[i].Threads)
		if curr < prev {
			failures = append(failures, fmt.Sprintf(
				"  N=%d→%d: %.2f → %.2f ops/sec",
				results[i-1].Threads, results[i].Threads, prev, curr))
		}
	}

	if len(failures) > 0 {
		t.Errorf("Retrograde scaling detected:\n%s\nα=%.6f, β=%.6f",
			failures, coeffs.Alpha, coeffs.Beta)
	}
}

// PrintAnalysis logs the USL fit of one strategy's results.
func PrintAnalysis(t testing.TB, s Strategy, results []Result) {
	t.Helper()

	coeffs, err := FitUSL(results)
	if err != nil {
		t.Fatalf("Failed to fit USL model: %v", err)
	}

	t.Logf("=== %s ===", s)
	t.Logf("  λ = %.2f ops/sec, α = %.6f, β = %.6f, R² = %.4f",
		coeffs.Lambda, coeffs.Alpha, coeffs.Beta, coeffs.RSquared)
	t.Logf("  N    Measured      Predicted     P99/P50")
	for _, r := range results {
		t.Logf("  %-4d %12.2f  %12.2f  %8.2f",
			r.Threads, r.Throughput, coeffs.PredictThroughput(r.Threads), r.Tail.DivergenceRatio)
	}
}
