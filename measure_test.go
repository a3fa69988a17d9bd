package swapbench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.Warmup = 1
	cfg.Rounds = 3
	return cfg
}

// TestMeasure_Scenario verifies the measurement loop records every round.
func TestMeasure_Scenario(t *testing.T) {
	sc := Scenario{
		Family:     Family{Threads: 2, Size: SizeSmall, Shape: ShapeBalanced, Multiplier: 10},
		Strategy:   StrategyMutex,
		Iterations: 10,
	}

	res, err := Measure(context.Background(), sc, quickConfig())
	require.NoError(t, err)

	assert.Equal(t, sc.ID(), res.ID)
	assert.Equal(t, 2, res.Threads)
	assert.Len(t, res.Latencies, 3)
	// 2 workers × 10 iterations × (write + read) × 3 rounds
	assert.Equal(t, int64(120), res.Operations)
	assert.Greater(t, res.Throughput, 0.0)
	assert.Equal(t, int64(3), res.Tail.SampleCount)

	t.Logf("%s: %.2f ops/sec", res.ID, res.Throughput)
}

func TestMeasure_Errors(t *testing.T) {
	sc := Scenario{
		Family:     Family{Threads: 1, Size: SizeSmall, Shape: ShapeReadOnly, Multiplier: 10},
		Strategy:   StrategyAtom,
		Iterations: 10,
	}

	cfg := quickConfig()
	cfg.Rounds = 0
	_, err := Measure(context.Background(), sc, cfg)
	assert.ErrorIs(t, err, ErrInvalidScenario)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Measure(ctx, sc, quickConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMeasureTiers_Ordered(t *testing.T) {
	families := []Family{
		{Threads: 4, Size: SizeBig, Shape: ShapeReadOnly, Multiplier: 1},
		{Threads: 1, Size: SizeBig, Shape: ShapeReadOnly, Multiplier: 1},
		{Threads: 2, Size: SizeBig, Shape: ShapeReadOnly, Multiplier: 1},
	}

	results, err := MeasureTiers(context.Background(), families, StrategyRWLock, 50, quickConfig())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{1, 2, 4}, []int{results[0].Threads, results[1].Threads, results[2].Threads})

	PrintAnalysis(t, StrategyRWLock, results)
}

// TestCalculateStatistics verifies percentile calculations.
func TestCalculateStatistics(t *testing.T) {
	result := Result{
		Latencies: []time.Duration{
			500 * time.Microsecond,
			100 * time.Microsecond,
			300 * time.Microsecond,
			200 * time.Microsecond,
			400 * time.Microsecond,
		},
	}

	stats := CalculateStatistics(result)
	assert.Equal(t, 300*time.Microsecond, stats.P50)
	assert.Equal(t, 300*time.Microsecond, stats.Mean)
	assert.Equal(t, 500*time.Microsecond, stats.P99)

	assert.Equal(t, Statistics{}, CalculateStatistics(Result{}))
}

// TestFitUSL_WithContention recovers α from synthetic data shaped like a
// single lock: C(N) = λN / (1 + 0.1(N-1)).
func TestFitUSL_WithContention(t *testing.T) {
	lambda := 1000.0
	alpha := 0.1

	var results []Result
	for _, n := range []int{1, 4, 32, 100} {
		throughput := (lambda * float64(n)) / (1 + alpha*float64(n-1))
		results = append(results, Result{Threads: n, Throughput: throughput})
	}

	coeffs, err := FitUSL(results)
	require.NoError(t, err)

	assert.InDelta(t, 0.1, coeffs.Alpha, 0.05)
	assert.InDelta(t, lambda, coeffs.Lambda, 50)
	AssertNoRetrograde(t, results, 100)
}

func TestFitUSL_NeedsThreePoints(t *testing.T) {
	_, err := FitUSL([]Result{{Threads: 1, Throughput: 1}, {Threads: 2, Throughput: 2}})
	assert.Error(t, err)
}

func TestUSLCoefficients_PredictThroughput(t *testing.T) {
	linear := USLCoefficients{Lambda: 100}
	assert.InDelta(t, 800.0, linear.PredictThroughput(8), 1e-9)

	contended := USLCoefficients{Lambda: 100, Alpha: 0.1, Beta: 0.01}
	assert.InDelta(t, 800.0/(1+0.7+0.56), contended.PredictThroughput(8), 1e-9)
}

// TestFitUSL_Coherency recovers β when throughput peaks and falls.
func TestFitUSL_Coherency(t *testing.T) {
	want := USLCoefficients{Lambda: 1000, Alpha: 0.05, Beta: 0.002}
	var results []Result
	for _, n := range []int{1, 2, 4, 8, 32, 100} {
		results = append(results, Result{Threads: n, Throughput: want.PredictThroughput(n)})
	}

	coeffs, err := FitUSL(results)
	require.NoError(t, err)

	assert.InEpsilon(t, want.Lambda, coeffs.Lambda, 1e-6)
	assert.InEpsilon(t, want.Alpha, coeffs.Alpha, 1e-4)
	assert.InEpsilon(t, want.Beta, coeffs.Beta, 1e-4)
	assert.InDelta(t, 1.0, coeffs.RSquared, 1e-6)
}
