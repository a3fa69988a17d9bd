package swapbench

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"time"
)

// Result contains measurements of one scenario.
type Result struct {
	ID         string
	Threads    int             // concurrent workers
	Rounds     int             // measured scenario runs
	Duration   time.Duration   // total measured time
	Operations int64           // mutations + reads across all rounds
	Throughput float64         // operations per second
	Latencies  []time.Duration // per-round scenario durations
	Tail       TailStats
}

// Statistics contains percentile latency data.
type Statistics struct {
	Mean   time.Duration
	Stddev time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
}

// USLCoefficients contains the Universal Scalability Law parameters.
type USLCoefficients struct {
	Lambda   float64 // λ: Serial throughput (ops/sec at N=1)
	Alpha    float64 // α: Contention coefficient
	Beta     float64 // β: Coordination coefficient
	RSquared float64 // R²: Goodness of fit (1.0 = perfect)
}

// Config controls measurement.
type Config struct {
	Warmup      int          // unmeasured runs before measurement
	Rounds      int          // measured runs per scenario
	MaxProcs    int          // GOMAXPROCS limit (0 = use runtime default)
	Steps       []int        // iteration steps multiplied by each family's multiplier
	TailSamples int          // ring buffer size of the tail tracker
	Logger      *slog.Logger // nil = slog.Default()
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Warmup:      1,
		Rounds:      10,
		MaxProcs:    0,
		Steps:       []int{1, 2, 4, 8},
		TailSamples: 1000,
	}
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger == nil {
		return slog.Default()
	}
	return cfg.Logger
}

// Measure runs the scenario Warmup times unmeasured, then Rounds times
// measured. The first failing run aborts measurement and its error is
// returned; a failed scenario has no meaningful timing.
func Measure(ctx context.Context, sc Scenario, cfg Config) (Result, error) {
	if cfg.MaxProcs > 0 {
		oldMaxProcs := runtime.GOMAXPROCS(cfg.MaxProcs)
		defer runtime.GOMAXPROCS(oldMaxProcs)
	}
	if cfg.Rounds <= 0 {
		return Result{}, fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidScenario, cfg.Rounds)
	}

	logger := cfg.logger().With("scenario", sc.ID())
	r, err := NewRunner(sc.Descriptor(), logger)
	if err != nil {
		return Result{}, err
	}

	for i := 0; i < cfg.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if _, err := r.Run(); err != nil {
			return Result{}, fmt.Errorf("%s warmup: %w", sc.ID(), err)
		}
	}

	tracker := NewTailTracker(cfg.TailSamples)
	latencies := make([]time.Duration, 0, cfg.Rounds)
	var (
		operations int64
		total      time.Duration
	)
	for i := 0; i < cfg.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rep, err := r.Run()
		if err != nil {
			return Result{}, fmt.Errorf("%s round %d: %w", sc.ID(), i, err)
		}
		latencies = append(latencies, rep.Duration)
		tracker.Record(rep.Duration)
		operations += rep.Mutations + rep.Reads
		total += rep.Duration
	}

	res := Result{
		ID:         sc.ID(),
		Threads:    sc.Family.Threads,
		Rounds:     cfg.Rounds,
		Duration:   total,
		Operations: operations,
		Latencies:  latencies,
		Tail:       tracker.GetStats(),
	}
	if total > 0 {
		res.Throughput = float64(operations) / total.Seconds()
	}

	stats := CalculateStatistics(res)
	logger.Info("scenario measured",
		"mean", stats.Mean, "p50", stats.P50, "p99", stats.P99,
		"ops_per_sec", math.Round(res.Throughput))
	return res, nil
}

// MeasureTiers measures the same shape, size class and strategy at several
// thread counts, ordered by thread count, ready for FitUSL.
func MeasureTiers(ctx context.Context, families []Family, s Strategy, iterations int, cfg Config) ([]Result, error) {
	sorted := make([]Family, len(families))
	copy(sorted, families)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Threads < sorted[j].Threads
	})

	results := make([]Result, 0, len(sorted))
	for _, f := range sorted {
		res, err := Measure(ctx, Scenario{Family: f, Strategy: s, Iterations: iterations}, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed at N=%d: %w", f.Threads, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// CalculateStatistics computes percentile latencies.
func CalculateStatistics(result Result) Statistics {
	if len(result.Latencies) == 0 {
		return Statistics{}
	}

	sorted := make([]time.Duration, len(result.Latencies))
	copy(sorted, result.Latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, lat := range sorted {
		sum += lat
	}
	mean := sum / time.Duration(len(sorted))

	var variance float64
	for _, lat := range sorted {
		diff := float64(lat - mean)
		variance += diff * diff
	}
	stddev := time.Duration(math.Sqrt(variance / float64(len(sorted))))

	return Statistics{
		Mean:   mean,
		Stddev: stddev,
		P50:    sorted[len(sorted)*50/100],
		P95:    sorted[len(sorted)*95/100],
		P99:    sorted[len(sorted)*99/100],
	}
}

// FitUSL fits λ, α, β by least squares on the linearized model
//
//	N/X(N) = 1/λ + (α/λ)(N-1) + (β/λ)N(N-1)
//
// where X(N) is the measured throughput at N threads, and returns the
// coefficients with the R² of the fit against the measured throughput. For a
// strategy, α is lock waiting and β is cross-core coherency traffic on the
// shared dataset.
func FitUSL(results []Result) (USLCoefficients, error) {
	if len(results) < 3 {
		return USLCoefficients{}, fmt.Errorf("need at least 3 data points, got %d", len(results))
	}

	s := accumulateUSL(results)

	// Normal equations, solved with Cramer's rule:
	//	[n  x1   x2  ] [b0]   [y  ]
	//	[x1 x1x1 x1x2] [b1] = [yx1]
	//	[x2 x1x2 x2x2] [b2]   [yx2]
	det := det3(s.n, s.x1, s.x2, s.x1, s.x1x1, s.x1x2, s.x2, s.x1x2, s.x2x2)
	if math.Abs(det) < 1e-10 {
		return USLCoefficients{Lambda: results[0].Throughput, Alpha: 0.01}, nil
	}
	b0 := det3(s.y, s.x1, s.x2, s.yx1, s.x1x1, s.x1x2, s.yx2, s.x1x2, s.x2x2) / det
	b1 := det3(s.n, s.y, s.x2, s.x1, s.yx1, s.x1x2, s.x2, s.yx2, s.x2x2) / det
	b2 := det3(s.n, s.x1, s.y, s.x1, s.x1x1, s.yx1, s.x2, s.x1x2, s.yx2) / det

	c := USLCoefficients{Lambda: 1 / b0, Alpha: b1 / b0, Beta: b2 / b0}

	// β < 0 is a linearization artifact from noisy rounds; refit with β = 0.
	if c.Beta < 0 && c.Alpha > 0 {
		c.Beta = 0
		if b0, b1, ok := s.contentionOnly(); ok {
			c.Lambda, c.Alpha = 1/b0, b1/b0
		}
	}

	c.RSquared = c.rSquared(results)
	return c, nil
}

// uslSums holds the sums of the normal equations for
// Y = b0 + b1*X1 + b2*X2 with Y = N/X(N), X1 = N-1, X2 = N(N-1).
type uslSums struct {
	n, y, x1, x2     float64
	x1x1, x2x2, x1x2 float64
	yx1, yx2         float64
}

// accumulateUSL skips results with zero throughput.
func accumulateUSL(results []Result) uslSums {
	var s uslSums
	for _, r := range results {
		if r.Throughput == 0 {
			continue
		}
		n := float64(r.Threads)
		y := n / r.Throughput
		x1 := n - 1
		x2 := n * x1

		s.n++
		s.y += y
		s.x1 += x1
		s.x2 += x2
		s.x1x1 += x1 * x1
		s.x2x2 += x2 * x2
		s.x1x2 += x1 * x2
		s.yx1 += y * x1
		s.yx2 += y * x2
	}
	return s
}

// contentionOnly solves Y = b0 + b1*X1. ok is false when the system is
// singular.
func (s uslSums) contentionOnly() (b0, b1 float64, ok bool) {
	det := s.n*s.x1x1 - s.x1*s.x1
	if math.Abs(det) <= 1e-10 {
		return 0, 0, false
	}
	b0 = (s.x1x1*s.y - s.x1*s.yx1) / det
	b1 = (s.n*s.yx1 - s.x1*s.y) / det
	return b0, b1, true
}

// det3 returns the determinant of the 3x3 matrix given row by row.
func det3(a, b, c, d, e, f, g, h, i float64) float64 {
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

func (c USLCoefficients) rSquared(results []Result) float64 {
	var mean float64
	for _, r := range results {
		mean += r.Throughput
	}
	mean /= float64(len(results))

	var ssRes, ssTot float64
	for _, r := range results {
		residual := r.Throughput - c.PredictThroughput(r.Threads)
		ssRes += residual * residual
		ssTot += (r.Throughput - mean) * (r.Throughput - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// PredictThroughput evaluates the fitted model at n threads.
func (c USLCoefficients) PredictThroughput(n int) float64 {
	x := float64(n)
	return (c.Lambda * x) / (1 + c.Alpha*(x-1) + c.Beta*x*(x-1))
}
