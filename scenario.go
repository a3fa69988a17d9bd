package swapbench

import (
	"fmt"
	"log/slog"
	"os"
)

// SizeClass labels how long each worker's loop is.
type SizeClass int

const (
	SizeSmall SizeClass = iota
	SizeBig
)

func (s SizeClass) String() string {
	if s == SizeBig {
		return "big"
	}
	return "small"
}

// Family is a group of scenarios sharing thread count, size class and shape.
// Iterations per worker are Multiplier × each configured step.
type Family struct {
	Threads    int
	Size       SizeClass
	Shape      Shape
	Multiplier int
}

// Name returns the group label, e.g. "t4_small_balanced_rw".
func (f Family) Name() string {
	return fmt.Sprintf("t%d_%s_%s", f.Threads, f.Size, f.Shape)
}

// DefaultFamilies returns the full workload matrix: thread tiers 1 and 4 in
// both size classes, tiers 32 and 100 in the big class only, each with all
// four shapes.
func DefaultFamilies() []Family {
	tiers := []struct {
		threads    int
		size       SizeClass
		multiplier int
	}{
		{1, SizeSmall, 10},
		{1, SizeBig, 1000},
		{4, SizeSmall, 10},
		{4, SizeBig, 1000},
		{32, SizeBig, 100},
		{100, SizeBig, 100},
	}

	families := make([]Family, 0, len(tiers)*len(Shapes))
	for _, t := range tiers {
		for _, shape := range Shapes {
			families = append(families, Family{
				Threads:    t.threads,
				Size:       t.size,
				Shape:      shape,
				Multiplier: t.multiplier,
			})
		}
	}
	return families
}

// Scenario is one entry of the matrix: a family, a strategy and a concrete
// iteration count.
type Scenario struct {
	Family     Family
	Strategy   Strategy
	Iterations int
}

// ID returns the reporting identifier, e.g. "t4_small_balanced_rw/ATOM/20".
func (s Scenario) ID() string {
	return fmt.Sprintf("%s/%s/%d", s.Family.Name(), s.Strategy, s.Iterations)
}

// Descriptor returns the runnable descriptor for s.
func (s Scenario) Descriptor() Descriptor {
	return NewDescriptor(s.Family.Shape, s.Strategy, s.Family.Threads, s.Iterations)
}

// Closure returns the zero-argument function a timing harness invokes once
// per repetition. It runs one complete scenario. Any failure is fatal and is
// handed to onFatal; a nil onFatal logs the error and exits the process.
func (s Scenario) Closure(logger *slog.Logger, onFatal func(error)) (func(), error) {
	r, err := NewRunner(s.Descriptor(), logger)
	if err != nil {
		return nil, err
	}
	if onFatal == nil {
		onFatal = func(err error) { Fatal(logger, s.ID(), err) }
	}
	return func() {
		if _, err := r.Run(); err != nil {
			onFatal(err)
		}
	}, nil
}

// Matrix expands families into scenarios: for each family, each step in
// steps, each strategy. Iterations are Multiplier × step.
func Matrix(families []Family, steps []int) []Scenario {
	scenarios := make([]Scenario, 0, len(families)*len(steps)*len(Strategies))
	for _, f := range families {
		for _, step := range steps {
			for _, s := range Strategies {
				scenarios = append(scenarios, Scenario{
					Family:     f,
					Strategy:   s,
					Iterations: f.Multiplier * step,
				})
			}
		}
	}
	return scenarios
}

// Fatal logs a scenario failure and terminates the process. There is no
// recoverable path: a failed scenario means the strategy under test is wrong.
func Fatal(logger *slog.Logger, id string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("fatal scenario failure", "scenario", id, "error", err)
	os.Exit(1)
}
