package swapbench

import (
	"fmt"
	"math"
)

// Shape is the operation mix of a scenario family.
type Shape int

const (
	ShapeBalanced  Shape = iota // write every iteration, then read head
	ShapeReadHeavy              // write every 10th iteration, read head always
	ShapeReadOnly               // never write, search for the sentinel
	ShapeWriteOnly              // write every iteration, never read
)

// Shapes lists every shape in reporting order.
var Shapes = []Shape{ShapeBalanced, ShapeReadHeavy, ShapeReadOnly, ShapeWriteOnly}

// String returns the label used in scenario identifiers.
func (s Shape) String() string {
	switch s {
	case ShapeBalanced:
		return "balanced_rw"
	case ShapeReadHeavy:
		return "read_heavy_rw"
	case ShapeReadOnly:
		return "read_only"
	case ShapeWriteOnly:
		return "write_only"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// WriteModulo returns the default write frequency of the shape.
// Read-only never writes, so its modulo is effectively infinite.
func (s Shape) WriteModulo() int {
	switch s {
	case ShapeReadHeavy:
		return 10
	case ShapeReadOnly:
		return math.MaxInt
	default:
		return 1
	}
}

// Read returns the read check the shape performs each iteration.
func (s Shape) Read() ReadKind {
	switch s {
	case ShapeReadOnly:
		return ReadSearch
	case ShapeWriteOnly:
		return ReadNone
	default:
		return ReadHead
	}
}

// Descriptor fully specifies one scenario run.
type Descriptor struct {
	Threads     int // concurrent workers, > 0
	Iterations  int // loop iterations per worker, >= 0
	WriteModulo int // write when i % WriteModulo == 0, > 0
	Strategy    Strategy
	Shape       Shape
}

// NewDescriptor builds a descriptor using the shape's default write modulo.
func NewDescriptor(shape Shape, s Strategy, threads, iterations int) Descriptor {
	return Descriptor{
		Threads:     threads,
		Iterations:  iterations,
		WriteModulo: shape.WriteModulo(),
		Strategy:    s,
		Shape:       shape,
	}
}

// Validate rejects descriptors the runner cannot execute.
func (d Descriptor) Validate() error {
	if d.Threads <= 0 {
		return fmt.Errorf("%w: threads must be positive, got %d", ErrInvalidScenario, d.Threads)
	}
	if d.Iterations < 0 {
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalidScenario, d.Iterations)
	}
	if d.WriteModulo <= 0 {
		return fmt.Errorf("%w: write modulo must be positive, got %d", ErrInvalidScenario, d.WriteModulo)
	}
	if d.Strategy < StrategyAtom || d.Strategy > StrategyRWLock {
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidScenario, int(d.Strategy))
	}
	if d.Shape < ShapeBalanced || d.Shape > ShapeWriteOnly {
		return fmt.Errorf("%w: unknown shape %d", ErrInvalidScenario, int(d.Shape))
	}
	return nil
}

// Step is one iteration of a worker loop.
type Step struct {
	Iteration int
	Mutate    bool
	Read      ReadKind
}

// Workload is the loop every worker of a scenario executes. All workers get
// the same workload; it carries no per-worker state and is safe to share.
type Workload struct {
	iterations int
	modulo     int
	read       ReadKind
	mutates    bool
}

// NewWorkload derives the per-worker loop from d.
func NewWorkload(d Descriptor) Workload {
	w := Workload{
		iterations: d.Iterations,
		modulo:     d.WriteModulo,
		read:       d.Shape.Read(),
		mutates:    d.Shape != ShapeReadOnly,
	}
	if d.Shape == ShapeWriteOnly {
		w.modulo = 1
	}
	if w.modulo <= 0 {
		w.modulo = 1
	}
	return w
}

// Len returns the number of iterations.
func (w Workload) Len() int { return w.iterations }

// Step returns iteration i of the loop.
func (w Workload) Step(i int) Step {
	return Step{
		Iteration: i,
		Mutate:    w.mutates && i%w.modulo == 0,
		Read:      w.read,
	}
}

// Steps materializes the whole loop. Zero iterations yield an empty sequence.
func (w Workload) Steps() []Step {
	steps := make([]Step, w.iterations)
	for i := range steps {
		steps[i] = w.Step(i)
	}
	return steps
}

// Counts returns how many mutations and reads one worker performs.
func (w Workload) Counts() (mutations, reads int) {
	if w.mutates && w.iterations > 0 {
		mutations = (w.iterations-1)/w.modulo + 1
	}
	if w.read != ReadNone {
		reads = w.iterations
	}
	return mutations, reads
}
