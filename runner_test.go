package swapbench

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"code.hybscloud.com/atomix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunner_BalancedFourThreads runs the reference scenario: 4 workers, 10
// iterations, a write on every iteration.
func TestRunner_BalancedFourThreads(t *testing.T) {
	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			d := Descriptor{Threads: 4, Iterations: 10, WriteModulo: 1, Strategy: s, Shape: ShapeBalanced}
			rep := AssertScenario(t, d)

			assert.Equal(t, int64(40), rep.Mutations)
			assert.Equal(t, int64(40), rep.Reads)
			assert.Equal(t, Sentinel, rep.Final[0])
		})
	}
}

// TestRunner_ReadHeavySingleThread: 1 worker, 1000 iterations, modulo 1000.
// The only write happens at iteration 0.
func TestRunner_ReadHeavySingleThread(t *testing.T) {
	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			d := Descriptor{Threads: 1, Iterations: 1000, WriteModulo: 1000, Strategy: s, Shape: ShapeReadHeavy}
			rep := AssertScenario(t, d)

			assert.Equal(t, int64(1), rep.Mutations)
			assert.Equal(t, int64(1000), rep.Reads)
		})
	}
}

// TestRunner_WriteStress: 100 workers writing concurrently never lose or
// duplicate an element.
func TestRunner_WriteStress(t *testing.T) {
	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			rep := AssertScenario(t, NewDescriptor(ShapeWriteOnly, s, 100, 10))

			assert.Equal(t, int64(1000), rep.Mutations)
			assert.Zero(t, rep.Reads)
			assert.Equal(t, Sentinel, rep.Final[0])
		})
	}
}

// TestRunner_ReadOnlyKeepsCanonical: without writes the dataset stays in its
// unsorted canonical order, for every read during the run and after join.
func TestRunner_ReadOnlyKeepsCanonical(t *testing.T) {
	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			rep := AssertScenario(t, NewDescriptor(ShapeReadOnly, s, 8, 100))

			assert.Zero(t, rep.Mutations)
			assert.Equal(t, int64(800), rep.Reads)
			assert.Equal(t, NewDataset(), rep.Final)

			var w *watchedContainer
			_, err := runWith(t, NewDescriptor(ShapeReadOnly, s, 8, 100), func(st Strategy, ds Dataset) (Container, error) {
				c, err := NewContainer(st, ds)
				w = &watchedContainer{Container: c}
				return w, err
			})
			require.NoError(t, err)

			// 800 worker reads plus the final check.
			assert.Equal(t, int64(801), w.views.Load())
			assert.Zero(t, w.changed.Load(), "a read saw non-canonical contents")
		})
	}
}

// watchedContainer compares every viewed dataset with the canonical one.
type watchedContainer struct {
	Container
	views   atomix.Int64
	changed atomix.Int64
}

func (c *watchedContainer) View(f func(Dataset)) {
	c.Container.View(func(d Dataset) {
		c.views.Add(1)
		if !slices.Equal(d, NewDataset()) {
			c.changed.Add(1)
		}
		f(d)
	})
}

func TestRunner_ZeroIterations(t *testing.T) {
	rep := AssertScenario(t, NewDescriptor(ShapeBalanced, StrategyAtom, 3, 0))

	assert.Zero(t, rep.Mutations)
	assert.Zero(t, rep.Reads)
	assert.Equal(t, NewDataset(), rep.Final)
}

func TestRunner_Phases(t *testing.T) {
	r, err := NewRunner(NewDescriptor(ShapeReadHeavy, StrategyRWLock, 2, 20), nil)
	require.NoError(t, err)

	_, err = r.Run()
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, r.Phase())

	// Runs are independent: a second run starts from a fresh container.
	rep, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(2*2), rep.Mutations)
}

func TestRunner_InvalidDescriptor(t *testing.T) {
	_, err := NewRunner(Descriptor{Threads: 0, Iterations: 1, WriteModulo: 1}, nil)
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

// tornContainer simulates a broken strategy: its writes leave the wrong
// value at the head.
type tornContainer struct {
	*MutexContainer
}

func (c tornContainer) Mutate(f func(Dataset)) {
	c.MutexContainer.Mutate(func(d Dataset) {
		f(d)
		d[0], d[1] = d[1], d[0]
	})
}

// dupContainer simulates a lost update that duplicates the sentinel.
type dupContainer struct {
	*MutexContainer
}

func (c dupContainer) Mutate(f func(Dataset)) {
	c.MutexContainer.Mutate(func(d Dataset) {
		f(d)
		d[len(d)-1] = Sentinel
	})
}

func runWith(t *testing.T, d Descriptor, build func(Strategy, Dataset) (Container, error)) (*Runner, error) {
	t.Helper()
	r, err := NewRunner(d, nil)
	require.NoError(t, err)
	r.build = build
	_, err = r.Run()
	return r, err
}

// TestRunner_InvariantViolationFailsScenario verifies an oracle failure on any
// worker fails the whole scenario with a diagnostic naming the read.
func TestRunner_InvariantViolationFailsScenario(t *testing.T) {
	d := NewDescriptor(ShapeBalanced, StrategyMutex, 4, 10)
	r, err := runWith(t, d, func(_ Strategy, ds Dataset) (Container, error) {
		return tornContainer{NewMutexContainer(ds)}, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.ErrorIs(t, err, ErrWorkerPanic)
	assert.Equal(t, PhaseFailed, r.Phase())

	var v *InvariantViolation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, StrategyMutex, v.Strategy)
	assert.Equal(t, 4, v.Threads)
	assert.Equal(t, 0, v.Iteration)
	assert.True(t, v.Mutated)
}

// TestRunner_PoisonedLockFailsScenario verifies a lock failure inside a worker
// surfaces as the scenario's error.
func TestRunner_PoisonedLockFailsScenario(t *testing.T) {
	d := NewDescriptor(ShapeReadOnly, StrategyMutex, 2, 5)
	r, err := runWith(t, d, func(_ Strategy, ds Dataset) (Container, error) {
		c := NewMutexContainer(ds)
		_ = recoverError(func() { c.Mutate(func(Dataset) { panic("holder died") }) })
		return c, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockPoisoned)
	assert.Equal(t, PhaseFailed, r.Phase())

	var we *WorkerError
	require.True(t, errors.As(err, &we))
}

// TestRunner_CorruptDatasetFailsScenario: write-only scenarios never read, so
// corruption is caught by the check after join.
func TestRunner_CorruptDatasetFailsScenario(t *testing.T) {
	d := NewDescriptor(ShapeWriteOnly, StrategyMutex, 2, 3)
	r, err := runWith(t, d, func(_ Strategy, ds Dataset) (Container, error) {
		return dupContainer{NewMutexContainer(ds)}, nil
	})

	assert.ErrorIs(t, err, ErrDatasetCorrupt)
	assert.Equal(t, PhaseFailed, r.Phase())
}

func TestRunner_BuildError(t *testing.T) {
	d := NewDescriptor(ShapeBalanced, StrategyAtom, 1, 1)
	boom := fmt.Errorf("no container")
	_, err := runWith(t, d, func(Strategy, Dataset) (Container, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
