package swapbench

import (
	"errors"
	"fmt"
)

var (
	// ErrLockPoisoned reports a lock whose previous holder panicked.
	// The guarded dataset may be half-written and cannot be trusted.
	ErrLockPoisoned = errors.New("swapbench: lock poisoned")

	// ErrInvariantViolation reports a read that failed the sentinel check.
	ErrInvariantViolation = errors.New("swapbench: invariant violation")

	// ErrWorkerPanic reports a worker that terminated abnormally.
	ErrWorkerPanic = errors.New("swapbench: worker panicked")

	// ErrDatasetCorrupt reports a dataset with the wrong length or sentinel count.
	ErrDatasetCorrupt = errors.New("swapbench: dataset corrupt")

	// ErrInvalidScenario reports a descriptor that cannot be run.
	ErrInvalidScenario = errors.New("swapbench: invalid scenario")
)

// LockError is raised when a poisoned lock is acquired.
type LockError struct {
	Strategy Strategy
	Op       string // "mutate" or "view"
}

func (e *LockError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Strategy, e.Op, ErrLockPoisoned)
}

func (e *LockError) Unwrap() error { return ErrLockPoisoned }

// ReadKind distinguishes the two read checks.
type ReadKind int

const (
	ReadNone   ReadKind = iota // no read (write-only)
	ReadHead                   // value at index 0
	ReadSearch                 // linear search for the sentinel
)

func (k ReadKind) String() string {
	switch k {
	case ReadHead:
		return "head"
	case ReadSearch:
		return "search"
	default:
		return "none"
	}
}

// InvariantViolation carries everything needed to reproduce a failed read.
type InvariantViolation struct {
	Strategy  Strategy
	Threads   int
	Worker    int
	Iteration int
	Kind      ReadKind
	Observed  int
	Present   bool
	Mutated   bool // worker had completed a mutation before this read
}

func (e *InvariantViolation) Error() string {
	observed := "absent"
	if e.Present {
		observed = fmt.Sprintf("%d", e.Observed)
	}
	return fmt.Sprintf("%v: strategy=%s threads=%d worker=%d iteration=%d read=%s observed=%s want=%d (mutated=%t)",
		ErrInvariantViolation, e.Strategy, e.Threads, e.Worker, e.Iteration, e.Kind, observed, Sentinel, e.Mutated)
}

func (e *InvariantViolation) Unwrap() error { return ErrInvariantViolation }

// WorkerError is the outcome of a worker that did not return normally.
type WorkerError struct {
	Worker int
	Cause  error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d: %v", e.Worker, e.Cause)
}

func (e *WorkerError) Unwrap() []error { return []error{ErrWorkerPanic, e.Cause} }

// panicError converts a recovered panic value into an error, keeping typed
// errors intact so errors.Is/As still see them.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%w: %v", ErrWorkerPanic, r)
}
