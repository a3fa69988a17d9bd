package swapbench

import (
	"fmt"
	"strings"
	"sync"

	"code.hybscloud.com/atomix"

	"github.com/alexshd/swapbench/atom"
)

// Strategy names a concurrency-control mechanism under test.
type Strategy int

const (
	StrategyAtom   Strategy = iota // copy-on-write snapshot, lock-free reads
	StrategyMutex                  // one exclusive lock
	StrategyRWLock                 // shared reads, exclusive writes
)

// Strategies lists every strategy in reporting order.
var Strategies = []Strategy{StrategyAtom, StrategyMutex, StrategyRWLock}

// String returns the reporting tag: ATOM, MUTEX or RWLOCK.
func (s Strategy) String() string {
	switch s {
	case StrategyAtom:
		return "ATOM"
	case StrategyMutex:
		return "MUTEX"
	case StrategyRWLock:
		return "RWLOCK"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses a reporting tag, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies {
		if strings.EqualFold(s, st.String()) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidScenario, s)
}

// Container is the uniform access surface every strategy provides over the
// shared dataset.
//
// Mutate runs f with exclusive access to the live dataset; f may permute it in
// place. View runs f with shared access; f must neither modify the dataset nor
// retain it after returning. No View ever observes a partially applied Mutate.
type Container interface {
	Strategy() Strategy
	Mutate(f func(Dataset))
	View(f func(Dataset))
}

// Derive applies the read-only projection f under shared access and returns
// its result. The result must not alias the dataset; use Dataset.Clone when
// the projection needs the whole sequence.
func Derive[R any](c Container, f func(Dataset) R) R {
	var r R
	c.View(func(d Dataset) { r = f(d) })
	return r
}

// NewContainer wraps d in the container for strategy s. The container takes
// ownership of d.
func NewContainer(s Strategy, d Dataset) (Container, error) {
	switch s {
	case StrategyAtom:
		return NewAtomContainer(d), nil
	case StrategyMutex:
		return NewMutexContainer(d), nil
	case StrategyRWLock:
		return NewRWLockContainer(d), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrInvalidScenario, int(s))
	}
}

// poison marks a lock whose holder panicked mid-transform. Once set, every
// later acquisition fails: the dataset may be half-sorted.
type poison struct {
	set atomix.Bool
}

func (p *poison) check(s Strategy, op string) {
	if p.set.LoadAcquire() {
		panic(&LockError{Strategy: s, Op: op})
	}
}

// guard must be deferred directly so recover sees the holder's panic.
func (p *poison) guard() {
	if r := recover(); r != nil {
		p.set.StoreRelease(true)
		panic(r)
	}
}

// Poisoned reports whether a previous holder panicked.
func (p *poison) Poisoned() bool {
	return p.set.LoadAcquire()
}

// MutexContainer guards the dataset with a single sync.Mutex.
type MutexContainer struct {
	mu   sync.Mutex
	data Dataset
	poison
}

// NewMutexContainer returns a MutexContainer owning d.
func NewMutexContainer(d Dataset) *MutexContainer {
	return &MutexContainer{data: d}
}

func (c *MutexContainer) Strategy() Strategy { return StrategyMutex }

func (c *MutexContainer) Mutate(f func(Dataset)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.check(StrategyMutex, "mutate")
	defer c.guard()
	f(c.data)
}

func (c *MutexContainer) View(f func(Dataset)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.check(StrategyMutex, "view")
	defer c.guard()
	f(c.data)
}

// RWLockContainer guards the dataset with a sync.RWMutex; any number of
// readers may hold it at once.
type RWLockContainer struct {
	mu   sync.RWMutex
	data Dataset
	poison
}

// NewRWLockContainer returns an RWLockContainer owning d.
func NewRWLockContainer(d Dataset) *RWLockContainer {
	return &RWLockContainer{data: d}
}

func (c *RWLockContainer) Strategy() Strategy { return StrategyRWLock }

func (c *RWLockContainer) Mutate(f func(Dataset)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.check(StrategyRWLock, "mutate")
	defer c.guard()
	f(c.data)
}

// View holds the read lock. Only writers poison: a panicking reader cannot
// have modified the data.
func (c *RWLockContainer) View(f func(Dataset)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.check(StrategyRWLock, "view")
	f(c.data)
}

// AtomContainer adapts atom.Atom to Container. Views read the published
// snapshot without blocking; mutations work on a private clone.
type AtomContainer struct {
	a *atom.Atom[Dataset]
}

// NewAtomContainer returns an AtomContainer whose first snapshot is d.
func NewAtomContainer(d Dataset) *AtomContainer {
	return &AtomContainer{a: atom.New(d, Dataset.Clone)}
}

func (c *AtomContainer) Strategy() Strategy { return StrategyAtom }

func (c *AtomContainer) Mutate(f func(Dataset)) {
	c.a.Mutate(func(d *Dataset) { f(*d) })
}

func (c *AtomContainer) View(f func(Dataset)) {
	atom.Derive(c.a, func(d Dataset) struct{} {
		f(d)
		return struct{}{}
	})
}

// Version returns how many mutations have been published.
func (c *AtomContainer) Version() uint64 { return c.a.Version() }
