// Package swapbench compares three ways of sharing one mutable value between
// goroutines under an identical workload.
//
// # Overview
//
// Every scenario shares a single 20-element dataset between N workers. Writes
// are deliberately expensive (a full merge sort followed by a reverse), reads
// are cheap (index 0, or a linear search for the sentinel 42). The same
// operation sequence runs against each strategy:
//
//   - ATOM   - copy-on-write snapshot behind an atomic pointer (package atom);
//     readers never block, writers serialize and clone
//   - MUTEX  - one sync.Mutex for reads and writes
//   - RWLOCK - sync.RWMutex, shared reads, exclusive writes
//
// # Correctness
//
// Every read is checked. Sorting descending puts the unique maximum (42) at
// index 0, and every write produces the same permutation, so once a worker has
// completed a write the head it reads must be 42. Read-only workers must
// always find 42 by linear search. After join, the dataset must still hold 20
// elements with one 42. Any violation fails the scenario:
//
//	rep, err := swapbench.RunScenario(swapbench.Descriptor{
//	    Threads:     4,
//	    Iterations:  10,
//	    WriteModulo: 1,
//	    Strategy:    swapbench.StrategyRWLock,
//	    Shape:       swapbench.ShapeBalanced,
//	}, nil)
//	if err != nil {
//	    log.Fatal(err) // a torn read or lost update in the strategy
//	}
//
// # The Matrix
//
// Families combine a thread tier (1, 4, 32, 100), a size class (small, big)
// and a shape (balanced_rw, read_heavy_rw, read_only, write_only). Each
// family expands into scenarios per iteration step and strategy, identified as
//
//	t4_small_balanced_rw/ATOM/20
//
// # Timing
//
// go test -bench drives the matrix through Scenario.Closure. Measure runs a
// scenario repeatedly and FitUSL fits the Universal Scalability Law across
// thread tiers:
//
//	C(N) = λN / (1 + α(N-1) + βN(N-1))
//
// α is the contention a strategy adds (lock waiting), β the coordination
// cost (cache-line traffic on the shared dataset).
package swapbench
