package swapbench

// Oracle checks every read of one worker. It is not safe for concurrent use;
// each worker owns its own.
type Oracle struct {
	Strategy Strategy
	Threads  int
	Worker   int

	mutated bool
}

// Mutated records that the worker completed a mutation. Every mutation sorts
// the dataset descending, and the sentinel is its unique maximum, so from
// here on the head must be the sentinel under any correct strategy.
func (o *Oracle) Mutated() { o.mutated = true }

// CheckHead validates the value read at index 0.
//
// Before the worker's first mutation the check is permissive: another worker
// may or may not have sorted the dataset yet, so the head is legitimately
// either the unsorted value or the sentinel. Any value from the canonical
// dataset passes. After a mutation only the sentinel passes.
func (o *Oracle) CheckHead(iteration int, v int, ok bool) error {
	if !ok {
		return nil
	}
	if v == Sentinel {
		return nil
	}
	if !o.mutated && isCanonicalValue(v) {
		return nil
	}
	return o.violation(iteration, ReadHead, v, ok)
}

// CheckSearch validates the result of a linear search for the sentinel.
func (o *Oracle) CheckSearch(iteration int, v int, ok bool) error {
	if ok && v == Sentinel {
		return nil
	}
	return o.violation(iteration, ReadSearch, v, ok)
}

func (o *Oracle) violation(iteration int, kind ReadKind, v int, ok bool) error {
	return &InvariantViolation{
		Strategy:  o.Strategy,
		Threads:   o.Threads,
		Worker:    o.Worker,
		Iteration: iteration,
		Kind:      kind,
		Observed:  v,
		Present:   ok,
		Mutated:   o.mutated,
	}
}
