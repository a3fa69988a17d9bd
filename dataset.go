package swapbench

import "fmt"

// Sentinel is the marker value injected exactly once into the dataset.
const Sentinel = 42

// DatasetLen is the fixed length of every dataset.
const DatasetLen = 20

// canonical is the unsorted starting state of every scenario.
// It holds two scrambled runs of 0..9, the second with its 8 replaced by the sentinel.
var canonical = [DatasetLen]int{9, 1, 8, 2, 7, 3, 6, 4, 5, 0, 9, 1, 42, 2, 7, 3, 6, 4, 5, 0}

// Dataset is the shared sequence every strategy guards.
type Dataset []int

// NewDataset returns a fresh copy of the canonical unsorted dataset.
func NewDataset() Dataset {
	d := make(Dataset, DatasetLen)
	copy(d, canonical[:])
	return d
}

// Clone returns an independent copy of d.
func (d Dataset) Clone() Dataset {
	c := make(Dataset, len(d))
	copy(c, d)
	return c
}

// Head returns the value at index 0, if any.
func (d Dataset) Head() (int, bool) {
	if len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

// Find returns the first element equal to v using a linear scan.
func (d Dataset) Find(v int) (int, bool) {
	for _, x := range d {
		if x == v {
			return x, true
		}
	}
	return 0, false
}

// Count returns how many elements equal v.
func (d Dataset) Count(v int) int {
	n := 0
	for _, x := range d {
		if x == v {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants: fixed length and a single
// sentinel. Sort and reverse are permutations, so any failure here means an
// element was lost or duplicated by unsynchronized access.
func (d Dataset) Validate() error {
	if len(d) != DatasetLen {
		return fmt.Errorf("%w: length %d, want %d", ErrDatasetCorrupt, len(d), DatasetLen)
	}
	if n := d.Count(Sentinel); n != 1 {
		return fmt.Errorf("%w: sentinel %d occurs %d times", ErrDatasetCorrupt, Sentinel, n)
	}
	return nil
}

// isCanonicalValue reports whether v appears in the canonical dataset.
func isCanonicalValue(v int) bool {
	for _, x := range canonical {
		if x == v {
			return true
		}
	}
	return false
}
