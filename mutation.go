package swapbench

// MergeSort sorts xs in non-decreasing order with a stable top-down merge.
//
// The standard library sorts adapt to presorted input (pdqsort detects runs),
// which would make repeated writes on an already-sorted dataset nearly free.
// A plain merge sort performs the same amount of work regardless of the
// initial order, so every write in a scenario costs the same.
//
// Complexity: O(n log n) time, one O(n) scratch buffer per call.
func MergeSort(xs []int) {
	if len(xs) <= 1 {
		return
	}
	scratch := make([]int, len(xs))
	mergeSort(xs, scratch)
}

func mergeSort(xs, scratch []int) {
	n := len(xs)
	if n <= 1 {
		return
	}

	mid := n / 2
	left, right := xs[:mid], xs[mid:]
	mergeSort(left, scratch[:mid])
	mergeSort(right, scratch[mid:])

	tmp := scratch[:0]
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if left[i] <= right[j] {
			tmp = append(tmp, left[i])
			i++
		} else {
			tmp = append(tmp, right[j])
			j++
		}
	}
	tmp = append(tmp, left[i:]...)
	tmp = append(tmp, right[j:]...)

	copy(xs, tmp)
}

// Reverse reverses xs in place.
func Reverse(xs []int) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// SortDescending is the benchmark's write: sort ascending, then reverse.
// Applying it to an already descending sequence yields the same sequence.
func SortDescending(xs []int) {
	MergeSort(xs)
	Reverse(xs)
}
