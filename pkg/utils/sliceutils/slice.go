package sliceutils

import (
	"slices"
)

/*
returns the sorted union of the slices without repetitions; in set notation:

- union = slice1 U slice2 U ...

The input slices are not modified.
Time complexity O(n * logn), where n is the total length of the slices.
This function is much faster than converting to sets for sizes smaller than ~10^6.
*/
func Union(sets ...[]uint64) []uint64 {

	size := 0
	for _, s := range sets {
		size += len(s)
	}

	union := make([]uint64, 0, size)
	for _, s := range sets {
		union = append(union, s...)
	}

	slices.Sort(union)
	return slices.Compact(union)
}

// Insert() adds ID to the sorted slice if not already present, keeping it sorted.
// It returns the new slice and whether ID was added.
func Insert(sorted []uint64, ID uint64) ([]uint64, bool) {
	i, found := slices.BinarySearch(sorted, ID)
	if found {
		return sorted, false
	}
	return slices.Insert(sorted, i, ID), true
}
