// Package utils holds small generic helpers.
package utils

import "sort"

// Map returns a new slice of mapper(v) for each v in sli, in the same order.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// First returns the first element which predicator holds, and true.
// If not found, it returns zero value and false.
func First[T any](sli []T, predicator func(T) bool) (T, bool) {
	for _, v := range sli {
		if predicator(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Sorted returns a sorted copy of sli. It is not stable.
func Sorted[T any](sli []T, less func(a, b T) bool) []T {
	sorted := make([]T, len(sli))
	copy(sorted, sli)
	sort.Slice(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}
