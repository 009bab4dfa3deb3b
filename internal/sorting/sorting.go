// Package sorting implements the near-real-time ordering used on a
// pipeline's calibrated event stream: insertion sort (near-linear on
// already-nearly-sorted streaming data) plus the wrap-aware time
// difference that near-sorting relies on to compare events that may
// straddle a UV timing circle rollover.
package sorting

import "github.com/dfreese/miilgo/internal/events"

// Less reports whether a should sort before b.
type Less[T any] func(a, b T) bool

// InsertionSort sorts array in place using less, shifting each element
// back only as far as its predecessors require. On data that is
// already nearly sorted -- the expected case for a near-real-time
// event stream -- this runs close to linear time, unlike the
// logarithmic-comparison, many-swap behavior a full sort exhibits on
// the same input.
func InsertionSort[T any](array []T, less Less[T]) {
	for ii := 1; ii < len(array); ii++ {
		for kk := ii; kk > 0 && less(array[kk], array[kk-1]); kk-- {
			array[kk], array[kk-1] = array[kk-1], array[kk]
		}
	}
}

// InsertionSortWithKey sorts array in place the same way InsertionSort
// does, applying every swap made to array to key as well, so that
// key[i] keeps tracking which original index ended up at sorted
// position i.
func InsertionSortWithKey[T any, K any](array []T, key []K, less Less[T]) {
	n := len(array)
	if len(key) != n {
		panic("sorting: InsertionSortWithKey array/key length mismatch")
	}
	for ii := 1; ii < n; ii++ {
		for kk := ii; kk > 0 && less(array[kk], array[kk-1]); kk-- {
			array[kk], array[kk-1] = array[kk-1], array[kk]
			key[kk], key[kk-1] = key[kk-1], key[kk]
		}
	}
}

// EventTimeDiff returns arg1's time minus arg2's time, in nanoseconds,
// given the system's UV oscillator period and coarse-tick duration.
// The fine timestamps are first wrapped to within one UV period of
// each other -- guarding against either value falling slightly outside
// [0, uvPeriodNs) -- then the whole number of UV periods implied by the
// coarse timestamp difference is added back in.
func EventTimeDiff(arg1, arg2 events.CalEvent, uvPeriodNs, ctPeriodNs float32) float32 {
	difference := arg1.FineTime - arg2.FineTime
	for difference > uvPeriodNs {
		difference -= uvPeriodNs
	}
	for difference < -uvPeriodNs {
		difference += uvPeriodNs
	}

	ctDiff := ctPeriodNs * float32(arg1.CoarseTimestamp-arg2.CoarseTimestamp)
	periods := float32(int64(ctDiff / uvPeriodNs))
	difference += uvPeriodNs * periods
	return difference
}

// EventLessThan reports whether arg1's time is before arg2's time.
func EventLessThan(arg1, arg2 events.CalEvent, uvPeriodNs, ctPeriodNs float32) bool {
	return EventTimeDiff(arg1, arg2, uvPeriodNs, ctPeriodNs) < 0
}
