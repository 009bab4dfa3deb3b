package sorting

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/dfreese/miilgo/internal/events"
)

func TestInsertionSortMatchesStdlib(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")
		vals := rapid.SliceOfN(rapid.IntRange(-100, 100), n, n).Draw(rt, "vals")

		got := append([]int{}, vals...)
		InsertionSort(got, func(a, b int) bool { return a < b })

		want := append([]int{}, vals...)
		sort.Ints(want)

		assert.Equal(t, want, got)
	})
}

func TestInsertionSortWithKeyTracksOriginalIndex(t *testing.T) {
	vals := []int{5, 3, 4, 1, 2}
	key := []int{0, 1, 2, 3, 4}
	InsertionSortWithKey(vals, key, func(a, b int) bool { return a < b })

	assert.Equal(t, []int{1, 2, 3, 4, 5}, vals)
	assert.Equal(t, []int{3, 4, 1, 2, 0}, key)
}

func TestEventTimeDiffSelfIsZero(t *testing.T) {
	e := events.CalEvent{CoarseTimestamp: 500, FineTime: 42}
	assert.Equal(t, float32(0), EventTimeDiff(e, e, 167, 10))
}

func TestEventTimeDiffAccountsForCoarsePeriods(t *testing.T) {
	const uvPeriod = float32(167)
	const ctPeriod = float32(10)

	a := events.CalEvent{CoarseTimestamp: 100, FineTime: 10}
	b := events.CalEvent{CoarseTimestamp: 0, FineTime: 10}

	// a is exactly 100 coarse ticks (1000ns) ahead of b with identical
	// fine time, so the difference should be a whole number of uv
	// periods, and strictly positive.
	diff := EventTimeDiff(a, b, uvPeriod, ctPeriod)
	assert.Greater(t, diff, float32(0))
	assert.True(t, EventLessThan(b, a, uvPeriod, ctPeriod))
}
