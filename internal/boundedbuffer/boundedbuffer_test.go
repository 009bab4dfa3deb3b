package boundedbuffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestInsertDropsPastCapacity(t *testing.T) {
	b := New[int](4)
	b.Insert([]int{1, 2, 3})
	assert.False(t, b.Full())
	b.Insert([]int{4, 5, 6})
	assert.True(t, b.Full())

	got := b.CopyAndClear()
	assert.Equal(t, []int{1, 2, 3, 4}, got)
	assert.False(t, b.Full())
	assert.True(t, b.Empty())
}

func TestFullBufferDropsFurtherInserts(t *testing.T) {
	b := New[int](2)
	b.Insert([]int{1, 2})
	require.True(t, b.Full())
	b.Insert([]int{3})
	got := b.CopyAndClear()
	assert.Equal(t, []int{1, 2}, got)
}

func TestWaitForPullAllWakesOnInsert(t *testing.T) {
	b := New[int](8)
	done := make(chan []int, 1)
	go func() {
		entries, ok := b.WaitForPullAll(time.Second)
		if ok {
			done <- entries
		} else {
			done <- nil
		}
	}()

	time.Sleep(10 * time.Millisecond)
	b.Insert([]int{7, 8, 9})

	select {
	case got := <-done:
		assert.Equal(t, []int{7, 8, 9}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForPullAll never returned")
	}
}

func TestWaitForPullAllTimesOut(t *testing.T) {
	b := New[int](8)
	_, ok := b.WaitForPullAll(20 * time.Millisecond)
	assert.False(t, ok)
}

func TestCapacityNeverExceeded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(rt, "capacity")
		b := New[int](capacity)

		rounds := rapid.IntRange(0, 8).Draw(rt, "rounds")
		for i := 0; i < rounds; i++ {
			n := rapid.IntRange(0, capacity*2).Draw(rt, "n")
			entries := make([]int, n)
			for j := range entries {
				entries[j] = j
			}
			b.Insert(entries)
			if len(b.buf) > capacity {
				rt.Fatalf("buffer grew past capacity: %d > %d", len(b.buf), capacity)
			}
			b.Clear()
		}
	})
}
