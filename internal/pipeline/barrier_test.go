package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArriveAndWaitReleasesAllAtOnce(t *testing.T) {
	const n = 4
	b := NewFileRotationBarrier(n)

	var mu sync.Mutex
	var lastArrivalCalls int
	var released int
	done := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		go func() {
			b.ArriveAndWait(func() {
				mu.Lock()
				lastArrivalCalls++
				mu.Unlock()
			})
			mu.Lock()
			released++
			mu.Unlock()
			done <- struct{}{}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for goroutines to clear the barrier")
		}
	}

	assert.Equal(t, 1, lastArrivalCalls)
	assert.Equal(t, n, released)
	assert.Equal(t, 1, b.Generation())
}

func TestArriveAndWaitIsReusableAcrossGenerations(t *testing.T) {
	const n = 3
	b := NewFileRotationBarrier(n)

	for gen := 1; gen <= 3; gen++ {
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				b.ArriveAndWait(nil)
			}()
		}
		wg.Wait()
		assert.Equal(t, gen, b.Generation())
	}
}
