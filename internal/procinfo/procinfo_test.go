package procinfo

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddersAreConcurrencySafe(t *testing.T) {
	var p ProcessInfo
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.AddBytesReceived(1)
			p.AddDroppedEmpty(1)
		}()
	}
	wg.Wait()

	snap := p.Snapshot()
	assert.Equal(t, int64(100), snap.BytesReceived)
	assert.Equal(t, int64(100), snap.DroppedEmpty)
}

func TestResetZeroesCounters(t *testing.T) {
	var p ProcessInfo
	p.AddBytesReceived(42)
	p.AddAcceptedCalibrate(7)
	p.Reset()

	snap := p.Snapshot()
	assert.Zero(t, snap.BytesReceived)
	assert.Zero(t, snap.AcceptedCalibrate)
}

func TestStringContainsAllSections(t *testing.T) {
	var p ProcessInfo
	p.AddBytesReceived(10)
	s := p.Snapshot().String()
	assert.True(t, strings.Contains(s, "bytes received: 10"))
	assert.True(t, strings.Contains(s, "Dropped (Energy Gate)"))
	assert.True(t, strings.Contains(s, "Receive Calls (Error)"))
}
