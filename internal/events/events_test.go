package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawEventSize(t *testing.T) {
	e := RawEvent{CoarseTimestamp: 12345, A: 1, B: 2, C: 3, D: 4, Module: 2}
	buf := e.MarshalBinary()
	require.Len(t, buf, RawEventSize)
	assert.Equal(t, 48, RawEventSize)
}

func TestCalEventSize(t *testing.T) {
	e := CalEvent{CoarseTimestamp: 12345, X: 0.5, Y: -0.25}
	buf := e.MarshalBinary()
	require.Len(t, buf, CalEventSize)
	assert.Equal(t, 40, CalEventSize)
}

func TestRawEventRoundTrip(t *testing.T) {
	e := RawEvent{
		CoarseTimestamp: 0x1FFFFFFFFFF,
		A:               100, B: 200, C: 300, D: 400,
		Com0: 2800, Com1: 1, Com0h: 3000, Com1h: 1,
		U0: 10, V0: 20, U1: 30, V1: 40,
		U0h: 50, V0h: 60, U1h: 70, V1h: 80,
		Panel: 1, Cartridge: 2, Daq: 3, Chip: 4, Module: 5,
	}
	got := UnmarshalRawEvent(e.MarshalBinary())
	assert.Equal(t, e, got)
}

func TestCalEventRoundTrip(t *testing.T) {
	e := CalEvent{
		CoarseTimestamp: 42,
		FineTime:        1.5, Energy: 511.0, SpatialTotal: 4000, X: 0.1, Y: -0.2,
		Panel: 0, Cartridge: 1, Fin: 2, Module: 3, Apd: 1, Crystal: 63, Daq: 0, Chip: 7,
	}
	got := UnmarshalCalEvent(e.MarshalBinary())
	assert.Equal(t, e, got)
}
